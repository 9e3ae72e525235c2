package model

import (
	"time"
)

// JobStatus 任务状态，只允许向前流转
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// IsTerminal completed / failed 之后不再变化
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition 检查状态流转是否合法
func (s JobStatus) CanTransition(to JobStatus) bool {
	switch s {
	case StatusPending:
		return to == StatusProcessing || to == StatusFailed
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// Confidence 置信度评级
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Job 对应一次 /analyze 请求的完整生命周期。
// 报告类字段不设 size，MySQL 下映射为 longtext，避免截断。
type Job struct {
	ID                       int64      `gorm:"primaryKey" json:"-"`
	JobID                    string     `gorm:"size:64;not null;uniqueIndex" json:"job_id"`
	UserRef                  string     `gorm:"size:64;index" json:"user_ref"`
	Query                    string     `json:"query"`
	DocumentPath             string     `gorm:"size:500" json:"document_path"`
	DocumentName             string     `gorm:"size:255" json:"document_name"`
	Status                   JobStatus  `gorm:"size:20;default:pending;index" json:"status"`
	MarketResearchSummary    string     `json:"market_research_summary,omitempty"`
	FinancialMetricsAnalysis string     `json:"financial_metrics_analysis,omitempty"`
	InvestmentRecommendation string     `json:"investment_recommendation,omitempty"`
	RiskAssessment           string     `json:"risk_assessment,omitempty"`
	VerificationReport       string     `json:"verification_report,omitempty"`
	FullAnalysisReport       string     `json:"full_analysis_report,omitempty"`
	ConfidenceRating         Confidence `gorm:"size:10" json:"confidence_rating,omitempty"`
	ProcessingDuration       float64    `json:"processing_duration,omitempty"` // 秒
	ErrorMessage             *string    `json:"error_message,omitempty"`
	CreatedAt                time.Time  `gorm:"index" json:"created_at"`
	CompletedAt              *time.Time `json:"completed_at,omitempty"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

func (Job) TableName() string {
	return "financial_analyses"
}

// AnalysisResult 成功时写入的结构化字段
type AnalysisResult struct {
	MarketResearch           string     `json:"market_research"`
	FinancialAnalysis        string     `json:"financial_analysis"`
	InvestmentRecommendation string     `json:"investment_recommendation"`
	RiskAssessment           string     `json:"risk_assessment"`
	VerificationReport       string     `json:"verification_report"`
	FullReport               string     `json:"full_report"`
	ConfidenceRating         Confidence `json:"confidence_rating"`
}

// Result 从已完成的记录中取出结构化结果
func (j *Job) Result() *AnalysisResult {
	if j.Status != StatusCompleted {
		return nil
	}
	return &AnalysisResult{
		MarketResearch:           j.MarketResearchSummary,
		FinancialAnalysis:        j.FinancialMetricsAnalysis,
		InvestmentRecommendation: j.InvestmentRecommendation,
		RiskAssessment:           j.RiskAssessment,
		VerificationReport:       j.VerificationReport,
		FullReport:               j.FullAnalysisReport,
		ConfidenceRating:         j.ConfidenceRating,
	}
}
