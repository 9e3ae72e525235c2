package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/findoc_server/internal/model"
)

// TestJob 创建测试任务
func TestJob(t *testing.T, db *gorm.DB, opts ...func(*model.Job)) *model.Job {
	t.Helper()

	job := &model.Job{
		JobID:        fmt.Sprintf("job-%d", time.Now().UnixNano()),
		UserRef:      "1",
		Query:        "Provide comprehensive financial analysis with investment recommendations",
		DocumentPath: fmt.Sprintf("data/financial_document_%d.pdf", time.Now().UnixNano()),
		DocumentName: "report.pdf",
		Status:       model.StatusPending,
	}

	for _, opt := range opts {
		opt(job)
	}

	if err := db.Create(job).Error; err != nil {
		t.Fatalf("Failed to create test job: %v", err)
	}

	return job
}

// WithJobID 设置 job_id
func WithJobID(jobID string) func(*model.Job) {
	return func(j *model.Job) {
		j.JobID = jobID
	}
}

// WithStatus 设置状态
func WithStatus(status model.JobStatus) func(*model.Job) {
	return func(j *model.Job) {
		j.Status = status
	}
}

// WithDocumentPath 设置文档路径
func WithDocumentPath(path string) func(*model.Job) {
	return func(j *model.Job) {
		j.DocumentPath = path
	}
}

// WithUserRef 设置用户
func WithUserRef(ref string) func(*model.Job) {
	return func(j *model.Job) {
		j.UserRef = ref
	}
}

// TestResult 构造一份完整的分析结果
func TestResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		MarketResearch:           "Market research summary for testing purposes.",
		FinancialAnalysis:        "Revenue grew 12% year over year with stable margins.",
		InvestmentRecommendation: "Accumulate on weakness with a 12 month horizon.",
		RiskAssessment:           "Currency exposure and customer concentration remain.",
		VerificationReport:       "Figures cross-checked. CONFIDENCE: HIGH",
		FullReport:               "Full report body",
		ConfidenceRating:         model.ConfidenceHigh,
	}
}
