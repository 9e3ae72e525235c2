package dto

import (
	"time"

	"github.com/qs3c/findoc_server/internal/model"
)

// AnalyzeResponse POST /analyze 响应
type AnalyzeResponse struct {
	JobID        string                `json:"job_id"`
	Status       string                `json:"status"` // queued 或 completed
	Query        string                `json:"query"`
	DocumentName string                `json:"document_name"`
	Message      string                `json:"message,omitempty"`
	Result       *model.AnalysisResult `json:"result,omitempty"`
	Duration     float64               `json:"processing_duration,omitempty"`
}

// AnalyzeFailure 同步模式失败时随错误返回的数据
type AnalyzeFailure struct {
	JobID string `json:"job_id"`
	Stage string `json:"stage,omitempty"`
	Error string `json:"error"`
}

// StatusResponse GET /status/:job_id 响应
type StatusResponse struct {
	JobID              string                `json:"job_id"`
	Status             string                `json:"status"`
	Source             string                `json:"source"` // store 或 queue
	Query              string                `json:"query,omitempty"`
	DocumentName       string                `json:"document_name,omitempty"`
	Result             *model.AnalysisResult `json:"result,omitempty"`
	ProcessingDuration *float64              `json:"processing_duration,omitempty"`
	CreatedAt          *time.Time            `json:"created_at,omitempty"`
	CompletedAt        *time.Time            `json:"completed_at,omitempty"`
	Error              string                `json:"error,omitempty"`
	RetryHint          string                `json:"retry_hint,omitempty"`
}

// HealthResponse GET /health 响应
type HealthResponse struct {
	Status       string `json:"status"`
	Database     bool   `json:"database"`
	Redis        bool   `json:"redis"`
	QueueEnabled bool   `json:"queue_enabled"`
	QueueLength  *int64 `json:"queue_length,omitempty"`
	Connections  int    `json:"websocket_connections"`
}

// BannerResponse GET / 响应
type BannerResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Mode    string `json:"mode"` // inline 或 queued
}
