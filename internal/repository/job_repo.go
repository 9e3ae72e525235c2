package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/findoc_server/internal/model"
)

var (
	ErrJobNotFound  = errors.New("job not found")
	ErrDuplicateJob = errors.New("job already exists")
)

// JobRepository financial_analyses 表的读写。
// 每个方法都是一条独立语句，调用方不能假设跨方法的读写原子性。
type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create 以 pending 状态插入新任务
func (r *JobRepository) Create(job *model.Job) error {
	job.Status = model.StatusPending
	job.ErrorMessage = nil
	job.CompletedAt = nil

	if err := r.db.Create(job).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateJob
		}
		return err
	}
	return nil
}

// GetByJobID 按 job_id 查询完整记录
func (r *JobRepository) GetByJobID(jobID string) (*model.Job, error) {
	var job model.Job
	err := r.db.Where("job_id = ?", jobID).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// UpdateStatus 更新状态和错误信息，errMsg 为 nil 时清空错误
func (r *JobRepository) UpdateStatus(jobID string, status model.JobStatus, errMsg *string) error {
	result := r.db.Model(&model.Job{}).
		Where("job_id = ?", jobID).
		Updates(map[string]interface{}{
			"status":        status,
			"error_message": errMsg,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// StoreResult 一条 UPDATE 写入全部结果并置为 completed，返回影响行数
func (r *JobRepository) StoreResult(jobID string, res *model.AnalysisResult, duration time.Duration) (int64, error) {
	now := time.Now()
	result := r.db.Model(&model.Job{}).
		Where("job_id = ?", jobID).
		Updates(map[string]interface{}{
			"market_research_summary":    res.MarketResearch,
			"financial_metrics_analysis": res.FinancialAnalysis,
			"investment_recommendation":  res.InvestmentRecommendation,
			"risk_assessment":            res.RiskAssessment,
			"verification_report":        res.VerificationReport,
			"full_analysis_report":       res.FullReport,
			"confidence_rating":          res.ConfidenceRating,
			"status":                     model.StatusCompleted,
			"processing_duration":        duration.Seconds(),
			"error_message":              nil,
			"completed_at":               now,
			"updated_at":                 now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrJobNotFound
	}
	return result.RowsAffected, nil
}

// ListDocumentPathsByStatus 返回指定状态任务仍引用的文档
func (r *JobRepository) ListDocumentPathsByStatus(statuses ...model.JobStatus) ([]string, error) {
	var paths []string
	err := r.db.Model(&model.Job{}).
		Where("status IN ?", statuses).
		Where("document_path <> ''").
		Pluck("document_path", &paths).Error
	return paths, err
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
