package service

import (
	"context"
	"errors"

	"github.com/phuslu/log"

	"github.com/qs3c/findoc_server/internal/model"
	"github.com/qs3c/findoc_server/internal/model/dto"
	"github.com/qs3c/findoc_server/internal/pkg/queue"
	"github.com/qs3c/findoc_server/internal/repository"
)

const retryHint = "请重新上传文档发起新的分析"

// 队列注册表状态到任务状态的映射
var registryStatus = map[queue.TaskState]model.JobStatus{
	queue.StatePending: model.StatusPending,
	queue.StateStarted: model.StatusProcessing,
	queue.StateSuccess: model.StatusCompleted,
	queue.StateFailure: model.StatusFailed,
}

// StatusService 任务状态查询
type StatusService struct {
	jobRepo  *repository.JobRepository
	registry *queue.Registry
}

// NewStatusService registry 为 nil 时不做队列兜底（同步模式）
func NewStatusService(jobRepo *repository.JobRepository, registry *queue.Registry) *StatusService {
	return &StatusService{jobRepo: jobRepo, registry: registry}
}

// GetStatus 先查数据库，查不到再查队列注册表
func (s *StatusService) GetStatus(ctx context.Context, jobID string) (*dto.StatusResponse, error) {
	job, err := s.jobRepo.GetByJobID(jobID)
	if err == nil {
		return fromJob(job), nil
	}
	if !errors.Is(err, repository.ErrJobNotFound) {
		log.Warn().Err(err).Str("job_id", jobID).Msg("job store lookup failed")
	}

	if s.registry == nil {
		return nil, ErrJobNotFound
	}

	rec, err := s.registry.Get(ctx, jobID)
	if err != nil {
		if !errors.Is(err, queue.ErrTaskNotFound) {
			log.Warn().Err(err).Str("job_id", jobID).Msg("task registry lookup failed")
		}
		return nil, ErrJobNotFound
	}
	return fromTaskRecord(jobID, rec), nil
}

func fromJob(job *model.Job) *dto.StatusResponse {
	resp := &dto.StatusResponse{
		JobID:        job.JobID,
		Status:       string(job.Status),
		Source:       "store",
		Query:        job.Query,
		DocumentName: job.DocumentName,
		CreatedAt:    &job.CreatedAt,
	}

	switch job.Status {
	case model.StatusCompleted:
		duration := job.ProcessingDuration
		resp.Result = job.Result()
		resp.ProcessingDuration = &duration
		resp.CompletedAt = job.CompletedAt
	case model.StatusFailed:
		if job.ErrorMessage != nil {
			resp.Error = *job.ErrorMessage
		}
		resp.RetryHint = retryHint
	}
	return resp
}

func fromTaskRecord(jobID string, rec *queue.TaskRecord) *dto.StatusResponse {
	status, ok := registryStatus[rec.State]
	if !ok {
		status = model.StatusPending
	}

	resp := &dto.StatusResponse{
		JobID:  jobID,
		Status: string(status),
		Source: "queue",
	}
	if status == model.StatusFailed {
		resp.Error = rec.Error
		resp.RetryHint = retryHint
	}
	return resp
}
