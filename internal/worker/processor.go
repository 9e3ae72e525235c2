package worker

import (
	"context"
	"errors"

	"github.com/phuslu/log"

	"github.com/qs3c/findoc_server/internal/pkg/queue"
	"github.com/qs3c/findoc_server/internal/repository"
	"github.com/qs3c/findoc_server/internal/service"
)

// Executor 执行单个任务，由 service.AnalysisService 实现
type Executor interface {
	Execute(ctx context.Context, task *service.Task) *service.Outcome
}

// Processor 处理队列中的一条任务消息
type Processor struct {
	executor Executor
	jobRepo  *repository.JobRepository
	registry *queue.Registry
}

// NewProcessor registry 可以为 nil
func NewProcessor(executor Executor, jobRepo *repository.JobRepository, registry *queue.Registry) *Processor {
	return &Processor{
		executor: executor,
		jobRepo:  jobRepo,
		registry: registry,
	}
}

// Process 执行任务并同步队列注册表状态
func (p *Processor) Process(ctx context.Context, msg *queue.JobMessage) error {
	// 消息可能被重复投递，已经结束的任务直接跳过
	job, err := p.jobRepo.GetByJobID(msg.JobID)
	switch {
	case err == nil && job.Status.IsTerminal():
		log.Info().Str("job_id", msg.JobID).Str("status", string(job.Status)).Msg("job already finished, skipping")
		return nil
	case err != nil && !errors.Is(err, repository.ErrJobNotFound):
		log.Warn().Err(err).Str("job_id", msg.JobID).Msg("job store lookup failed, processing anyway")
	}

	p.setState(ctx, msg.JobID, queue.StateStarted, "")

	out := p.executor.Execute(ctx, service.TaskFromMessage(msg))
	if err := out.Err(); err != nil {
		p.setState(ctx, msg.JobID, queue.StateFailure, err.Error())
		return err
	}

	p.setState(ctx, msg.JobID, queue.StateSuccess, "")
	return nil
}

func (p *Processor) setState(ctx context.Context, jobID string, state queue.TaskState, errMsg string) {
	if p.registry == nil {
		return
	}
	if err := p.registry.SetState(ctx, jobID, state, errMsg); err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Str("state", string(state)).Msg("failed to update task registry")
	}
}
