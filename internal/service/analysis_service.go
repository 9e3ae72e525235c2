package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/qs3c/findoc_server/config"
	"github.com/qs3c/findoc_server/internal/extractor"
	"github.com/qs3c/findoc_server/internal/model"
	"github.com/qs3c/findoc_server/internal/pipeline"
	"github.com/qs3c/findoc_server/internal/pkg/pubsub"
	"github.com/qs3c/findoc_server/internal/report"
	"github.com/qs3c/findoc_server/internal/repository"
	"github.com/qs3c/findoc_server/internal/storage"
)

// TextExtractor 从本地文件提取文本
type TextExtractor interface {
	Extract(ctx context.Context, path string) (*extractor.Result, error)
}

// Notifier 推送任务进度
type Notifier interface {
	PublishProgress(ctx context.Context, msg *pubsub.ProgressMessage) error
}

// SubmitRequest 一次分析请求
type SubmitRequest struct {
	Query    string
	FileName string
	Size     int64
	Content  io.Reader
	UserRef  string
}

// SubmitResult 提交结果，同步模式下 Outcome 非空
type SubmitResult struct {
	JobID        string
	Query        string
	DocumentName string
	Mode         string
	Outcome      *Outcome
}

// AnalysisService 任务编排：建任务、分发、执行状态机
type AnalysisService struct {
	jobRepo    *repository.JobRepository
	store      storage.DocumentStore
	extractor  TextExtractor
	pipeline   pipeline.Pipeline
	dispatcher Dispatcher
	notifier   Notifier
	cfg        *config.UploadConfig
}

// NewAnalysisService notifier 可以为 nil
func NewAnalysisService(
	jobRepo *repository.JobRepository,
	store storage.DocumentStore,
	textExtractor TextExtractor,
	pl pipeline.Pipeline,
	dispatcher Dispatcher,
	notifier Notifier,
	cfg *config.UploadConfig,
) *AnalysisService {
	return &AnalysisService{
		jobRepo:    jobRepo,
		store:      store,
		extractor:  textExtractor,
		pipeline:   pl,
		dispatcher: dispatcher,
		notifier:   notifier,
		cfg:        cfg,
	}
}

// Mode inline 或 queued
func (s *AnalysisService) Mode() string {
	return s.dispatcher.Mode()
}

// Submit 校验并保存文档，创建 pending 任务后交给分发器
func (s *AnalysisService) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		query = s.defaultQuery()
	}

	ref, err := s.store.Save(ctx, req.FileName, req.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	task := &Task{
		JobID:        uuid.New().String(),
		Query:        query,
		DocumentRef:  ref,
		DocumentName: filepath.Base(req.FileName),
		UserRef:      req.UserRef,
	}

	job := &model.Job{
		JobID:        task.JobID,
		UserRef:      task.UserRef,
		Query:        task.Query,
		DocumentPath: task.DocumentRef,
		DocumentName: task.DocumentName,
	}
	createErr := s.jobRepo.Create(job)
	if createErr != nil {
		// 数据库不可用时任务照常执行，状态查询走队列注册表
		log.Error().Err(createErr).Str("job_id", task.JobID).Msg("failed to create job record")
	}

	s.notify(ctx, task, pubsub.StepQueued, "")

	outcome, err := s.dispatcher.Dispatch(ctx, task, s.Execute)
	if err != nil {
		msg := err.Error()
		if updateErr := s.jobRepo.UpdateStatus(task.JobID, model.StatusFailed, &msg); updateErr != nil {
			log.Error().Err(updateErr).Str("job_id", task.JobID).Msg("failed to mark job failed")
		}
		s.cleanup(ctx, task)
		s.notify(ctx, task, pubsub.StepFailed, msg)
		return nil, err
	}
	if outcome != nil {
		outcome.Persistence.CreateErr = createErr
	}

	return &SubmitResult{
		JobID:        task.JobID,
		Query:        task.Query,
		DocumentName: task.DocumentName,
		Mode:         s.dispatcher.Mode(),
		Outcome:      outcome,
	}, nil
}

func (s *AnalysisService) validate(req *SubmitRequest) error {
	if req == nil || strings.TrimSpace(req.FileName) == "" {
		return ErrMissingFileName
	}

	ext := strings.ToLower(filepath.Ext(req.FileName))
	allowed := s.cfg.AllowedExtensions
	if len(allowed) == 0 {
		allowed = []string{".pdf"}
	}
	supported := false
	for _, a := range allowed {
		if strings.EqualFold(ext, a) {
			supported = true
			break
		}
	}
	if !supported {
		return ErrUnsupportedType
	}

	if req.Content == nil || req.Size <= 0 {
		return ErrEmptyDocument
	}
	if s.cfg.MaxSize > 0 && req.Size > s.cfg.MaxSize {
		return ErrDocumentTooLarge
	}
	return nil
}

func (s *AnalysisService) defaultQuery() string {
	if q := strings.TrimSpace(s.cfg.DefaultQuery); q != "" {
		return q
	}
	return config.DefaultQuery
}

// Execute 驱动 pending -> processing -> completed|failed。
// 写库失败只记录在 Outcome 中，不中断执行；文档在最终状态写入之后删除。
func (s *AnalysisService) Execute(ctx context.Context, task *Task) *Outcome {
	// 请求断开或进程收到退出信号都不中断执行中的任务
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	out := newOutcome(task.JobID)

	if strings.TrimSpace(task.Query) == "" {
		task.Query = s.defaultQuery()
	}

	s.transition(out, model.StatusProcessing, nil)

	s.notify(ctx, task, pubsub.StepExtracting, "")
	text := s.extract(ctx, task, out)
	if out.Extraction.Err != nil {
		s.finishFailed(ctx, task, out, start, out.Extraction.Err)
		return out
	}

	pctx := pipeline.WithStageObserver(ctx, func(stage string) {
		s.notify(ctx, task, stage, "")
	})
	sections, err := s.pipeline.Run(pctx, task.Query, text)
	out.Pipeline = PipelineOutcome{Sections: len(sections), Err: err}
	if err != nil {
		s.finishFailed(ctx, task, out, start, err)
		return out
	}

	s.notify(ctx, task, pubsub.StepSaving, "")
	outputs := pipeline.Outputs(sections)
	result := report.Derive(report.StageOutputs{
		MarketResearch:    outputs[pipeline.StageMarketResearch],
		FinancialAnalysis: outputs[pipeline.StageFinancialAnalysis],
		Verification:      outputs[pipeline.StageVerification],
	}, pipeline.FullReport(sections))

	out.Duration = time.Since(start)
	if out.advance(model.StatusCompleted) {
		out.Result = result
		rows, err := s.jobRepo.StoreResult(task.JobID, result, out.Duration)
		out.Persistence.RowsAffected = rows
		out.Persistence.ResultErr = err
		if err != nil {
			log.Error().Err(err).Str("job_id", task.JobID).Msg("failed to store analysis result")
		} else {
			s.verifyStored(task.JobID, result)
		}
	}

	out.Persistence.CleanupErr = s.cleanup(ctx, task)
	s.notify(ctx, task, pubsub.StepDone, "")

	log.Info().
		Str("job_id", task.JobID).
		Dur("duration", out.Duration).
		Str("confidence", string(result.ConfidenceRating)).
		Bool("persisted", out.Persistence.OK()).
		Msg("analysis completed")
	return out
}

func (s *AnalysisService) extract(ctx context.Context, task *Task, out *Outcome) string {
	path, release, err := s.store.Fetch(ctx, task.DocumentRef)
	if err != nil {
		out.Extraction.Err = fmt.Errorf("%w: %v", extractor.ErrNotFound, err)
		return ""
	}
	defer release()

	res, err := s.extractor.Extract(ctx, path)
	if err != nil {
		out.Extraction.Err = err
		return ""
	}

	out.Extraction.Pages = res.Pages
	out.Extraction.UnreadablePages = res.UnreadablePages
	out.Extraction.Chars = len(res.Text)
	if len(res.UnreadablePages) > 0 {
		log.Warn().Str("job_id", task.JobID).Ints("pages", res.UnreadablePages).Msg("some pages could not be read")
	}
	return res.Text
}

func (s *AnalysisService) finishFailed(ctx context.Context, task *Task, out *Outcome, start time.Time, cause error) {
	out.Duration = time.Since(start)
	msg := cause.Error()
	s.transition(out, model.StatusFailed, &msg)
	out.Persistence.CleanupErr = s.cleanup(ctx, task)
	s.notify(ctx, task, pubsub.StepFailed, msg)

	log.Warn().Err(cause).Str("job_id", task.JobID).Dur("duration", out.Duration).Msg("analysis failed")
}

// transition 推进本地状态并写库，写库失败只记录
func (s *AnalysisService) transition(out *Outcome, to model.JobStatus, errMsg *string) {
	if !out.advance(to) {
		return
	}
	if err := s.jobRepo.UpdateStatus(out.JobID, to, errMsg); err != nil {
		out.Persistence.StatusErrs = append(out.Persistence.StatusErrs, err)
		log.Error().Err(err).Str("job_id", out.JobID).Str("status", string(to)).Msg("failed to update job status")
	}
}

// verifyStored 回读确认报告没有被截断
func (s *AnalysisService) verifyStored(jobID string, result *model.AnalysisResult) {
	job, err := s.jobRepo.GetByJobID(jobID)
	if err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("failed to read back stored result")
		return
	}
	if len(job.FullAnalysisReport) != len(result.FullReport) {
		log.Error().Str("job_id", jobID).
			Int("expected", len(result.FullReport)).
			Int("stored", len(job.FullAnalysisReport)).
			Msg("stored report length mismatch")
		return
	}
	log.Debug().Str("job_id", jobID).Int("report_length", len(job.FullAnalysisReport)).Msg("stored result verified")
}

// cleanup 尽力删除文档，只在最终状态写入之后调用
func (s *AnalysisService) cleanup(ctx context.Context, task *Task) error {
	if task.DocumentRef == "" {
		return nil
	}
	err := s.store.Delete(ctx, task.DocumentRef)
	if err != nil && !errors.Is(err, storage.ErrDocumentNotFound) {
		log.Warn().Err(err).Str("job_id", task.JobID).Str("ref", task.DocumentRef).Msg("failed to delete document")
		return err
	}
	return nil
}

func (s *AnalysisService) notify(ctx context.Context, task *Task, step, errMsg string) {
	if s.notifier == nil {
		return
	}

	status := string(model.StatusProcessing)
	switch step {
	case pubsub.StepQueued:
		status = string(model.StatusPending)
	case pubsub.StepDone:
		status = string(model.StatusCompleted)
	case pubsub.StepFailed:
		status = string(model.StatusFailed)
	}

	msg := &pubsub.ProgressMessage{
		JobID:   task.JobID,
		UserRef: task.UserRef,
		Status:  status,
		Step:    step,
		Error:   errMsg,
	}
	if err := s.notifier.PublishProgress(ctx, msg); err != nil {
		log.Debug().Err(err).Str("job_id", task.JobID).Str("step", step).Msg("failed to publish progress")
	}
}
