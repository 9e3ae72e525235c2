package service

import (
	"time"

	"github.com/phuslu/log"

	"github.com/qs3c/findoc_server/internal/model"
)

// ExtractionOutcome 文本提取这一步的结果
type ExtractionOutcome struct {
	Pages           int
	UnreadablePages []int
	Chars           int
	Err             error
}

// PipelineOutcome 生成流水线这一步的结果
type PipelineOutcome struct {
	Sections int
	Err      error
}

// PersistenceOutcome 各次写库和清理文档的结果，失败不影响任务本身
type PersistenceOutcome struct {
	CreateErr    error
	StatusErrs   []error
	ResultErr    error
	RowsAffected int64
	CleanupErr   error
}

// OK 所有写入都成功
func (p *PersistenceOutcome) OK() bool {
	return p.CreateErr == nil && len(p.StatusErrs) == 0 && p.ResultErr == nil
}

// Outcome 一次执行的完整结果
type Outcome struct {
	JobID       string
	Status      model.JobStatus
	Result      *model.AnalysisResult
	Duration    time.Duration
	Extraction  ExtractionOutcome
	Pipeline    PipelineOutcome
	Persistence PersistenceOutcome
}

func newOutcome(jobID string) *Outcome {
	return &Outcome{JobID: jobID, Status: model.StatusPending}
}

// Err 导致任务失败的错误
func (o *Outcome) Err() error {
	if o.Extraction.Err != nil {
		return o.Extraction.Err
	}
	return o.Pipeline.Err
}

// advance 只允许向前流转，非法流转被忽略
func (o *Outcome) advance(to model.JobStatus) bool {
	if !o.Status.CanTransition(to) {
		log.Error().Str("job_id", o.JobID).Str("from", string(o.Status)).Str("to", string(to)).Msg("illegal job transition ignored")
		return false
	}
	o.Status = to
	return true
}
