package service

import (
	"context"
	"fmt"

	"github.com/phuslu/log"

	"github.com/qs3c/findoc_server/internal/pkg/queue"
)

const (
	ModeInline = "inline"
	ModeQueued = "queued"
)

// Task 一次执行所需的全部输入，队列模式下原样序列化为 JobMessage
type Task struct {
	JobID        string
	Query        string
	DocumentRef  string
	DocumentName string
	UserRef      string
}

// TaskFromMessage 从队列消息还原任务
func TaskFromMessage(msg *queue.JobMessage) *Task {
	return &Task{
		JobID:        msg.JobID,
		Query:        msg.Query,
		DocumentRef:  msg.DocumentRef,
		DocumentName: msg.DocumentName,
		UserRef:      msg.UserRef,
	}
}

func (t *Task) message() *queue.JobMessage {
	return &queue.JobMessage{
		JobID:        t.JobID,
		Query:        t.Query,
		DocumentRef:  t.DocumentRef,
		DocumentName: t.DocumentName,
		UserRef:      t.UserRef,
	}
}

// RunFunc 驱动 processing 及之后的状态
type RunFunc func(ctx context.Context, task *Task) *Outcome

// Dispatcher 决定任务在哪里执行。
// 返回 nil Outcome 表示任务已移交，由别处执行。
type Dispatcher interface {
	Dispatch(ctx context.Context, task *Task, run RunFunc) (*Outcome, error)
	Mode() string
}

// InlineDispatcher 在调用方 goroutine 内执行
type InlineDispatcher struct{}

func NewInlineDispatcher() *InlineDispatcher {
	return &InlineDispatcher{}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, task *Task, run RunFunc) (*Outcome, error) {
	return run(ctx, task), nil
}

func (d *InlineDispatcher) Mode() string {
	return ModeInline
}

// QueueDispatcher 投递到 Redis 队列后立即返回
type QueueDispatcher struct {
	queue    *queue.Queue
	registry *queue.Registry
}

func NewQueueDispatcher(q *queue.Queue, registry *queue.Registry) *QueueDispatcher {
	return &QueueDispatcher{queue: q, registry: registry}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, task *Task, run RunFunc) (*Outcome, error) {
	// 先写注册表再投递，worker 写入的 STARTED 不会被覆盖
	if d.registry != nil {
		if err := d.registry.SetState(ctx, task.JobID, queue.StatePending, ""); err != nil {
			log.Warn().Err(err).Str("job_id", task.JobID).Msg("failed to record pending task state")
		}
	}

	if err := d.queue.Push(ctx, task.message()); err != nil {
		if d.registry != nil {
			d.registry.SetState(ctx, task.JobID, queue.StateFailure, err.Error())
		}
		return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	log.Info().Str("job_id", task.JobID).Msg("job queued")
	return nil, nil
}

func (d *QueueDispatcher) Mode() string {
	return ModeQueued
}
