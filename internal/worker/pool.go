package worker

import (
	"context"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/qs3c/findoc_server/internal/pkg/queue"
)

const (
	defaultPopTimeout = 5 * time.Second
	popRetryDelay     = time.Second
)

// Handler 处理一条任务消息
type Handler interface {
	Process(ctx context.Context, msg *queue.JobMessage) error
}

// Pool 固定数量的 worker 从同一队列取任务，每个 worker 同时只处理一个任务
type Pool struct {
	queue      *queue.Queue
	handler    Handler
	workers    int
	popTimeout time.Duration
}

func NewPool(q *queue.Queue, handler Handler, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		queue:      q,
		handler:    handler,
		workers:    workers,
		popTimeout: defaultPopTimeout,
	}
}

// Run 阻塞直到 ctx 取消。取消时正在处理的任务会执行完再退出。
func (p *Pool) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		workerID := i
		g.Go(func() error {
			p.loop(gctx, workerID)
			return nil
		})
	}

	log.Info().Int("workers", p.workers).Msg("worker pool started")
	err := g.Wait()
	log.Info().Msg("worker pool stopped")
	return err
}

func (p *Pool) loop(ctx context.Context, workerID int) {
	for {
		if ctx.Err() != nil {
			log.Info().Int("worker", workerID).Msg("worker shutting down")
			return
		}

		msg, err := p.queue.Pop(ctx, p.popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Int("worker", workerID).Msg("failed to pop job")
			select {
			case <-ctx.Done():
				return
			case <-time.After(popRetryDelay):
			}
			continue
		}
		if msg == nil {
			continue // 超时，继续等待
		}

		log.Info().Int("worker", workerID).Str("job_id", msg.JobID).Msg("processing job")
		// 退出信号不打断执行中的任务
		if err := p.handler.Process(context.WithoutCancel(ctx), msg); err != nil {
			log.Warn().Err(err).Int("worker", workerID).Str("job_id", msg.JobID).Msg("job failed")
		}
	}
}
