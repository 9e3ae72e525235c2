package cron

import (
	"context"
	"time"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"github.com/qs3c/findoc_server/internal/model"
	"github.com/qs3c/findoc_server/internal/storage"
)

// DefaultSchedule 每小时整点清理一次
const DefaultSchedule = "0 * * * *"

// activeDocuments 查询仍在处理中的任务引用的文档
type activeDocuments interface {
	ListDocumentPathsByStatus(statuses ...model.JobStatus) ([]string, error)
}

// SweepReport 一次清理的统计
type SweepReport struct {
	Expired int
	Skipped int // 属于未结束的任务
	Deleted int
	Failed  int
}

// Service 定时清理残留的上传文档。
// 正常情况下文档在任务结束后就被删除，这里只处理进程崩溃等情况留下的文件。
type Service struct {
	cron     *cron.Cron
	store    storage.DocumentStore
	jobs     activeDocuments
	expire   time.Duration
	schedule string
}

func NewService(store storage.DocumentStore, jobs activeDocuments, expireHours int) *Service {
	if expireHours <= 0 {
		expireHours = 1
	}
	return &Service{
		cron:     cron.New(),
		store:    store,
		jobs:     jobs,
		expire:   time.Duration(expireHours) * time.Hour,
		schedule: DefaultSchedule,
	}
}

// Start 启动定时任务
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		report, err := s.Sweep(context.Background(), false)
		if err != nil {
			log.Error().Err(err).Msg("document sweep failed")
			return
		}
		if report.Expired > 0 {
			log.Info().Int("expired", report.Expired).
				Int("deleted", report.Deleted).
				Int("skipped", report.Skipped).
				Int("failed", report.Failed).
				Msg("document sweep finished")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Dur("expire", s.expire).Msg("cron service started")
	return nil
}

// Stop 停止定时任务，等待正在执行的清理结束
func (s *Service) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("cron service stopped")
}

// Sweep 删除过期且不属于 pending/processing 任务的文档，dryRun 时只统计
func (s *Service) Sweep(ctx context.Context, dryRun bool) (SweepReport, error) {
	var report SweepReport

	refs, err := s.store.ListOlderThan(ctx, s.expire)
	if err != nil {
		return report, err
	}
	report.Expired = len(refs)
	if len(refs) == 0 {
		return report, nil
	}

	keep := make(map[string]struct{})
	if s.jobs != nil {
		active, err := s.jobs.ListDocumentPathsByStatus(model.StatusPending, model.StatusProcessing)
		if err != nil {
			// 数据库不可用时宁可不删
			return report, err
		}
		for _, ref := range active {
			keep[ref] = struct{}{}
		}
	}

	for _, ref := range refs {
		if _, ok := keep[ref]; ok {
			report.Skipped++
			continue
		}
		if dryRun {
			report.Deleted++
			continue
		}
		if err := s.store.Delete(ctx, ref); err != nil {
			log.Warn().Str("ref", ref).Err(err).Msg("failed to delete expired document")
			report.Failed++
			continue
		}
		report.Deleted++
	}
	return report, nil
}
