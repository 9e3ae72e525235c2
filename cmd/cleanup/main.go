package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/phuslu/log"

	"github.com/qs3c/findoc_server/config"
	"github.com/qs3c/findoc_server/internal/database"
	"github.com/qs3c/findoc_server/internal/pkg/cron"
	"github.com/qs3c/findoc_server/internal/pkg/logger"
	"github.com/qs3c/findoc_server/internal/repository"
	"github.com/qs3c/findoc_server/internal/storage"
)

var (
	dryRun       = flag.Bool("dry-run", true, "Dry run mode, don't actually delete documents")
	uploadExpire = flag.Int("upload-expire", 0, "Hours to keep uploaded documents (0 = upload.expire_hours)")
)

func main() {
	flag.Parse()

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Setup(cfg.Log)

	expireHours := *uploadExpire
	if expireHours <= 0 {
		expireHours = cfg.Upload.ExpireHours
	}
	log.Info().Bool("dry_run", *dryRun).Int("expire_hours", expireHours).Msg("starting cleanup task")

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	store, err := storage.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init document storage")
	}

	sweeper := cron.NewService(store, repository.NewJobRepository(db), expireHours)
	report, err := sweeper.Sweep(context.Background(), *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("cleanup failed")
	}

	// 输出统计
	log.Info().Msg(strings.Repeat("=", 60))
	log.Info().
		Int("expired", report.Expired).
		Int("skipped_in_flight", report.Skipped).
		Int("deleted", report.Deleted).
		Int("failed", report.Failed).
		Msg("cleanup summary")
	if *dryRun {
		log.Warn().Msg("DRY RUN MODE - no documents were actually deleted, run with -dry-run=false to delete")
	} else {
		log.Info().Msg("cleanup completed")
	}
}
