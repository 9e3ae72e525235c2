package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/phuslu/log"

	"github.com/qs3c/findoc_server/config"
	"github.com/qs3c/findoc_server/internal/database"
	"github.com/qs3c/findoc_server/internal/extractor"
	"github.com/qs3c/findoc_server/internal/pipeline"
	"github.com/qs3c/findoc_server/internal/pkg/logger"
	"github.com/qs3c/findoc_server/internal/pkg/pubsub"
	"github.com/qs3c/findoc_server/internal/pkg/queue"
	"github.com/qs3c/findoc_server/internal/repository"
	"github.com/qs3c/findoc_server/internal/service"
	"github.com/qs3c/findoc_server/internal/storage"
	"github.com/qs3c/findoc_server/internal/worker"
)

func main() {
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

	// 创建 context 用于优雅关闭
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer rdb.Close()

	// 文档存储必须和 API 进程共享（同一目录或 OSS）
	store, err := storage.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init document storage")
	}

	pl, err := pipeline.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init generation pipeline")
	}

	jobRepo := repository.NewJobRepository(db)
	jobQueue := queue.NewQueue(rdb, cfg.Queue.AnalysisQueue)
	registry := queue.NewRegistry(rdb, cfg.Queue.RegistryTTL)
	publisher := pubsub.NewPublisher(rdb)

	// worker 只用到 Execute，分发器不会被调用
	analysisService := service.NewAnalysisService(jobRepo, store, extractor.New(), pl, service.NewInlineDispatcher(), publisher, &cfg.Upload)
	processor := worker.NewProcessor(analysisService, jobRepo, registry)

	pool := worker.NewPool(jobQueue, processor, cfg.Queue.MaxWorkers)
	if err := pool.Run(ctx); err != nil {
		log.Error().Err(err).Msg("worker pool exited with error")
	}
	log.Info().Msg("worker shutdown complete")
}
