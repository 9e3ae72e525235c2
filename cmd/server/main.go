package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/phuslu/log"

	"github.com/qs3c/findoc_server/config"
	"github.com/qs3c/findoc_server/internal/api"
	"github.com/qs3c/findoc_server/internal/api/handler"
	"github.com/qs3c/findoc_server/internal/database"
	"github.com/qs3c/findoc_server/internal/extractor"
	"github.com/qs3c/findoc_server/internal/pipeline"
	"github.com/qs3c/findoc_server/internal/pkg/cron"
	"github.com/qs3c/findoc_server/internal/pkg/logger"
	"github.com/qs3c/findoc_server/internal/pkg/pubsub"
	"github.com/qs3c/findoc_server/internal/pkg/queue"
	"github.com/qs3c/findoc_server/internal/pkg/ws"
	"github.com/qs3c/findoc_server/internal/repository"
	"github.com/qs3c/findoc_server/internal/service"
	"github.com/qs3c/findoc_server/internal/storage"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	// 队列模式必须有 Redis
	var rdb *redis.Client
	if cfg.Queue.Enabled {
		rdb, err = database.NewRedis(&cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer rdb.Close()
	}

	store, err := storage.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init document storage")
	}

	pl, err := pipeline.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init generation pipeline")
	}

	wsHub := ws.NewHub()
	jobRepo := repository.NewJobRepository(db)

	// 分发方式：队列模式投递给 worker，进度经 Redis 转发到本进程的 websocket
	var (
		dispatcher service.Dispatcher
		notifier   service.Notifier
		jobQueue   *queue.Queue
		registry   *queue.Registry
	)
	if cfg.Queue.Enabled {
		jobQueue = queue.NewQueue(rdb, cfg.Queue.AnalysisQueue)
		registry = queue.NewRegistry(rdb, cfg.Queue.RegistryTTL)
		dispatcher = service.NewQueueDispatcher(jobQueue, registry)
		notifier = pubsub.NewPublisher(rdb)

		subscriber := pubsub.NewSubscriber(rdb)
		go func() {
			err := subscriber.Subscribe(ctx, func(msg *pubsub.ProgressMessage) {
				wsHub.PublishProgress(ctx, msg)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("progress subscriber stopped")
			}
		}()
	} else {
		dispatcher = service.NewInlineDispatcher()
		notifier = wsHub
	}

	analysisService := service.NewAnalysisService(jobRepo, store, extractor.New(), pl, dispatcher, notifier, &cfg.Upload)
	statusService := service.NewStatusService(jobRepo, registry)

	// 定时清理残留文档
	sweeper := cron.NewService(store, jobRepo, cfg.Upload.ExpireHours)
	if err := sweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start cron service")
	}
	defer sweeper.Stop()

	router := api.NewRouter(
		handler.NewAnalysisHandler(analysisService),
		handler.NewStatusHandler(statusService),
		handler.NewHealthHandler(db, rdb, jobQueue, wsHub, dispatcher.Mode()),
		handler.NewWebSocketHandler(wsHub, statusService, cfg.CORS.AllowedOrigins),
		cfg,
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router.Setup(),
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("mode", dispatcher.Mode()).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")

	// 同步模式下请求可能持续数分钟，给足时间
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Pipeline.Timeout*3+10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server stopped")
}
