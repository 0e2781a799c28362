package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/towerdesk/towerdesk/internal/app"
	"github.com/towerdesk/towerdesk/internal/platform/cache"
	"github.com/towerdesk/towerdesk/internal/platform/db"
	"github.com/towerdesk/towerdesk/internal/session"
	"github.com/towerdesk/towerdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	var tokenStore session.Store
	switch cfg.TokenStore {
	case "redis":
		redisClient, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		tokenStore = session.NewRedisStore(redisClient)
	case "memory":
		// An in-memory store lives inside the server process; there is
		// nothing for a separate worker to sweep.
		logger.Error("worker requires a shared token store (postgres or redis)")
		os.Exit(1)
	default:
		dbpool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect database", slog.Any("error", err))
			os.Exit(1)
		}
		defer dbpool.Close()
		tokenStore = session.NewPGStore(dbpool)
	}
	sessionService := session.NewService(tokenStore, session.Config{TTL: cfg.TokenTTL})

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSessionCleanup, Handler: jobs.NewSessionCleanupHandler(sessionService, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.CleanupCron, Task: jobs.NewSessionCleanupTask(), Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("cleanup_cron", cfg.CleanupCron))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
