package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/towerdesk/towerdesk/internal/app"
	"github.com/towerdesk/towerdesk/internal/auth"
	authhttp "github.com/towerdesk/towerdesk/internal/auth/http"
	"github.com/towerdesk/towerdesk/internal/platform/cache"
	"github.com/towerdesk/towerdesk/internal/platform/db"
	"github.com/towerdesk/towerdesk/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	verifier := auth.NewBcryptVerifier(cfg.BcryptCost)
	authRepo := auth.NewRepository(dbpool)
	if err := authRepo.EnsureSchema(ctx, verifier); err != nil {
		logger.Error("bootstrap principals", slog.Any("error", err))
		os.Exit(1)
	}
	authService := auth.NewService(authRepo, verifier)

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
		tokenStore = session.NewMemoryStore()
	default:
		pgStore := session.NewPGStore(dbpool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			logger.Error("bootstrap session tokens", slog.Any("error", err))
			os.Exit(1)
		}
		tokenStore = pgStore
	}
	sessionService := session.NewService(tokenStore, session.Config{TTL: cfg.TokenTTL})

	authHandler := authhttp.NewHandler(logger, authService, sessionService, cfg.LoginRateLimit)

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		AuthHandler: authHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
