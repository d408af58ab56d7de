package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/boardsmith/chartsmith/internal/app"
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

	components, err := app.NewComponents(ctx, cfg, logger)
	if err != nil {
		logger.Error("init components", slog.Any("error", err))
		os.Exit(1)
	}
	defer components.Close()
	components.ListenForInvalidation(ctx)

	worker, err := components.Worker()
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting export worker", slog.Int("concurrency", cfg.WorkerConcurrency), slog.String("cache_flush_cron", cfg.CacheFlushCron))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
