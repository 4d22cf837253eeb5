package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ai-secretary/ai-secretary/internal/app"
	jobmetrics "github.com/ai-secretary/ai-secretary/internal/jobs"
	"github.com/ai-secretary/ai-secretary/internal/observability"
	"github.com/ai-secretary/ai-secretary/internal/platform/cache"
	"github.com/ai-secretary/ai-secretary/internal/platform/db"
	"github.com/ai-secretary/ai-secretary/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	importMetrics := observability.NewMetrics()
	metrics := jobmetrics.NewMetrics(importMetrics.Registerer())
	services := app.NewImportServices(cfg, pool, redisClient, importMetrics, logger)

	metricsServer := &http.Server{
		Addr:              cfg.WorkerMetricsAddr,
		Handler:           importMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	sender, err := jobs.NewSMTPSender(jobs.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		logger.Error("init smtp sender", slog.Any("error", err))
		os.Exit(1)
	}

	importJob := jobs.NewClientImportJob(services.Imports, logger, metrics)
	mailJob := &jobs.SendEmailJob{
		Sender:  sender,
		Logger:  logger,
		Metrics: metrics,
	}
	cleanupJob := &jobs.IdempotencyCleanupJob{Pruner: services.Idempotency, Logger: logger, Metrics: metrics}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: cfg.Redis().Queue(),
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskClientImport, Handler: importJob.Handle},
			{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		stop()
		return
	}
}
