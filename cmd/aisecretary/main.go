package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ai-secretary/ai-secretary/internal/app"
	"github.com/ai-secretary/ai-secretary/internal/auth"
	"github.com/ai-secretary/ai-secretary/internal/clients"
	"github.com/ai-secretary/ai-secretary/internal/clients/csvimport"
	"github.com/ai-secretary/ai-secretary/internal/companies"
	"github.com/ai-secretary/ai-secretary/internal/customfields"
	"github.com/ai-secretary/ai-secretary/internal/messages"
	"github.com/ai-secretary/ai-secretary/internal/observability"
	"github.com/ai-secretary/ai-secretary/internal/platform/cache"
	"github.com/ai-secretary/ai-secretary/internal/platform/db"
	"github.com/ai-secretary/ai-secretary/internal/shared"
	"github.com/ai-secretary/ai-secretary/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
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
	slog.SetDefault(logger)

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

	metrics := observability.NewMetrics()
	sessionManager := shared.NewSessionManager(redisClient, "aisecretary_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	redisOpts := cfg.Redis().Queue()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("close job client", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("close inspector", slog.Any("error", err))
		}
	}()

	services := app.NewImportServices(cfg, pool, redisClient, metrics, logger)
	services.Imports.SetEnqueuer(jobClient)

	authService := auth.NewService(auth.NewRepository(pool), jobClient, logger)
	clientService := clients.NewService(clients.NewRepository(pool), services.Fields, logger)
	companyService := companies.NewService(companies.NewRepository(pool))
	generator := messages.NewGenerator(messages.GeneratorConfig{
		BaseURL: cfg.AIAPIURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.AIModel,
	})
	messageService := messages.NewService(messages.NewRepository(pool), generator, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		AuthHandler:         auth.NewHandler(logger, authService, sessionManager, csrfManager),
		CompanyHandler:      companies.NewHandler(logger, companyService, services.Audit),
		CustomFieldsHandler: customfields.NewHandler(logger, services.Fields),
		ClientsHandler:      clients.NewHandler(logger, clientService, services.Audit),
		ImportHandler:       csvimport.NewHandler(logger, services.Imports, services.Fields, cfg.ImportMaxUpload),
		MessagesHandler:     messages.NewHandler(logger, messageService),
		JobHandler:          jobs.NewHandler(inspector, logger),
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
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
