package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ai-secretary/ai-secretary/cmd/importctl/cli"
	"github.com/ai-secretary/ai-secretary/internal/app"
	"github.com/ai-secretary/ai-secretary/internal/platform/cache"
	"github.com/ai-secretary/ai-secretary/internal/platform/db"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(connect).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connect opens the database and Redis. Imports run inline so the command
// reports the final result.
func connect(ctx context.Context) (*cli.Env, func(), error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	cfg.ImportAsync = false
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	services := app.NewImportServices(cfg, pool, redisClient, nil, logger)
	jobsCLI := cli.NewJobsCLI(cfg.Redis().Queue())
	release := func() {
		if err := jobsCLI.Close(); err != nil {
			logger.Warn("jobs cli close", slog.Any("error", err))
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
		pool.Close()
	}
	return &cli.Env{Imports: services.Imports, Fields: services.Fields, Jobs: jobsCLI}, release, nil
}
