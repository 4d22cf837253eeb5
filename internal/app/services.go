package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ai-secretary/ai-secretary/internal/clients/csvimport"
	"github.com/ai-secretary/ai-secretary/internal/customfields"
	"github.com/ai-secretary/ai-secretary/internal/observability"
	"github.com/ai-secretary/ai-secretary/internal/shared"
)

// ImportServices are the pieces of the import pipeline shared by the
// server, the worker and the CLI.
type ImportServices struct {
	Fields      *customfields.Service
	Imports     *csvimport.Service
	Idempotency *shared.IdempotencyStore
	Audit       *shared.AuditLogger
}

// NewImportServices wires the custom field registry and the import service.
// metrics may be nil.
func NewImportServices(cfg *Config, pool *pgxpool.Pool, redisClient *redis.Client, metrics *observability.Metrics, logger *slog.Logger) ImportServices {
	fields := customfields.NewService(customfields.NewRepository(pool), logger)
	idempotency := shared.NewIdempotencyStore(pool)
	audit := shared.NewAuditLogger(pool)
	imports := csvimport.NewService(
		fields,
		csvimport.NewDraftStore(redisClient, cfg.ImportDraftTTL),
		csvimport.NewRepository(pool),
		idempotency,
		audit,
		metrics,
		logger,
		csvimport.Options{BatchSize: cfg.ImportBatchSize, Async: cfg.ImportAsync},
	)
	return ImportServices{Fields: fields, Imports: imports, Idempotency: idempotency, Audit: audit}
}
