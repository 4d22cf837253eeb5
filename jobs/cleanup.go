package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ai-secretary/ai-secretary/internal/jobs"
)

// KeyPruner deletes idempotency keys older than a cutoff.
type KeyPruner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob handles TaskIdempotencyCleanup.
type IdempotencyCleanupJob struct {
	Pruner    KeyPruner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// Handle prunes keys past the retention window.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	metrics := j.Metrics
	if metrics == nil {
		metrics = jobmetrics.NewMetrics(nil)
	}
	tracker := metrics.Track(TaskIdempotencyCleanup)
	defer func() {
		err = tracker.End(err)
	}()

	retention := j.Retention
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	pruned, err := j.Pruner.Cleanup(ctx, retention)
	if err != nil {
		if j.Logger != nil {
			j.Logger.Error("idempotency cleanup", slog.Any("error", err))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("idempotency cleanup", slog.Int64("pruned", pruned), slog.Duration("retention", retention))
	}
	return nil
}
