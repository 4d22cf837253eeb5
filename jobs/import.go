package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ai-secretary/ai-secretary/internal/clients/csvimport"
	jobmetrics "github.com/ai-secretary/ai-secretary/internal/jobs"
)

// ImportRunner executes a confirmed import draft.
type ImportRunner interface {
	Run(ctx context.Context, draftID string) (csvimport.Draft, error)
}

// ClientImportJob handles TaskClientImport.
type ClientImportJob struct {
	Runner  ImportRunner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewClientImportJob constructs the job handler.
func NewClientImportJob(runner ImportRunner, logger *slog.Logger, metrics *jobmetrics.Metrics) *ClientImportJob {
	return &ClientImportJob{Runner: runner, Logger: logger, Metrics: metrics}
}

// Handle runs the import. Missing or already finished drafts are not retried.
func (j *ClientImportJob) Handle(ctx context.Context, task *asynq.Task) (err error) {
	if j == nil || j.Runner == nil {
		return errors.New("client import: dependencies not configured")
	}
	var payload ClientImportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil || payload.DraftID == "" {
		return fmt.Errorf("client import payload: %w", asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskClientImport)
	defer func() {
		err = tracker.End(err)
	}()

	draft, err := j.Runner.Run(ctx, payload.DraftID)
	if err != nil {
		j.log().Error("client import", slog.String("draft_id", payload.DraftID), slog.Any("error", err))
		if errors.Is(err, csvimport.ErrDraftNotFound) || errors.Is(err, csvimport.ErrInvalidTransition) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}
	if done, ok := draft.State.(csvimport.Done); ok {
		j.log().Info("client import finished",
			slog.String("draft_id", payload.DraftID),
			slog.String("outcome", string(done.Result.Outcome())),
			slog.Int("imported", done.Result.Imported),
			slog.Int("failed", done.Result.Failed),
		)
	}
	return nil
}

func (j *ClientImportJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *ClientImportJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
