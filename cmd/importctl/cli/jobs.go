package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/ai-secretary/ai-secretary/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers for the given Redis.
func NewJobsCLI(opt asynq.RedisClientOpt) *JobsCLI {
	return &JobsCLI{client: asynq.NewClient(opt), inspector: asynq.NewInspector(opt)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Trigger enqueues a supported job by name.
func (c *JobsCLI) Trigger(ctx context.Context, name string, args []string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	task, opts, err := buildTask(name, args)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, opts...)
}

func buildTask(name string, args []string) (*asynq.Task, []asynq.Option, error) {
	switch name {
	case jobs.TaskIdempotencyCleanup:
		return jobs.NewIdempotencyCleanupTask(), []asynq.Option{asynq.MaxRetry(3)}, nil
	case jobs.TaskClientImport:
		if len(args) != 1 {
			return nil, nil, fmt.Errorf("jobs cli: %s needs a draft id", name)
		}
		task, err := jobs.NewClientImportTask(args[0])
		return task, nil, err
	case jobs.TaskTypeSendEmail:
		if len(args) != 3 {
			return nil, nil, fmt.Errorf("jobs cli: %s needs <to> <subject> <body>", name)
		}
		task, err := jobs.NewSendEmailTask(jobs.SendEmailPayload{To: args[0], Subject: args[1], Body: args[2]})
		return task, nil, err
	default:
		return nil, nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
}

// InspectQueues reports the state of the default and import queues. A queue
// that never received a task reports zeros.
func (c *JobsCLI) InspectQueues(ctx context.Context) ([]QueueStats, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	out := make([]QueueStats, 0, 2)
	for _, queue := range []string{jobs.QueueDefault, jobs.QueueImports} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stats := QueueStats{Queue: queue}
		info, err := c.inspector.GetQueueInfo(queue)
		switch {
		case errors.Is(err, asynq.ErrQueueNotFound):
		case err != nil:
			return nil, fmt.Errorf("inspect %s: %w", queue, err)
		case info != nil:
			stats.Pending = info.Pending
			stats.Active = info.Active
			stats.Scheduled = info.Scheduled
			stats.Retry = info.Retry
			stats.Archived = info.Archived
		}
		out = append(out, stats)
	}
	return out, nil
}

// NewJobsCommand groups the job helpers.
func NewJobsCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Trigger and inspect background jobs",
	}
	cmd.AddCommand(newJobsTriggerCommand(root))
	cmd.AddCommand(newJobsInspectCommand(root))
	return cmd
}

func newJobsTriggerCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <task> [args...]",
		Short: "Enqueue a job",
		Long: fmt.Sprintf(`Enqueue one of:
  %s
  %s <draft-id>
  %s <to> <subject> <body>`, jobs.TaskIdempotencyCleanup, jobs.TaskClientImport, jobs.TaskTypeSendEmail),
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, release, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			info, err := env.Jobs.Trigger(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}
			return printTaskInfo(cmd.OutOrStdout(), root.Format, info)
		},
	}
}

func newJobsInspectCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "inspect",
		Short:        "Show queue sizes",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, release, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			stats, err := env.Jobs.InspectQueues(cmd.Context())
			if err != nil {
				return err
			}
			return printQueueStats(cmd.OutOrStdout(), root.Format, stats)
		},
	}
}

func printTaskInfo(w io.Writer, format string, info *asynq.TaskInfo) error {
	if info == nil {
		return nil
	}
	if format == "json" {
		return writeJSON(w, map[string]string{"id": info.ID, "queue": info.Queue, "type": info.Type})
	}
	_, err := fmt.Fprintf(w, "enqueued %s on %s (id %s)\n", info.Type, info.Queue, info.ID)
	return err
}

func printQueueStats(w io.Writer, format string, stats []QueueStats) error {
	if format == "json" {
		return writeJSON(w, stats)
	}
	for _, s := range stats {
		if _, err := fmt.Fprintf(w, "%-8s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
			s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived); err != nil {
			return err
		}
	}
	return nil
}
