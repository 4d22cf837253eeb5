package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/ai-secretary/ai-secretary/internal/clients/csvimport"
	"github.com/ai-secretary/ai-secretary/internal/customfields"
	"github.com/ai-secretary/ai-secretary/internal/shared"
)

// Importer drives the import wizard without the HTTP layer.
type Importer interface {
	Plan(ctx context.Context, id shared.Identity, filename string, content []byte) (csvimport.Plan, error)
	Preview(ctx context.Context, id shared.Identity, filename string, content []byte) (csvimport.Draft, error)
	Confirm(ctx context.Context, id shared.Identity, draftID string, m csvimport.ColumnMapping) (csvimport.Draft, error)
	Discard(ctx context.Context, id shared.Identity, draftID string) error
}

// FieldLister lists the custom fields of a company.
type FieldLister interface {
	List(ctx context.Context, companyID string) ([]customfields.Field, error)
}

// JobRunner triggers and inspects background jobs.
type JobRunner interface {
	Trigger(ctx context.Context, name string, args []string) (*asynq.TaskInfo, error)
	InspectQueues(ctx context.Context) ([]QueueStats, error)
}

// Env is what a command runs against. Unused members may be nil.
type Env struct {
	Imports Importer
	Fields  FieldLister
	Jobs    JobRunner
}

// Connector opens an Env. The returned func releases it.
type Connector func(ctx context.Context) (*Env, func(), error)

// RootOptions holds global flags and the environment factory.
type RootOptions struct {
	Format  string
	Connect Connector
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the importctl root command.
func NewRootCommand(connect Connector) *cobra.Command {
	opts := &RootOptions{Connect: connect}

	cmd := &cobra.Command{
		Use:   "importctl",
		Short: "Operate the AI Secretary client import",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewTemplateCommand(opts))
	cmd.AddCommand(NewJobsCommand(opts))
	return cmd
}

func (o *RootOptions) open(ctx context.Context) (*Env, func(), error) {
	if o.Connect == nil {
		return nil, nil, errors.New("no environment configured")
	}
	return o.Connect(ctx)
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
