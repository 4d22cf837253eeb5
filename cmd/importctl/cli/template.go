package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ai-secretary/ai-secretary/internal/clients/csvimport"
)

type templateOptions struct {
	*RootOptions
	Kind      string
	CompanyID string
	Output    string
}

// NewTemplateCommand writes the import template.
func NewTemplateCommand(root *RootOptions) *cobra.Command {
	opts := &templateOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the client import template",
		Long: `Write the static CSV template, or an XLSX workbook that also carries
the company's custom fields.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if opts.Output != "" && opts.Output != "-" {
				f, err := os.Create(opts.Output)
				if err != nil {
					return fmt.Errorf("create %s: %w", opts.Output, err)
				}
				defer f.Close()
				out = f
			}
			return writeTemplate(cmd.Context(), out, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "csv", "template kind (csv|xlsx)")
	cmd.Flags().StringVar(&opts.CompanyID, "company", "", "company id, required for xlsx")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "-", "output file")
	return cmd
}

func writeTemplate(ctx context.Context, w io.Writer, opts *templateOptions) error {
	var (
		body []byte
		err  error
	)
	switch opts.Kind {
	case "csv":
		body, err = csvimport.TemplateCSV()
	case "xlsx":
		if opts.CompanyID == "" {
			return errors.New("--company is required for xlsx templates")
		}
		env, release, openErr := opts.open(ctx)
		if openErr != nil {
			return openErr
		}
		defer release()
		fields, listErr := env.Fields.List(ctx, opts.CompanyID)
		if listErr != nil {
			return fmt.Errorf("list fields: %w", listErr)
		}
		body, err = csvimport.TemplateXLSX(fields)
	default:
		return fmt.Errorf("invalid kind %q: must be csv or xlsx", opts.Kind)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}
