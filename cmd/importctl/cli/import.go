package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ai-secretary/ai-secretary/internal/clients/csvimport"
	"github.com/ai-secretary/ai-secretary/internal/customfields"
	"github.com/ai-secretary/ai-secretary/internal/shared"
)

// ErrImportFailed is returned when no client could be imported.
var ErrImportFailed = errors.New("import failed")

type importOptions struct {
	*RootOptions
	CompanyID string
	UserID    string
	DryRun    bool
}

// NewImportCommand imports a client file for one company.
func NewImportCommand(root *RootOptions) *cobra.Command {
	opts := &importOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import clients from a CSV or XLSX file",
		Long: `Parse the file, create missing custom fields and import the rows with
the proposed column mapping. With --dry-run the mapping and the fields that
would be created are printed and nothing is written.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			env, release, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			return runImport(cmd.Context(), cmd.OutOrStdout(), env.Imports, opts, filepath.Base(args[0]), content)
		},
	}

	cmd.Flags().StringVar(&opts.CompanyID, "company", "", "company id")
	cmd.Flags().StringVar(&opts.UserID, "user", "", "acting user id")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the proposed mapping without writing anything")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runImport(ctx context.Context, w io.Writer, imports Importer, opts *importOptions, filename string, content []byte) error {
	id := shared.Identity{UserID: opts.UserID, CompanyID: opts.CompanyID}
	if opts.DryRun {
		plan, err := imports.Plan(ctx, id, filename, content)
		if err != nil {
			return fmt.Errorf("plan: %w", err)
		}
		if opts.Format == "json" {
			return writeJSON(w, plan)
		}
		printPlan(w, plan)
		return plan.Report.Err()
	}

	draft, err := imports.Preview(ctx, id, filename, content)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	proposed, ok := draft.State.(csvimport.Mapping)
	if !ok {
		return fmt.Errorf("unexpected draft state %s", draft.State.Kind())
	}

	if proposed.Report.Blocking() {
		if err := printDraft(w, opts.Format, draft); err != nil {
			return err
		}
		if err := imports.Discard(ctx, id, draft.ID); err != nil {
			return fmt.Errorf("discard draft: %w", err)
		}
		return proposed.Report.Err()
	}

	draft, runErr := imports.Confirm(ctx, id, draft.ID, nil)
	if draft.State == nil {
		return fmt.Errorf("confirm: %w", runErr)
	}
	if err := printDraft(w, opts.Format, draft); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if done, ok := draft.State.(csvimport.Done); ok && done.Result.Outcome() == csvimport.OutcomeFailed {
		return ErrImportFailed
	}
	return nil
}

func printDraft(w io.Writer, format string, draft csvimport.Draft) error {
	if format == "json" {
		return writeJSON(w, map[string]any{
			"draft_id": draft.ID,
			"kind":     draft.State.Kind(),
			"state":    draft.State,
		})
	}
	switch s := draft.State.(type) {
	case csvimport.Mapping:
		printMapping(w, s)
	case csvimport.Importing:
		fmt.Fprintf(w, "draft %s queued (%d rows)\n", draft.ID, len(s.Table.Rows))
	case csvimport.Done:
		printResult(w, s.Result)
	default:
		fmt.Fprintf(w, "draft %s: %s\n", draft.ID, s.Kind())
	}
	return nil
}

func printPlan(w io.Writer, p csvimport.Plan) {
	names := fieldNames(p.Fields)
	fmt.Fprintf(w, "file: %s (%d rows, %d columns)\n", p.Filename, len(p.Table.Rows), len(p.Table.Headers))
	for _, pf := range p.Pending {
		fmt.Fprintf(w, "would create field: %s (text)\n", pf.Header)
	}
	printAssignments(w, p.Mapping, names)
	printReport(w, p.Report, names)
}

func printMapping(w io.Writer, m csvimport.Mapping) {
	names := fieldNames(m.Fields)

	fmt.Fprintf(w, "file: %s (%d rows, %d columns)\n", m.Filename, len(m.Table.Rows), len(m.Table.Headers))
	for _, f := range m.Created {
		fmt.Fprintf(w, "created field: %s (%s)\n", f.Name, f.Type)
	}
	for _, fe := range m.FieldErrors {
		fmt.Fprintf(w, "field error: %s: %s\n", fe.Header, fe.Error)
	}

	printAssignments(w, m.Mapping, names)
	printReport(w, m.Report, names)
}

func fieldNames(fields []customfields.Field) map[string]string {
	names := make(map[string]string, len(fields))
	for _, f := range fields {
		names[f.ID] = f.Name
	}
	return names
}

func printAssignments(w io.Writer, m csvimport.ColumnMapping, names map[string]string) {
	for _, k := range sortedKeys(m) {
		label := k
		if name, ok := names[k]; ok {
			label = name
		}
		source := m.Source(k)
		if source == "" {
			source = "-"
		}
		fmt.Fprintf(w, "  %-24s <- %s\n", label, source)
	}
}

func printReport(w io.Writer, r csvimport.MappingReport, names map[string]string) {
	for _, k := range sortedKeys(r.Problems) {
		fmt.Fprintf(w, "problem: %s: %s\n", k, r.Problems[k])
	}
	for _, fieldID := range r.MissingRequired {
		fmt.Fprintf(w, "warning: required field %s is not mapped\n", names[fieldID])
	}
}

func printResult(w io.Writer, res csvimport.Result) {
	fmt.Fprintln(w, res.Message())
	fmt.Fprintf(w, "imported=%d failed=%d dropped=%d skipped=%d batches=%d value_errors=%d\n",
		res.Imported, res.Failed, res.Dropped, res.Skipped, res.Batches, res.ValueErrors)
	for _, be := range res.BatchErrors {
		fmt.Fprintf(w, "batch %d (%d rows): %s\n", be.Batch, be.Rows, be.Error)
	}
	for _, fe := range res.FieldErrors {
		fmt.Fprintf(w, "field error: %s: %s\n", fe.Header, fe.Error)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
