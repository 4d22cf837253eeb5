package csvimport

import (
	"fmt"

	"github.com/ai-secretary/ai-secretary/internal/customfields"
	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
)

// Ignore marks a mapping target that reads from no column.
const Ignore = "_none"

// ColumnMapping maps standard targets and custom field ids to a header or Ignore.
type ColumnMapping map[string]string

// Source returns the header mapped to key, or "" when ignored or absent.
func (m ColumnMapping) Source(key string) string {
	if v, ok := m[key]; ok && v != Ignore {
		return v
	}
	return ""
}

// BuildMapping proposes a mapping over fields, which must already include the
// fields created during this import. created maps those field ids to their
// source header so they are not re-matched against other columns.
func BuildMapping(headers []string, std StandardColumns, fields []customfields.Field, created map[string]string) ColumnMapping {
	m := make(ColumnMapping, len(StandardTargets)+len(fields))
	for _, t := range StandardTargets {
		m[string(t)] = Ignore
		if i := std.Index(t); i >= 0 {
			m[string(t)] = headers[i]
		}
	}
	skip := func(i int) bool { return std.Consumed(i) || fold(headers[i]) == "" }
	for _, f := range fields {
		m[f.ID] = Ignore
		if header, ok := created[f.ID]; ok {
			m[f.ID] = header
			continue
		}
		if i := bestHeader(headers, f.Name, skip); i >= 0 {
			m[f.ID] = headers[i]
		}
	}
	return m
}

// MappingReport lists mapping problems. Problems block the import;
// MissingRequired only warns.
type MappingReport struct {
	Problems        map[string]string `json:"problems,omitempty"`
	MissingRequired []string          `json:"missing_required,omitempty"`
}

// Blocking reports whether the import must not start.
func (r MappingReport) Blocking() bool {
	return len(r.Problems) > 0
}

// Err returns a validation error when the report is blocking.
func (r MappingReport) Err() error {
	if !r.Blocking() {
		return nil
	}
	return &httpx.ValidationError{Fields: r.Problems}
}

// ValidateMapping checks a user-confirmed mapping. An unmapped name column
// blocks; required custom fields left unmapped are only reported.
func ValidateMapping(m ColumnMapping, headers []string, fields []customfields.Field) MappingReport {
	report := MappingReport{Problems: make(map[string]string)}
	known := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		known[h] = struct{}{}
	}
	targets := make(map[string]customfields.Field, len(fields))
	for _, f := range fields {
		targets[f.ID] = f
	}
	for _, t := range StandardTargets {
		targets[string(t)] = customfields.Field{}
	}

	for key, header := range m {
		if _, ok := targets[key]; !ok {
			report.Problems[key] = "unknown mapping target"
			continue
		}
		if header == Ignore || header == "" {
			continue
		}
		if _, ok := known[header]; !ok {
			report.Problems[key] = fmt.Sprintf("column %q is not in the file", header)
		}
	}
	if m.Source(string(TargetName)) == "" {
		report.Problems[string(TargetName)] = "name column must be mapped"
	}
	for _, f := range fields {
		if f.Required && m.Source(f.ID) == "" {
			report.MissingRequired = append(report.MissingRequired, f.ID)
		}
	}
	if len(report.Problems) == 0 {
		report.Problems = nil
	}
	return report
}
