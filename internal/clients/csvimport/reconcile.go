package csvimport

import "github.com/ai-secretary/ai-secretary/internal/customfields"

// PlannedField is a custom field to create from an unmatched header.
type PlannedField struct {
	Header string `json:"header"`
	Index  int    `json:"index"`
}

// Reconciliation is the outcome of comparing headers with existing fields.
type Reconciliation struct {
	ToCreate []PlannedField `json:"to_create"`
	// Matched maps existing field ids to the header index they read from.
	Matched map[string]int `json:"matched"`
}

// ReconcileFields decides which headers need a new custom field. Headers
// consumed by standard targets and blank headers are never considered.
func ReconcileFields(headers []string, std StandardColumns, existing []customfields.Field) Reconciliation {
	rec := Reconciliation{Matched: make(map[string]int)}
	skip := func(i int) bool { return std.Consumed(i) || fold(headers[i]) == "" }

	for _, f := range existing {
		if i := bestHeader(headers, f.Name, skip); i >= 0 {
			rec.Matched[f.ID] = i
		}
	}

	planned := make(map[string]struct{})
	for i, h := range headers {
		if skip(i) || matchesAny(h, existing) {
			continue
		}
		key := compact(h)
		if _, dup := planned[key]; dup {
			continue
		}
		planned[key] = struct{}{}
		rec.ToCreate = append(rec.ToCreate, PlannedField{Header: h, Index: i})
	}
	return rec
}

func matchesAny(header string, fields []customfields.Field) bool {
	for _, f := range fields {
		if matchHeader(header, f.Name) != noMatch {
			return true
		}
	}
	return false
}
