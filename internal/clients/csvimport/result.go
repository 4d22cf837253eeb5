package csvimport

import "fmt"

// Outcome classifies a finished import.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

// FieldError records a custom field that could not be auto-created.
type FieldError struct {
	Header string `json:"header"`
	Error  string `json:"error"`
}

// BatchError records a batch whose client insert failed.
type BatchError struct {
	Batch int    `json:"batch"`
	Rows  int    `json:"rows"`
	Error string `json:"error"`
}

// Result aggregates the counters of one import run.
type Result struct {
	Imported    int          `json:"imported"`
	Failed      int          `json:"failed"`
	Dropped     int          `json:"dropped"`
	Skipped     int          `json:"skipped,omitempty"`
	Batches     int          `json:"batches"`
	BatchErrors []BatchError `json:"batch_errors,omitempty"`
	ValueErrors int          `json:"value_errors"`
	FieldErrors []FieldError `json:"field_errors,omitempty"`
	Canceled    bool         `json:"canceled,omitempty"`
}

// Outcome reports whether the run fully, partly or never succeeded. An
// interrupted run is never a success.
func (r Result) Outcome() Outcome {
	switch {
	case r.Imported > 0 && r.Failed == 0 && !r.Canceled:
		return OutcomeSuccess
	case r.Imported > 0:
		return OutcomePartial
	default:
		return OutcomeFailed
	}
}

// Message is the user-facing summary of the run.
func (r Result) Message() string {
	if r.Canceled {
		return fmt.Sprintf("Import întrerupt. %d clienți importați, %d erori, %d neprocesați.", r.Imported, r.Failed, r.Skipped)
	}
	switch r.Outcome() {
	case OutcomeSuccess:
		return fmt.Sprintf("%d clienți importați cu succes!", r.Imported)
	case OutcomePartial:
		return fmt.Sprintf("Import finalizat cu erori. %d clienți importați, %d erori.", r.Imported, r.Failed)
	default:
		return "Nu s-a putut importa niciun client. Verifică fișierul CSV."
	}
}
