package csvimport

import "strings"

// Target names a standard client column.
type Target string

const (
	TargetName  Target = "name"
	TargetEmail Target = "email"
	TargetPhone Target = "phone"
	TargetNotes Target = "notes"
)

// StandardTargets lists the standard columns in detection order.
var StandardTargets = []Target{TargetName, TargetEmail, TargetPhone, TargetNotes}

var targetKeywords = map[Target][]string{
	TargetName:  {"nume", "name"},
	TargetEmail: {"email"},
	TargetPhone: {"telefon", "phone"},
	TargetNotes: {"note", "observ"},
}

// StandardColumns holds header indexes for the standard targets; -1 means absent.
type StandardColumns struct {
	Name  int `json:"name"`
	Email int `json:"email"`
	Phone int `json:"phone"`
	Notes int `json:"notes"`
}

// Index returns the header index detected for t.
func (s StandardColumns) Index(t Target) int {
	switch t {
	case TargetName:
		return s.Name
	case TargetEmail:
		return s.Email
	case TargetPhone:
		return s.Phone
	case TargetNotes:
		return s.Notes
	}
	return -1
}

func (s *StandardColumns) set(t Target, i int) {
	switch t {
	case TargetName:
		s.Name = i
	case TargetEmail:
		s.Email = i
	case TargetPhone:
		s.Phone = i
	case TargetNotes:
		s.Notes = i
	}
}

// Consumed reports whether header i was taken by a standard target.
func (s StandardColumns) Consumed(i int) bool {
	return i >= 0 && (i == s.Name || i == s.Email || i == s.Phone || i == s.Notes)
}

// DetectStandard assigns each standard target the first unclaimed header
// containing one of its keywords. A header serves at most one target.
func DetectStandard(headers []string) StandardColumns {
	cols := StandardColumns{Name: -1, Email: -1, Phone: -1, Notes: -1}
	for _, target := range StandardTargets {
		for i, h := range headers {
			if cols.Consumed(i) || !containsAny(fold(h), targetKeywords[target]) {
				continue
			}
			cols.set(target, i)
			break
		}
	}
	return cols
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
