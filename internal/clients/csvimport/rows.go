package csvimport

import "strings"

// ClientRow is one prepared client ready for insertion.
type ClientRow struct {
	Ref       string
	Line      int
	FirstName string
	LastName  string
	Email     *string
	Phone     *string
	Notes     *string
	// Values holds non-empty custom values keyed by field id.
	Values map[string]string
}

// splitName puts the first whitespace-separated token in first and the rest in last.
func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

// Batch is a slice of prepared rows inserted as one unit.
type Batch struct {
	Number int
	Rows   []ClientRow
}

// PrepareBatches chunks the table rows by size and transforms each chunk.
// Rows without a name are dropped and counted; chunks left empty are skipped.
func PrepareBatches(t Table, m ColumnMapping, size int, newRef func() string) (batches []Batch, dropped int) {
	if size < 1 {
		size = 1
	}
	index := headerIndex(t.Headers)
	column := func(key string) int {
		if h := m.Source(key); h != "" {
			if i, ok := index[h]; ok {
				return i
			}
		}
		return -1
	}
	nameCol := column(string(TargetName))
	emailCol := column(string(TargetEmail))
	phoneCol := column(string(TargetPhone))
	notesCol := column(string(TargetNotes))
	custom := make(map[string]int)
	for key := range m {
		if isStandard(key) {
			continue
		}
		if i := column(key); i >= 0 {
			custom[key] = i
		}
	}

	for start := 0; start < len(t.Rows); start += size {
		end := min(start+size, len(t.Rows))
		batch := Batch{Number: start/size + 1}
		for offset, raw := range t.Rows[start:end] {
			first, last := splitName(cell(raw, nameCol))
			if first == "" && last == "" {
				dropped++
				continue
			}
			row := ClientRow{
				Ref:       newRef(),
				Line:      start + offset + 1,
				FirstName: first,
				LastName:  last,
				Email:     optional(cell(raw, emailCol)),
				Phone:     optional(cell(raw, phoneCol)),
				Notes:     optional(cell(raw, notesCol)),
				Values:    make(map[string]string),
			}
			for fieldID, i := range custom {
				if v := strings.TrimSpace(cell(raw, i)); v != "" {
					row.Values[fieldID] = v
				}
			}
			batch.Rows = append(batch.Rows, row)
		}
		if len(batch.Rows) > 0 {
			batches = append(batches, batch)
		}
	}
	return batches, dropped
}

// headerIndex maps each header to its first position.
func headerIndex(headers []string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, ok := index[h]; !ok {
			index[h] = i
		}
	}
	return index
}

func isStandard(key string) bool {
	for _, t := range StandardTargets {
		if string(t) == key {
			return true
		}
	}
	return false
}
