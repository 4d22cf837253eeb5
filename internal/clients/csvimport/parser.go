// Package csvimport reconciles uploaded client spreadsheets with the custom
// field registry and imports the rows in bounded batches.
package csvimport

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrEmptyFile = errors.New("csv file is empty")
	ErrNoColumns = errors.New("csv header has no columns")
)

// Table is a parsed upload. Every row has exactly len(Headers) cells.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

var lineBreak = regexp.MustCompile(`\r?\n`)

// Parse reads delimited text: blank lines are discarded, the first remaining
// line is the header row.
func Parse(text string) (Table, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	var lines []string
	for _, line := range lineBreak.Split(text, -1) {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return Table{}, ErrEmptyFile
	}
	records := make([][]string, 0, len(lines))
	for _, line := range lines {
		records = append(records, splitLine(line))
	}
	return newTable(records)
}

// splitLine tokenizes a single line. A double quote toggles quoting and is
// not part of the value; commas inside quotes are kept.
func splitLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)
	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	return append(fields, strings.TrimSpace(current.String()))
}

func newTable(records [][]string) (Table, error) {
	headers := records[0]
	if !hasColumns(headers) {
		return Table{}, ErrNoColumns
	}
	rows := make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, fitRow(record, len(headers)))
	}
	return Table{Headers: headers, Rows: rows}, nil
}

func hasColumns(headers []string) bool {
	for _, h := range headers {
		if h != "" {
			return true
		}
	}
	return false
}

// fitRow pads short rows with empty cells and cuts cells past the header width.
func fitRow(record []string, width int) []string {
	row := make([]string, width)
	copy(row, record)
	return row
}

// cell returns the value at index i, or "" when the index is out of range.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Preview returns at most n data rows.
func (t Table) Preview(n int) [][]string {
	if len(t.Rows) <= n {
		return t.Rows
	}
	return t.Rows[:n]
}
