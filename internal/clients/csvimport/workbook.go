package csvimport

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseWorkbook reads the first sheet of an XLSX upload with the same rules as Parse.
func ParseWorkbook(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, ErrEmptyFile
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	var records [][]string
	for _, cells := range raw {
		record := make([]string, len(cells))
		blank := true
		for i, c := range cells {
			record[i] = strings.TrimSpace(c)
			if record[i] != "" {
				blank = false
			}
		}
		if !blank {
			records = append(records, record)
		}
	}
	if len(records) == 0 {
		return Table{}, ErrEmptyFile
	}
	return newTable(records)
}
