package clients

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ai-secretary/ai-secretary/internal/customfields"
)

const exportSheet = "Clienti"

var exportHeaders = []string{"Prenume", "Nume", "Email", "Telefon", "Observatii", "Ultima programare"}

// WriteWorkbook writes clients as a single-sheet workbook with one column
// per custom field after the standard columns.
func WriteWorkbook(w io.Writer, fields []customfields.Field, clients []Client) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	headers := append([]string{}, exportHeaders...)
	for _, field := range fields {
		headers = append(headers, field.Name)
	}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return err
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		width := 18.0
		if col == 4 {
			width = 40
		}
		if err := f.SetColWidth(exportSheet, name, name, width); err != nil {
			return err
		}
	}

	for i, c := range clients {
		row := i + 2
		values := []any{c.FirstName, c.LastName, deref(c.Email), deref(c.Phone), deref(c.Notes), ""}
		if c.LastAppointment != nil {
			values[5] = c.LastAppointment.Format("2006-01-02 15:04")
		}
		for _, field := range fields {
			values = append(values, c.CustomValues[field.ID])
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
