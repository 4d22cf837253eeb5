package csvimport

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ai-secretary/ai-secretary/internal/customfields"
	"github.com/ai-secretary/ai-secretary/web"
)

const templateSheet = "Clienti"

var templateHeaders = []string{"Nume Complet", "Email", "Telefon", "Observatii"}

// TemplateCSV returns the static CSV template.
func TemplateCSV() ([]byte, error) {
	return web.ImportTemplate()
}

// TemplateXLSX builds a workbook template with the standard columns followed
// by the company's custom fields. Select fields get a drop-down list.
func TemplateXLSX(fields []customfields.Field) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return nil, err
	}

	header := make([]any, 0, len(templateHeaders)+len(fields))
	for _, h := range templateHeaders {
		header = append(header, h)
	}
	for _, field := range fields {
		header = append(header, field.Name)
	}
	if err := f.SetSheetRow(templateSheet, "A1", &header); err != nil {
		return nil, err
	}
	sample := []any{"Ion Popescu", "ion.popescu@example.com", "0722123456", ""}
	if err := f.SetSheetRow(templateSheet, "A2", &sample); err != nil {
		return nil, err
	}

	for i, field := range fields {
		if field.Type != customfields.TypeSelect || len(field.Options) == 0 {
			continue
		}
		col, err := excelize.ColumnNumberToName(len(templateHeaders) + i + 1)
		if err != nil {
			return nil, err
		}
		dv := excelize.NewDataValidation(true)
		dv.Sqref = fmt.Sprintf("%s2:%s1000", col, col)
		if err := dv.SetDropList(field.Options); err != nil {
			// Options too long for an inline list; leave the column free-form.
			continue
		}
		if err := f.AddDataValidation(templateSheet, dv); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
