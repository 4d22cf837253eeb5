// Package customfields manages tenant-defined client attributes.
package customfields

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
)

// FieldType tags the kind of value a custom field holds.
type FieldType string

const (
	TypeText    FieldType = "text"
	TypeNumber  FieldType = "number"
	TypeDate    FieldType = "date"
	TypeBoolean FieldType = "boolean"
	TypeSelect  FieldType = "select"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeDate, TypeBoolean, TypeSelect:
		return true
	}
	return false
}

// ErrFieldNotFound is returned when a field does not exist for the tenant.
var ErrFieldNotFound = fmt.Errorf("%w: custom field", httpx.ErrNotFound)

// Field is a custom field definition owned by a company.
type Field struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"company_id"`
	Name         string    `json:"field_name"`
	Type         FieldType `json:"field_type"`
	Options      []string  `json:"field_options"`
	Required     bool      `json:"is_required"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateFieldRequest is the payload accepted by the creation endpoint.
type CreateFieldRequest struct {
	Name     string     `json:"fieldName" validate:"required,max=100"`
	Type     FieldType  `json:"fieldType" validate:"required,oneof=text number date boolean select"`
	Options  OptionList `json:"fieldOptions"`
	Required bool       `json:"isRequired"`
}

// OptionList decodes select options from a JSON array or a comma-separated string.
type OptionList []string

func (o *OptionList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*o = nil
		return nil
	}
	var list []string
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
	} else {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("fieldOptions must be an array or a string: %w", err)
		}
		list = strings.Split(raw, ",")
	}
	*o = cleanOptions(list)
	return nil
}

func cleanOptions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, opt := range in {
		if opt = strings.TrimSpace(opt); opt != "" {
			out = append(out, opt)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
