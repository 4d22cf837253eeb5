package customfields

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidValue is returned when a raw value does not fit its field type.
var ErrInvalidValue = errors.New("invalid custom field value")

// Value is a typed custom field value. All values persist as text.
type Value interface {
	// Kind returns the field type the value belongs to.
	Kind() FieldType
	// String renders the stored text form.
	String() string
	sealed()
}

type (
	TextValue    string
	NumberValue  float64
	DateValue    time.Time
	BooleanValue bool
	SelectValue  string
)

func (TextValue) Kind() FieldType    { return TypeText }
func (NumberValue) Kind() FieldType  { return TypeNumber }
func (DateValue) Kind() FieldType    { return TypeDate }
func (BooleanValue) Kind() FieldType { return TypeBoolean }
func (SelectValue) Kind() FieldType  { return TypeSelect }

func (v TextValue) String() string   { return string(v) }
func (v NumberValue) String() string { return strconv.FormatFloat(float64(v), 'f', -1, 64) }
func (v DateValue) String() string   { return time.Time(v).Format(dateLayout) }
func (v SelectValue) String() string { return string(v) }
func (v BooleanValue) String() string {
	if v {
		return "true"
	}
	return "false"
}

func (TextValue) sealed()    {}
func (NumberValue) sealed()  {}
func (DateValue) sealed()    {}
func (BooleanValue) sealed() {}
func (SelectValue) sealed()  {}

const dateLayout = "2006-01-02"

var dateLayouts = []string{dateLayout, "02.01.2006", "02/01/2006", time.RFC3339}

// ParseValue interprets raw text according to the field's type.
func ParseValue(f Field, raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	switch f.Type {
	case TypeText:
		return TextValue(raw), nil
	case TypeNumber:
		n, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, raw)
		}
		return NumberValue(n), nil
	case TypeDate:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return DateValue(t), nil
			}
		}
		return nil, fmt.Errorf("%w: %q is not a date", ErrInvalidValue, raw)
	case TypeBoolean:
		switch strings.ToLower(raw) {
		case "true", "1", "da", "yes":
			return BooleanValue(true), nil
		case "false", "0", "nu", "no":
			return BooleanValue(false), nil
		}
		return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, raw)
	case TypeSelect:
		for _, opt := range f.Options {
			if strings.EqualFold(opt, raw) {
				return SelectValue(opt), nil
			}
		}
		return nil, fmt.Errorf("%w: %q is not an option of %s", ErrInvalidValue, raw, f.Name)
	}
	return nil, fmt.Errorf("%w: unknown field type %q", ErrInvalidValue, f.Type)
}
