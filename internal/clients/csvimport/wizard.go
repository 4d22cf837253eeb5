package csvimport

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ai-secretary/ai-secretary/internal/customfields"
	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
)

// ErrInvalidTransition is returned when a wizard step is applied to the wrong state.
var ErrInvalidTransition = fmt.Errorf("%w: invalid import wizard transition", httpx.ErrUnprocessable)

// StateKind discriminates wizard states.
type StateKind string

const (
	KindIdle      StateKind = "idle"
	KindParsed    StateKind = "parsed"
	KindMapping   StateKind = "mapping"
	KindImporting StateKind = "importing"
	KindDone      StateKind = "done"
)

// State is one step of the import wizard. The set of implementations is closed.
type State interface {
	Kind() StateKind
	state()
}

// Idle is the state before any file was accepted.
type Idle struct{}

// Parsed holds a successfully parsed upload.
type Parsed struct {
	Filename string `json:"filename"`
	Table    Table  `json:"table"`
}

// Mapping holds the proposed mapping awaiting confirmation.
type Mapping struct {
	Filename    string               `json:"filename"`
	Table       Table                `json:"table"`
	Standard    StandardColumns      `json:"standard"`
	Fields      []customfields.Field `json:"fields"`
	Created     []customfields.Field `json:"created"`
	FieldErrors []FieldError         `json:"field_errors,omitempty"`
	Mapping     ColumnMapping        `json:"mapping"`
	Report      MappingReport        `json:"report"`
}

// Importing holds a confirmed mapping while the rows are written.
type Importing struct {
	Filename    string               `json:"filename"`
	Table       Table                `json:"table"`
	Fields      []customfields.Field `json:"fields"`
	Mapping     ColumnMapping        `json:"mapping"`
	FieldErrors []FieldError         `json:"field_errors,omitempty"`
	StartedAt   time.Time            `json:"started_at"`
}

// Done holds the final result.
type Done struct {
	Filename   string    `json:"filename"`
	Result     Result    `json:"result"`
	FinishedAt time.Time `json:"finished_at"`
}

func (Idle) Kind() StateKind      { return KindIdle }
func (Parsed) Kind() StateKind    { return KindParsed }
func (Mapping) Kind() StateKind   { return KindMapping }
func (Importing) Kind() StateKind { return KindImporting }
func (Done) Kind() StateKind      { return KindDone }

func (Idle) state()      {}
func (Parsed) state()    {}
func (Mapping) state()   {}
func (Importing) state() {}
func (Done) state()      {}

// Accept moves Idle to Parsed.
func Accept(s State, filename string, t Table) (Parsed, error) {
	if _, ok := s.(Idle); !ok {
		return Parsed{}, transitionError(s, KindParsed)
	}
	return Parsed{Filename: filename, Table: t}, nil
}

// Propose moves Parsed to Mapping.
func Propose(s State, std StandardColumns, fields, created []customfields.Field, fieldErrors []FieldError, m ColumnMapping) (Mapping, error) {
	p, ok := s.(Parsed)
	if !ok {
		return Mapping{}, transitionError(s, KindMapping)
	}
	return Mapping{
		Filename:    p.Filename,
		Table:       p.Table,
		Standard:    std,
		Fields:      fields,
		Created:     created,
		FieldErrors: fieldErrors,
		Mapping:     m,
		Report:      ValidateMapping(m, p.Table.Headers, fields),
	}, nil
}

// Confirm moves Mapping to Importing with the user's mapping. A nil mapping
// keeps the proposed one. The mapping must not be blocking.
func Confirm(s State, m ColumnMapping, now time.Time) (Importing, error) {
	mp, ok := s.(Mapping)
	if !ok {
		return Importing{}, transitionError(s, KindImporting)
	}
	if m == nil {
		m = mp.Mapping
	}
	if err := ValidateMapping(m, mp.Table.Headers, mp.Fields).Err(); err != nil {
		return Importing{}, err
	}
	return Importing{
		Filename:    mp.Filename,
		Table:       mp.Table,
		Fields:      mp.Fields,
		Mapping:     m,
		FieldErrors: mp.FieldErrors,
		StartedAt:   now,
	}, nil
}

// Finish moves Importing to Done.
func Finish(s State, res Result, now time.Time) (Done, error) {
	im, ok := s.(Importing)
	if !ok {
		return Done{}, transitionError(s, KindDone)
	}
	res.FieldErrors = append(res.FieldErrors, im.FieldErrors...)
	return Done{Filename: im.Filename, Result: res, FinishedAt: now}, nil
}

func transitionError(s State, to StateKind) error {
	from := StateKind("none")
	if s != nil {
		from = s.Kind()
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

type stateEnvelope struct {
	Kind  StateKind       `json:"kind"`
	State json.RawMessage `json:"state,omitempty"`
}

func marshalState(s State) ([]byte, error) {
	if s == nil {
		s = Idle{}
	}
	body, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(stateEnvelope{Kind: s.Kind(), State: body})
}

func unmarshalState(data []byte) (State, error) {
	var env stateEnvelope
	err := json.Unmarshal(data, &env)
	if err != nil {
		return nil, err
	}
	var s State
	switch env.Kind {
	case KindIdle:
		return Idle{}, nil
	case KindParsed:
		var p Parsed
		err = decodeState(env.State, &p)
		s = p
	case KindMapping:
		var m Mapping
		err = decodeState(env.State, &m)
		s = m
	case KindImporting:
		var im Importing
		err = decodeState(env.State, &im)
		s = im
	case KindDone:
		var d Done
		err = decodeState(env.State, &d)
		s = d
	default:
		return nil, fmt.Errorf("unknown wizard state %q", env.Kind)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func decodeState(raw json.RawMessage, target any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, target)
}
