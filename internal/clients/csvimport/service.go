package csvimport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ai-secretary/ai-secretary/internal/customfields"
	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
	"github.com/ai-secretary/ai-secretary/internal/shared"
)

// ErrNameColumnMissing rejects uploads without a name-like header.
var ErrNameColumnMissing = fmt.Errorf("%w: no column for the client name", httpx.ErrUnprocessable)

// ErrAlreadyConfirmed is returned when a draft is confirmed twice.
var ErrAlreadyConfirmed = fmt.Errorf("%w: import already confirmed", httpx.ErrDuplicate)

// IdempotencyModule scopes confirmation keys.
const IdempotencyModule = "clients.import"

// FieldRegistry is the part of the custom field registry the import needs.
type FieldRegistry interface {
	List(ctx context.Context, companyID string) ([]customfields.Field, error)
	Create(ctx context.Context, companyID string, req customfields.CreateFieldRequest) (customfields.Field, error)
}

// Drafts persists wizard drafts.
type Drafts interface {
	Save(ctx context.Context, d Draft) error
	Load(ctx context.Context, id string) (Draft, error)
	Delete(ctx context.Context, id string) error
}

// Enqueuer hands a confirmed draft to the background worker.
type Enqueuer interface {
	EnqueueImport(ctx context.Context, draftID string) error
}

// Claimer records that a key was processed. Release undoes a claim whose
// work never started.
type Claimer interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Release(ctx context.Context, key, module string) error
}

// Metrics receives import counters.
type Metrics interface {
	ObserveImport(outcome string, imported, failed, dropped int)
	ObserveFieldsCreated(n int)
}

// Options tune the service.
type Options struct {
	BatchSize int
	Async     bool
}

// Service drives the import wizard.
type Service struct {
	fields   FieldRegistry
	drafts   Drafts
	importer *Importer
	claims   Claimer
	audit    shared.AuditRecorder
	metrics  Metrics
	enqueuer Enqueuer
	async    bool
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the import service. audit and metrics may be nil.
func NewService(fields FieldRegistry, drafts Drafts, store Store, claims Claimer, audit shared.AuditRecorder, metrics Metrics, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fields:   fields,
		drafts:   drafts,
		importer: NewImporter(store, logger, opts.BatchSize),
		claims:   claims,
		audit:    audit,
		metrics:  metrics,
		async:    opts.Async,
		logger:   logger,
		now:      time.Now,
	}
}

// SetEnqueuer enables background execution of confirmed imports.
func (s *Service) SetEnqueuer(e Enqueuer) {
	s.enqueuer = e
}

// ParseUpload picks the parser from the file extension.
func ParseUpload(filename string, content []byte) (Table, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return ParseWorkbook(bytes.NewReader(content))
	}
	return Parse(string(content))
}

// Preview parses the upload, creates missing custom fields and stores the
// proposed mapping. Nothing is written when the file has no name column.
func (s *Service) Preview(ctx context.Context, id shared.Identity, filename string, content []byte) (Draft, error) {
	table, err := ParseUpload(filename, content)
	if err != nil {
		return Draft{}, fmt.Errorf("%w: %w", httpx.ErrValidation, err)
	}
	parsed, err := Accept(Idle{}, filename, table)
	if err != nil {
		return Draft{}, err
	}
	std := DetectStandard(table.Headers)
	if std.Name < 0 {
		return Draft{}, ErrNameColumnMissing
	}

	existing, err := s.fields.List(ctx, id.CompanyID)
	if err != nil {
		return Draft{}, fmt.Errorf("load custom fields: %w", err)
	}
	plan := ReconcileFields(table.Headers, std, existing)
	made, fieldErrors := s.createFields(ctx, id.CompanyID, plan.ToCreate)

	fields := append([]customfields.Field{}, existing...)
	created := make([]customfields.Field, 0, len(made))
	createdHeaders := make(map[string]string, len(made))
	for _, c := range made {
		fields = append(fields, c.field)
		created = append(created, c.field)
		createdHeaders[c.field.ID] = c.header
	}
	mapping, err := Propose(parsed, std, fields, created, fieldErrors, BuildMapping(table.Headers, std, fields, createdHeaders))
	if err != nil {
		return Draft{}, err
	}

	draft := Draft{ID: uuid.NewString(), CompanyID: id.CompanyID, UserID: id.UserID, State: mapping, UpdatedAt: s.now()}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return Draft{}, fmt.Errorf("save draft: %w", err)
	}
	s.logger.Info("import previewed",
		slog.String("company_id", id.CompanyID),
		slog.String("draft_id", draft.ID),
		slog.Int("rows", len(table.Rows)),
		slog.Int("fields_created", len(created)))
	return draft, nil
}

// Plan is a preview that writes nothing: the mapping over the existing
// fields plus the headers an import would turn into new fields.
type Plan struct {
	Filename string               `json:"filename"`
	Table    Table                `json:"-"`
	Standard StandardColumns      `json:"standard"`
	Fields   []customfields.Field `json:"fields"`
	Pending  []PlannedField       `json:"pending"`
	Mapping  ColumnMapping        `json:"mapping"`
	Report   MappingReport        `json:"report"`
}

// Plan runs the parse and reconcile steps of Preview without creating fields
// or storing a draft.
func (s *Service) Plan(ctx context.Context, id shared.Identity, filename string, content []byte) (Plan, error) {
	table, err := ParseUpload(filename, content)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %w", httpx.ErrValidation, err)
	}
	std := DetectStandard(table.Headers)
	if std.Name < 0 {
		return Plan{}, ErrNameColumnMissing
	}
	existing, err := s.fields.List(ctx, id.CompanyID)
	if err != nil {
		return Plan{}, fmt.Errorf("load custom fields: %w", err)
	}
	mapping := BuildMapping(table.Headers, std, existing, nil)
	return Plan{
		Filename: filename,
		Table:    table,
		Standard: std,
		Fields:   existing,
		Pending:  ReconcileFields(table.Headers, std, existing).ToCreate,
		Mapping:  mapping,
		Report:   ValidateMapping(mapping, table.Headers, existing),
	}, nil
}

type createdField struct {
	header string
	field  customfields.Field
}

// createFields creates planned fields one at a time. Failures are logged and skipped.
func (s *Service) createFields(ctx context.Context, companyID string, plan []PlannedField) ([]createdField, []FieldError) {
	var (
		created []createdField
		errs    []FieldError
	)
	for _, p := range plan {
		f, err := s.fields.Create(ctx, companyID, customfields.CreateFieldRequest{Name: p.Header, Type: customfields.TypeText})
		if err != nil {
			s.logger.Warn("auto-create custom field", slog.String("company_id", companyID), slog.String("header", p.Header), slog.Any("error", err))
			errs = append(errs, FieldError{Header: p.Header, Error: err.Error()})
			continue
		}
		created = append(created, createdField{header: p.Header, field: f})
	}
	if s.metrics != nil {
		s.metrics.ObserveFieldsCreated(len(created))
	}
	return created, errs
}

// Get returns the tenant's draft.
func (s *Service) Get(ctx context.Context, id shared.Identity, draftID string) (Draft, error) {
	draft, err := s.drafts.Load(ctx, draftID)
	if err != nil {
		return Draft{}, err
	}
	if draft.CompanyID != id.CompanyID {
		return Draft{}, ErrDraftNotFound
	}
	return draft, nil
}

// Confirm validates the user's mapping and starts the import, on the worker
// when one is configured and inline otherwise. A draft is confirmed at most
// once. An inline import is detached from ctx and runs to the end.
func (s *Service) Confirm(ctx context.Context, id shared.Identity, draftID string, m ColumnMapping) (Draft, error) {
	draft, err := s.Get(ctx, id, draftID)
	if err != nil {
		return Draft{}, err
	}
	importing, err := Confirm(draft.State, m, s.now())
	if err != nil {
		return Draft{}, err
	}
	if s.claims != nil {
		if err := s.claims.CheckAndInsert(ctx, draftID, IdempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return Draft{}, ErrAlreadyConfirmed
			}
			return Draft{}, fmt.Errorf("claim draft: %w", err)
		}
	}
	draft.State = importing
	draft.UpdatedAt = s.now()
	if err := s.drafts.Save(ctx, draft); err != nil {
		s.release(ctx, draftID)
		return Draft{}, fmt.Errorf("save draft: %w", err)
	}

	if s.async && s.enqueuer != nil {
		err := s.enqueuer.EnqueueImport(ctx, draftID)
		if err == nil {
			return draft, nil
		}
		s.logger.Warn("enqueue import, running inline", slog.String("draft_id", draftID), slog.Any("error", err))
	}
	return s.Run(context.WithoutCancel(ctx), draftID)
}

func (s *Service) release(ctx context.Context, draftID string) {
	if s.claims == nil {
		return
	}
	if err := s.claims.Release(context.WithoutCancel(ctx), draftID, IdempotencyModule); err != nil {
		s.logger.Error("release import claim", slog.String("draft_id", draftID), slog.Any("error", err))
	}
}

// Run executes a confirmed draft and stores the result. Rows written before
// a cancellation are kept.
func (s *Service) Run(ctx context.Context, draftID string) (Draft, error) {
	draft, err := s.drafts.Load(ctx, draftID)
	if err != nil {
		return Draft{}, err
	}
	importing, ok := draft.State.(Importing)
	if !ok {
		return draft, transitionError(draft.State, KindDone)
	}

	res, runErr := s.importer.Run(ctx, draft.CompanyID, importing.Table, importing.Mapping)
	done, err := Finish(importing, res, s.now())
	if err != nil {
		return draft, err
	}
	draft.State = done
	draft.UpdatedAt = s.now()

	persistCtx := context.WithoutCancel(ctx)
	if err := s.drafts.Save(persistCtx, draft); err != nil {
		return draft, fmt.Errorf("save draft: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveImport(string(res.Outcome()), res.Imported, res.Failed, res.Dropped)
	}
	s.record(persistCtx, draft, done.Result)
	s.logger.Info("import finished",
		slog.String("company_id", draft.CompanyID),
		slog.String("draft_id", draftID),
		slog.String("outcome", string(res.Outcome())),
		slog.Int("imported", res.Imported),
		slog.Int("failed", res.Failed),
		slog.Int("dropped", res.Dropped))
	if runErr != nil {
		return draft, fmt.Errorf("import interrupted: %w", runErr)
	}
	return draft, nil
}

// Discard drops a draft that is not currently importing.
func (s *Service) Discard(ctx context.Context, id shared.Identity, draftID string) error {
	draft, err := s.Get(ctx, id, draftID)
	if err != nil {
		return err
	}
	if draft.State.Kind() == KindImporting {
		return fmt.Errorf("%w: import is running", ErrInvalidTransition)
	}
	return s.drafts.Delete(ctx, draftID)
}

func (s *Service) record(ctx context.Context, draft Draft, res Result) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		CompanyID: draft.CompanyID,
		ActorID:   draft.UserID,
		Action:    "clients.imported",
		Entity:    "client_import",
		EntityID:  draft.ID,
		Meta: map[string]any{
			"outcome":  res.Outcome(),
			"imported": res.Imported,
			"failed":   res.Failed,
			"dropped":  res.Dropped,
			"skipped":  res.Skipped,
		},
	})
	if err != nil {
		s.logger.Warn("audit import", slog.String("draft_id", draft.ID), slog.Any("error", err))
	}
}
