package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ai-secretary/ai-secretary/internal/platform/db"
)

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	CompanyID string
	ActorID   string
	Action    string
	Entity    string
	EntityID  string
	Meta      map[string]any
	At        time.Time
}

// AuditRecorder is implemented by AuditLogger and by test doubles.
type AuditRecorder interface {
	Record(ctx context.Context, log AuditLog) error
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	db db.DBTX
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(conn db.DBTX) *AuditLogger {
	return &AuditLogger{db: conn}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err = l.db.Exec(ctx, `INSERT INTO audit_logs (company_id, actor_id, action, entity, entity_id, meta, occurred_at)
		VALUES ($1::uuid, NULLIF($2, '')::uuid, $3, $4, $5, $6, COALESCE($7, NOW()))`,
		log.CompanyID, log.ActorID, log.Action, log.Entity, log.EntityID, metaJSON, at)
	return err
}

var _ AuditRecorder = (*AuditLogger)(nil)
