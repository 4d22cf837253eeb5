package jobs

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueImports runs confirmed client imports.
	QueueImports = "imports"

	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskClientImport runs a confirmed import draft.
	TaskClientImport = "clients:import"
	// TaskIdempotencyCleanup prunes old idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency-cleanup"
)

var errEmptyRecipient = errors.New("mail recipient is required")

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ClientImportPayload names the draft to import.
type ClientImportPayload struct {
	DraftID string `json:"draft_id"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	if strings.TrimSpace(payload.To) == "" {
		return nil, errEmptyRecipient
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewClientImportTask constructs the import task. It is never retried and at
// most one task exists per draft.
func NewClientImportTask(draftID string) (*asynq.Task, error) {
	if draftID == "" {
		return nil, errors.New("draft id is required")
	}
	data, err := json.Marshal(ClientImportPayload{DraftID: draftID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskClientImport, data,
		asynq.Queue(QueueImports),
		asynq.MaxRetry(0),
		asynq.TaskID("import:"+draftID),
	), nil
}

// NewIdempotencyCleanupTask constructs the maintenance task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil, asynq.Queue(QueueDefault))
}
