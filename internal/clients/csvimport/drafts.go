package csvimport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ai-secretary/ai-secretary/internal/platform/httpx"
)

// ErrDraftNotFound is returned for unknown or expired drafts.
var ErrDraftNotFound = fmt.Errorf("%w: import draft", httpx.ErrNotFound)

// Draft is a tenant's import wizard persisted between requests.
type Draft struct {
	ID        string
	CompanyID string
	UserID    string
	State     State
	UpdatedAt time.Time
}

type draftRecord struct {
	ID        string          `json:"id"`
	CompanyID string          `json:"company_id"`
	UserID    string          `json:"user_id"`
	State     json.RawMessage `json:"state"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MarshalJSON encodes the draft with its state behind a kind discriminator.
func (d Draft) MarshalJSON() ([]byte, error) {
	state, err := marshalState(d.State)
	if err != nil {
		return nil, err
	}
	return json.Marshal(draftRecord{ID: d.ID, CompanyID: d.CompanyID, UserID: d.UserID, State: state, UpdatedAt: d.UpdatedAt})
}

// UnmarshalJSON decodes a draft written by MarshalJSON.
func (d *Draft) UnmarshalJSON(data []byte) error {
	var rec draftRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	state, err := unmarshalState(rec.State)
	if err != nil {
		return err
	}
	*d = Draft{ID: rec.ID, CompanyID: rec.CompanyID, UserID: rec.UserID, State: state, UpdatedAt: rec.UpdatedAt}
	return nil
}

// DraftStore keeps drafts in redis with a sliding TTL.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftStore constructs a DraftStore.
func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &DraftStore{client: client, ttl: ttl}
}

// Save writes the draft and refreshes its TTL.
func (s *DraftStore) Save(ctx context.Context, d Draft) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return s.client.Set(ctx, draftKey(d.ID), payload, s.ttl).Err()
}

// Load returns the draft with the given id.
func (s *DraftStore) Load(ctx context.Context, id string) (Draft, error) {
	payload, err := s.client.Get(ctx, draftKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Draft{}, ErrDraftNotFound
		}
		return Draft{}, err
	}
	var d Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		return Draft{}, fmt.Errorf("decode draft %s: %w", id, err)
	}
	return d, nil
}

// Delete removes the draft.
func (s *DraftStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, draftKey(id)).Err()
}

func draftKey(id string) string {
	return "import:draft:" + id
}
