package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/draftwire/draftwire/internal/domain"
)

const (
	callbackKeyPrefix = "callback:"

	// CallbackTTL is the maximum lifetime of a callback entry. Delivery
	// backoff can stretch over hours, so callbacks live longer than
	// tasks, but never past a day.
	CallbackTTL = 24 * time.Hour
)

// CallbackStore persists domain.Callback entries in a KeyValue store
// with JSON encoding and a bounded lifetime.
type CallbackStore struct {
	kv KeyValue
}

// NewCallbackStore creates a CallbackStore backed by the given
// KeyValue store.
func NewCallbackStore(kv KeyValue) *CallbackStore {
	return &CallbackStore{kv: kv}
}

// Save persists the callback, resetting its TTL.
func (s *CallbackStore) Save(ctx context.Context, cb *domain.Callback) error {
	if err := cb.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
	}

	data, err := json.Marshal(cb)
	if err != nil {
		return fmt.Errorf("marshal callback %s: %w", cb.ID, err)
	}

	if err := s.kv.Set(ctx, callbackKeyPrefix+cb.ID.String(), data, CallbackTTL); err != nil {
		return fmt.Errorf("save callback %s: %w", cb.ID, err)
	}
	return nil
}

// Get loads a callback by ID. Returns ErrCallbackNotFound if the entry
// is missing or expired.
func (s *CallbackStore) Get(ctx context.Context, id uuid.UUID) (*domain.Callback, error) {
	data, err := s.kv.Get(ctx, callbackKeyPrefix+id.String())
	if err != nil {
		if IsNotFoundError(err) {
			return nil, ErrCallbackNotFound
		}
		return nil, fmt.Errorf("get callback %s: %w", id, err)
	}

	var cb domain.Callback
	if err := json.Unmarshal(data, &cb); err != nil {
		return nil, fmt.Errorf("%w: decode callback %s: %w", ErrInvalidEntry, id, err)
	}
	return &cb, nil
}

// Delete removes a callback entry. Deleting a missing callback is not
// an error.
func (s *CallbackStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.kv.Delete(ctx, callbackKeyPrefix+id.String()); err != nil {
		return fmt.Errorf("delete callback %s: %w", id, err)
	}
	return nil
}
