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
	taskKeyPrefix = "task:"

	// TaskTTL bounds how long a pending or in-flight task survives in
	// the store. It is refreshed on every reschedule, so the effective
	// lifetime is one TTL past the last state change.
	TaskTTL = time.Hour
)

// TaskStore persists domain.Task entries in a KeyValue store with
// JSON encoding and a bounded lifetime.
type TaskStore struct {
	kv KeyValue
}

// NewTaskStore creates a TaskStore backed by the given KeyValue store.
func NewTaskStore(kv KeyValue) *TaskStore {
	return &TaskStore{kv: kv}
}

// Save persists the task, resetting its TTL.
func (s *TaskStore) Save(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", task.ID, err)
	}

	if err := s.kv.Set(ctx, taskKeyPrefix+task.ID.String(), data, TaskTTL); err != nil {
		return fmt.Errorf("save task %s: %w", task.ID, err)
	}
	return nil
}

// Get loads a task by ID. Returns ErrTaskNotFound if the entry is
// missing or expired.
func (s *TaskStore) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	data, err := s.kv.Get(ctx, taskKeyPrefix+id.String())
	if err != nil {
		if IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}

	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("%w: decode task %s: %w", ErrInvalidEntry, id, err)
	}
	return &task, nil
}

// Delete removes a task entry. Deleting a missing task is not an error.
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.kv.Delete(ctx, taskKeyPrefix+id.String()); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}
