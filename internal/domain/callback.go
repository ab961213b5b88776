package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// CallbackStatus describes the lifecycle stage a callback reports.
type CallbackStatus string

// Possible callback status values
const (
	CallbackStatusQueued    CallbackStatus = "queued"
	CallbackStatusPublished CallbackStatus = "published"
	CallbackStatusError     CallbackStatus = "error"
)

// MaxCallbackRetries is the number of failed delivery attempts allowed
// before a callback is escalated to permanent failure.
const MaxCallbackRetries = 5

// Common validation errors for Callback
var (
	ErrEmptyCallbackID       = errors.New("callback ID cannot be empty")
	ErrEmptyCallbackTaskID   = errors.New("callback task ID cannot be empty")
	ErrInvalidCallbackStatus = errors.New("invalid callback status")
)

// Callback is an outbound status notification describing a task's
// lifecycle stage. It carries its own identity and retry state,
// decoupled from the task it references: a task failing never blocks
// callback delivery and vice versa.
type Callback struct {
	ID         uuid.UUID      `json:"callback_id"`
	TaskID     uuid.UUID      `json:"task_id"`
	Status     CallbackStatus `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
	RetryCount int            `json:"retry_count"`

	// Result fields, populated on successful publication.
	DocumentID string `json:"document_id,omitempty"`
	PublicURL  string `json:"public_url,omitempty"`
	EditURL    string `json:"edit_url,omitempty"`

	// Error message, populated on permanent task failure.
	Error string `json:"error,omitempty"`
}

// NewCallback creates a Callback for the given task with a fresh ID,
// zero retry count, and the current timestamp.
// Returns an error if validation fails.
func NewCallback(taskID uuid.UUID, status CallbackStatus) (*Callback, error) {
	cb := &Callback{
		ID:        uuid.New(),
		TaskID:    taskID,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}

	if err := cb.Validate(); err != nil {
		return nil, err
	}

	return cb, nil
}

// Validate checks if the Callback has valid data.
func (c *Callback) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCallbackID
	}

	if c.TaskID == uuid.Nil {
		return ErrEmptyCallbackTaskID
	}

	if !isValidCallbackStatus(c.Status) {
		return ErrInvalidCallbackStatus
	}

	if c.RetryCount < 0 {
		return ErrNegativeRetries
	}

	return nil
}

func isValidCallbackStatus(status CallbackStatus) bool {
	switch status {
	case CallbackStatusQueued, CallbackStatusPublished, CallbackStatusError:
		return true
	default:
		return false
	}
}
