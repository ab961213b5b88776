package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PostStatus represents the target publication state of a document.
type PostStatus string

// Possible post status values
const (
	PostStatusDraft         PostStatus = "draft"
	PostStatusPendingReview PostStatus = "pending-review"
	PostStatusPublished     PostStatus = "published"
)

// MaxTaskRetries is the number of failed processing attempts allowed
// before a task is escalated to permanent failure.
const MaxTaskRetries = 3

// Common validation errors for Task
var (
	ErrEmptyTaskID     = errors.New("task ID cannot be empty")
	ErrEmptyTaskTitle  = errors.New("task title cannot be empty")
	ErrEmptyTaskBody   = errors.New("task body cannot be empty")
	ErrInvalidStatus   = errors.New("invalid post status")
	ErrInsecureImage   = errors.New("hero image URL must use https")
	ErrNegativeRetries = errors.New("retry count cannot be negative")
)

// Task is a queued publish request awaiting asynchronous processing.
// It is owned by the task store from admission until it reaches a
// terminal state, and is mutated only by the worker (retry count
// increments on reschedule).
type Task struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	Excerpt      string     `json:"excerpt,omitempty"`
	HeroImageURL string     `json:"hero_image_url,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Categories   []string   `json:"categories,omitempty"`
	PostStatus   PostStatus `json:"post_status"`
	PostType     string     `json:"post_type,omitempty"`
	Author       string     `json:"author,omitempty"`
	ExternalRef  string     `json:"external_ref,omitempty"`
	SEOTitle     string     `json:"seo_title,omitempty"`
	SEODesc      string     `json:"seo_description,omitempty"`
	RetryCount   int        `json:"retry_count"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewTask creates a Task with a fresh ID, zero retry count, and the
// given normalized fields. Returns an error if validation fails.
func NewTask(title, body string) (*Task, error) {
	task := &Task{
		ID:        uuid.New(),
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.Title == "" {
		return ErrEmptyTaskTitle
	}

	if t.Body == "" {
		return ErrEmptyTaskBody
	}

	if t.PostStatus != "" && !IsValidPostStatus(t.PostStatus) {
		return ErrInvalidStatus
	}

	if t.RetryCount < 0 {
		return ErrNegativeRetries
	}

	return nil
}

// IsValidPostStatus checks if the given status is one of the defined
// post status values.
func IsValidPostStatus(status PostStatus) bool {
	switch status {
	case PostStatusDraft, PostStatusPendingReview, PostStatusPublished:
		return true
	default:
		return false
	}
}
