// Package auditlog provides an append-only sink for operational
// records: admissions, terminal outcomes, and escalations. Records are
// diagnostic only; pipeline behavior never depends on the sink.
package auditlog

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Event kinds recorded by the pipeline.
const (
	KindAdmitted          = "task_admitted"
	KindPublished         = "task_published"
	KindTaskFailed        = "task_failed_permanent"
	KindCallbackDelivered = "callback_delivered"
	KindCallbackFailed    = "callback_failed_permanent"
)

// Event is one appended record.
type Event struct {
	Kind       string
	TaskID     string
	CallbackID string
	Attempt    int
	Message    string
}

// Recorder appends events to the audit sink. Implementations must be
// safe for concurrent use.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// DBTX abstracts the database handle so the recorder works with either
// a connection pool or a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLRecorder appends events to the audit_events table.
type SQLRecorder struct {
	db     DBTX
	logger *slog.Logger
}

// NewSQLRecorder creates a SQLRecorder.
func NewSQLRecorder(db DBTX, logger *slog.Logger) *SQLRecorder {
	return &SQLRecorder{db: db, logger: logger}
}

// Record implements Recorder.
func (r *SQLRecorder) Record(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (kind, task_id, callback_id, attempt, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.Kind,
		event.TaskID,
		event.CallbackID,
		event.Attempt,
		event.Message,
		time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("failed to record audit event",
			"kind", event.Kind,
			"task_id", event.TaskID,
			"error", err)
		return fmt.Errorf("failed to record audit event: %w", err)
	}

	return nil
}

// NoopRecorder discards events. Used when no database is configured.
type NoopRecorder struct{}

// Record implements Recorder.
func (NoopRecorder) Record(ctx context.Context, event Event) error { return nil }

// Migrate brings the audit schema up to date using the embedded goose
// migrations.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply audit migrations: %w", err)
	}

	return nil
}
