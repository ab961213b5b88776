// Package dispatcher delivers status callbacks to the configured
// consumer endpoint. Delivery is decoupled from task processing and
// carries its own retry budget with exponential backoff; exhaustion
// escalates to an operator notification, never back to the caller.
package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/draftwire/draftwire/internal/auditlog"
	"github.com/draftwire/draftwire/internal/config"
	"github.com/draftwire/draftwire/internal/domain"
	"github.com/draftwire/draftwire/internal/notify"
	"github.com/draftwire/draftwire/internal/scheduler"
	"github.com/draftwire/draftwire/internal/store"
	"github.com/draftwire/draftwire/internal/version"
)

// ActionID is the dispatcher's registration key on the scheduler.
const ActionID = "callback.deliver"

// deliveryTimeout bounds a single delivery attempt.
const deliveryTimeout = 30 * time.Second

// deliveryBackoff is the fixed per-attempt delay table, indexed by the
// retry count after increment.
var deliveryBackoff = []time.Duration{
	60 * time.Second,
	300 * time.Second,
	900 * time.Second,
	3600 * time.Second,
	10800 * time.Second,
}

// deliveryBackoffCap is the delay for attempts beyond the table.
const deliveryBackoffCap = 21600 * time.Second

// RetryDelay returns the reschedule delay for the given delivery
// attempt (1-based).
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 || attempt > len(deliveryBackoff) {
		return deliveryBackoffCap
	}
	return deliveryBackoff[attempt-1]
}

// Dispatcher queues, signs, and delivers callbacks.
type Dispatcher struct {
	callbacks  *store.CallbackStore
	sched      scheduler.Scheduler
	notifier   notify.Notifier
	audit      auditlog.Recorder
	cfg        config.CallbackConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Dispatcher. The HTTP client verifies TLS, follows no
// redirects, and times out each attempt.
func New(
	callbacks *store.CallbackStore,
	sched scheduler.Scheduler,
	notifier notify.Notifier,
	audit auditlog.Recorder,
	cfg config.CallbackConfig,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		callbacks: callbacks,
		sched:     sched,
		notifier:  notifier,
		audit:     audit,
		cfg:       cfg,
		httpClient: &http.Client{
			Timeout: deliveryTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}
}

// Schedule persists a new callback and queues an immediate delivery
// attempt. If scheduling fails the entry is removed again so nothing
// is left behind that will never fire.
func (d *Dispatcher) Schedule(ctx context.Context, cb *domain.Callback) error {
	if err := d.callbacks.Save(ctx, cb); err != nil {
		return fmt.Errorf("failed to persist callback: %w", err)
	}

	if err := d.sched.ScheduleOnce(0, ActionID, cb.ID.String()); err != nil {
		if delErr := d.callbacks.Delete(ctx, cb.ID); delErr != nil {
			d.logger.Error("failed to clean up unscheduled callback",
				"callback_id", cb.ID, "error", delErr)
		}
		return fmt.Errorf("failed to schedule callback delivery: %w", err)
	}

	d.logger.Info("queued callback",
		"callback_id", cb.ID,
		"task_id", cb.TaskID,
		"status", cb.Status)
	return nil
}

// Deliver is the scheduler action: it runs one delivery attempt for
// the callback identified by arg.
func (d *Dispatcher) Deliver(ctx context.Context, arg string) {
	callbackID, err := uuid.Parse(arg)
	if err != nil {
		d.logger.Error("dispatcher invoked with malformed callback id", "arg", arg, "error", err)
		return
	}

	logger := d.logger.With("callback_id", callbackID)

	cb, err := d.callbacks.Get(ctx, callbackID)
	if err != nil {
		if errors.Is(err, store.ErrCallbackNotFound) {
			// Already delivered or expired; duplicate fire is a no-op.
			logger.Error("callback not found, skipping delivery")
			return
		}
		logger.Error("failed to load callback", "error", err)
		return
	}

	// Misconfiguration is terminal, not transient: retrying would never
	// succeed, so the entry is discarded.
	if d.cfg.URL == "" || d.cfg.Key == "" {
		logger.Error("callback destination not configured, discarding",
			"task_id", cb.TaskID,
			"status", cb.Status)
		if err := d.callbacks.Delete(ctx, cb.ID); err != nil {
			logger.Error("failed to discard callback", "error", err)
		}
		return
	}

	if err := d.send(ctx, cb); err != nil {
		d.handleFailure(ctx, cb, err)
		return
	}

	if err := d.callbacks.Delete(ctx, cb.ID); err != nil {
		logger.Error("failed to delete delivered callback", "error", err)
	}

	if err := d.audit.Record(ctx, auditlog.Event{
		Kind:       auditlog.KindCallbackDelivered,
		TaskID:     cb.TaskID.String(),
		CallbackID: cb.ID.String(),
		Attempt:    cb.RetryCount + 1,
	}); err != nil {
		logger.Error("failed to record audit event", "error", err)
	}

	logger.Info("callback delivered",
		"task_id", cb.TaskID,
		"status", cb.Status,
		"retry_count", cb.RetryCount)
}

// send performs one signed POST to the configured destination. Any
// transport error or non-2xx response is a delivery failure.
func (d *Dispatcher) send(ctx context.Context, cb *domain.Callback) error {
	body, err := json.Marshal(cb)
	if err != nil {
		return fmt.Errorf("failed to encode callback: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.cfg.Key)
	req.Header.Set("User-Agent", version.UserAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("callback request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback rejected: status %d", resp.StatusCode)
	}
	return nil
}

// handleFailure increments the retry count and either reschedules
// delivery or escalates to permanent failure.
func (d *Dispatcher) handleFailure(ctx context.Context, cb *domain.Callback, deliveryErr error) {
	cb.RetryCount++
	logger := d.logger.With("callback_id", cb.ID, "retry_count", cb.RetryCount)

	logger.Error("callback delivery failed", "error", deliveryErr)

	if cb.RetryCount < domain.MaxCallbackRetries {
		if err := d.callbacks.Save(ctx, cb); err != nil {
			logger.Error("failed to persist retry count", "error", err)
			return
		}

		delay := RetryDelay(cb.RetryCount)
		if err := d.sched.ScheduleOnce(delay, ActionID, cb.ID.String()); err != nil {
			logger.Error("failed to schedule delivery retry", "error", err)
			return
		}

		logger.Info("rescheduled callback delivery", "delay", delay)
		return
	}

	// Retry budget exhausted: drop the entry and escalate.
	if err := d.callbacks.Delete(ctx, cb.ID); err != nil {
		logger.Error("failed to delete exhausted callback", "error", err)
	}

	subject := fmt.Sprintf("callback delivery for task %s failed permanently", cb.TaskID)
	body := fmt.Sprintf("Callback %s (task %s, status %s) exhausted its retry budget.\n\nLast error: %v\n",
		cb.ID, cb.TaskID, cb.Status, deliveryErr)
	if err := d.notifier.Notify(ctx, subject, body); err != nil {
		logger.Error("failed to send operator notification", "error", err)
	}

	if err := d.audit.Record(ctx, auditlog.Event{
		Kind:       auditlog.KindCallbackFailed,
		TaskID:     cb.TaskID.String(),
		CallbackID: cb.ID.String(),
		Attempt:    cb.RetryCount,
		Message:    deliveryErr.Error(),
	}); err != nil {
		logger.Error("failed to record audit event", "error", err)
	}

	logger.Error("callback failed permanently", "error", deliveryErr)
}

// Retry is the administrative trigger: it resets the retry count of a
// stored callback and queues an immediate delivery attempt, regardless
// of where the automatic backoff left off.
func (d *Dispatcher) Retry(ctx context.Context, callbackID uuid.UUID) error {
	cb, err := d.callbacks.Get(ctx, callbackID)
	if err != nil {
		return err
	}

	cb.RetryCount = 0
	if err := d.callbacks.Save(ctx, cb); err != nil {
		return fmt.Errorf("failed to reset callback: %w", err)
	}

	if err := d.sched.ScheduleOnce(0, ActionID, cb.ID.String()); err != nil {
		return fmt.Errorf("failed to schedule delivery: %w", err)
	}

	d.logger.Info("manually requeued callback", "callback_id", cb.ID, "task_id", cb.TaskID)
	return nil
}
