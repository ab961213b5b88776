package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/draftwire/draftwire/internal/auditlog"
	"github.com/draftwire/draftwire/internal/config"
	"github.com/draftwire/draftwire/internal/contentstore"
	"github.com/draftwire/draftwire/internal/domain"
	"github.com/draftwire/draftwire/internal/notify"
	"github.com/draftwire/draftwire/internal/scheduler"
	"github.com/draftwire/draftwire/internal/store"
)

// ActionID is the worker's registration key on the scheduler.
const ActionID = "task.process"

// retryBackoff is the fixed per-attempt delay table, indexed by the
// retry count after increment. Attempts past the table use the cap.
var retryBackoff = []time.Duration{
	5 * time.Second,
	30 * time.Second,
	120 * time.Second,
}

// retryBackoffCap is the delay for attempts beyond the table. Given
// the retry cap of 3 it should not occur, but the table fails safe.
const retryBackoffCap = 300 * time.Second

// RetryDelay returns the reschedule delay for the given attempt
// (1-based).
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 || attempt > len(retryBackoff) {
		return retryBackoffCap
	}
	return retryBackoff[attempt-1]
}

// Dispatcher is the slice of the callback subsystem the worker needs:
// enqueue one status notification. Task retry and callback retry stay
// fully decoupled behind it.
type Dispatcher interface {
	Schedule(ctx context.Context, cb *domain.Callback) error
}

// Worker executes the multi-step publish workflow for one task at a
// time. Concurrent invocations for different task IDs are safe;
// concurrent invocations for the same ID degrade to no-ops once the
// record is gone.
type Worker struct {
	tasks      *store.TaskStore
	content    contentstore.ContentStore
	dispatcher Dispatcher
	sched      scheduler.Scheduler
	notifier   notify.Notifier
	audit      auditlog.Recorder
	fetcher    *ImageFetcher
	cfg        config.PublishConfig
	logger     *slog.Logger
}

// New creates a Worker.
func New(
	tasks *store.TaskStore,
	content contentstore.ContentStore,
	dispatcher Dispatcher,
	sched scheduler.Scheduler,
	notifier notify.Notifier,
	audit auditlog.Recorder,
	fetcher *ImageFetcher,
	cfg config.PublishConfig,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		tasks:      tasks,
		content:    content,
		dispatcher: dispatcher,
		sched:      sched,
		notifier:   notifier,
		audit:      audit,
		fetcher:    fetcher,
		cfg:        cfg,
		logger:     logger,
	}
}

// Process is the scheduler action: it runs one processing attempt for
// the task identified by arg. All failures are contained here; there
// is no caller to report back to.
func (w *Worker) Process(ctx context.Context, arg string) {
	taskID, err := uuid.Parse(arg)
	if err != nil {
		w.logger.Error("worker invoked with malformed task id", "arg", arg, "error", err)
		return
	}

	logger := w.logger.With("task_id", taskID)

	task, err := w.tasks.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			// Expired entry or duplicate invocation after completion.
			// Not an error: reading a deleted record is a no-op.
			logger.Warn("task not found, skipping")
			return
		}
		logger.Error("failed to load task", "error", err)
		return
	}

	logger.Info("processing publish task",
		"title", task.Title,
		"retry_count", task.RetryCount)

	ref, err := w.publish(ctx, task)
	if err != nil {
		w.handleFailure(ctx, task, err)
		return
	}

	w.finalize(ctx, task, ref)
}

// publish performs the fallible side-effect steps. Any error aborts
// the whole attempt; nothing is rolled back, the retry re-runs every
// step.
func (w *Worker) publish(ctx context.Context, task *domain.Task) (*contentstore.DocumentRef, error) {
	var mediaID string

	if task.HeroImageURL != "" {
		data, filename, err := w.fetcher.Fetch(ctx, task.HeroImageURL)
		if err != nil {
			return nil, fmt.Errorf("hero image: %w", err)
		}

		mediaID, err = w.content.AttachMedia(ctx, data, filename)
		if err != nil {
			return nil, fmt.Errorf("hero image: %w", err)
		}
	}

	ref, err := w.content.InsertDocument(ctx, w.buildDocument(task))
	if err != nil {
		return nil, fmt.Errorf("document insert: %w", err)
	}

	if mediaID != "" {
		if err := w.content.SetPrimaryImage(ctx, ref.ID, mediaID); err != nil {
			return nil, fmt.Errorf("primary image: %w", err)
		}
	}

	if len(task.Tags) > 0 {
		if err := w.content.SetTags(ctx, ref.ID, task.Tags); err != nil {
			return nil, fmt.Errorf("tags: %w", err)
		}
	}

	categories := task.Categories
	if len(categories) == 0 {
		categories = []string{w.cfg.DefaultCategory}
	}
	termIDs, err := w.content.EnsureTaxonomyTerms(ctx, categories)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	if err := w.content.SetCategories(ctx, ref.ID, termIDs); err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}

	return ref, nil
}

// buildDocument maps task fields onto the content store record,
// stamping the internal tracking metadata.
func (w *Worker) buildDocument(task *domain.Task) contentstore.Document {
	status := string(task.PostStatus)
	if status == "" {
		status = w.cfg.DefaultStatus
	}

	docType := task.PostType
	if docType == "" {
		docType = w.cfg.DefaultPostType
	}

	meta := map[string]string{
		"_task_id":      task.ID.String(),
		"_published_at": time.Now().UTC().Format(time.RFC3339),
	}
	if task.ExternalRef != "" {
		meta["_external_ref"] = task.ExternalRef
	}
	if task.SEOTitle != "" {
		meta["_seo_title"] = task.SEOTitle
	}
	if task.SEODesc != "" {
		meta["_seo_description"] = task.SEODesc
	}

	return contentstore.Document{
		Title:   task.Title,
		Body:    task.Body,
		Excerpt: task.Excerpt,
		Status:  status,
		Type:    docType,
		Author:  task.Author,
		Meta:    meta,
	}
}

// finalize deletes the task record and enqueues the terminal
// "published" callback.
func (w *Worker) finalize(ctx context.Context, task *domain.Task, ref *contentstore.DocumentRef) {
	logger := w.logger.With("task_id", task.ID, "document_id", ref.ID)

	if err := w.tasks.Delete(ctx, task.ID); err != nil {
		logger.Error("failed to delete finished task", "error", err)
	}

	cb, err := domain.NewCallback(task.ID, domain.CallbackStatusPublished)
	if err != nil {
		logger.Error("failed to build published callback", "error", err)
		return
	}
	cb.DocumentID = ref.ID
	cb.PublicURL = ref.PublicURL
	cb.EditURL = ref.EditURL

	if err := w.dispatcher.Schedule(ctx, cb); err != nil {
		logger.Error("failed to schedule published callback", "error", err)
	}

	if err := w.audit.Record(ctx, auditlog.Event{
		Kind:    auditlog.KindPublished,
		TaskID:  task.ID.String(),
		Attempt: task.RetryCount + 1,
		Message: "document " + ref.ID,
	}); err != nil {
		logger.Error("failed to record audit event", "error", err)
	}

	logger.Info("publish task completed")
}

// handleFailure increments the retry count and either reschedules the
// task or escalates to permanent failure.
func (w *Worker) handleFailure(ctx context.Context, task *domain.Task, taskErr error) {
	task.RetryCount++
	logger := w.logger.With("task_id", task.ID, "retry_count", task.RetryCount)

	logger.Error("publish attempt failed", "error", taskErr)

	if task.RetryCount < domain.MaxTaskRetries {
		if err := w.tasks.Save(ctx, task); err != nil {
			logger.Error("failed to persist retry count", "error", err)
			return
		}

		delay := RetryDelay(task.RetryCount)
		if err := w.sched.ScheduleOnce(delay, ActionID, task.ID.String()); err != nil {
			logger.Error("failed to schedule retry", "error", err)
			return
		}

		logger.Info("rescheduled publish task", "delay", delay)
		return
	}

	// Retry budget exhausted: terminal failure.
	if err := w.tasks.Delete(ctx, task.ID); err != nil {
		logger.Error("failed to delete exhausted task", "error", err)
	}

	cb, err := domain.NewCallback(task.ID, domain.CallbackStatusError)
	if err != nil {
		logger.Error("failed to build error callback", "error", err)
	} else {
		cb.Error = taskErr.Error()
		if err := w.dispatcher.Schedule(ctx, cb); err != nil {
			logger.Error("failed to schedule error callback", "error", err)
		}
	}

	subject := fmt.Sprintf("publish task %s failed permanently", task.ID)
	body := fmt.Sprintf("Task %s (%q) exhausted its retry budget.\n\nLast error: %v\n",
		task.ID, task.Title, taskErr)
	if err := w.notifier.Notify(ctx, subject, body); err != nil {
		logger.Error("failed to send operator notification", "error", err)
	}

	if err := w.audit.Record(ctx, auditlog.Event{
		Kind:    auditlog.KindTaskFailed,
		TaskID:  task.ID.String(),
		Attempt: task.RetryCount,
		Message: taskErr.Error(),
	}); err != nil {
		logger.Error("failed to record audit event", "error", err)
	}

	logger.Error("publish task failed permanently", "error", taskErr)
}
