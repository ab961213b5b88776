package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/draftwire/draftwire/internal/api/shared"
	"github.com/draftwire/draftwire/internal/auditlog"
	"github.com/draftwire/draftwire/internal/auth"
	"github.com/draftwire/draftwire/internal/config"
	"github.com/draftwire/draftwire/internal/domain"
	"github.com/draftwire/draftwire/internal/scheduler"
	"github.com/draftwire/draftwire/internal/store"
	"github.com/draftwire/draftwire/internal/worker"
)

// maxTitleLength is the admission limit on title length, in runes.
const maxTitleLength = 200

// PublishHandler admits publish requests: validate, normalize,
// persist, schedule, acknowledge.
type PublishHandler struct {
	tasks      *store.TaskStore
	dispatcher worker.Dispatcher
	sched      scheduler.Scheduler
	identities auth.IdentityProvider
	audit      auditlog.Recorder
	cfg        config.PublishConfig
	validator  *validator.Validate

	// htmlPolicy keeps safe user-generated markup; textPolicy strips
	// all markup from plain-text fields.
	htmlPolicy *bluemonday.Policy
	textPolicy *bluemonday.Policy
}

// NewPublishHandler creates a PublishHandler.
func NewPublishHandler(
	tasks *store.TaskStore,
	dispatcher worker.Dispatcher,
	sched scheduler.Scheduler,
	identities auth.IdentityProvider,
	audit auditlog.Recorder,
	cfg config.PublishConfig,
) *PublishHandler {
	return &PublishHandler{
		tasks:      tasks,
		dispatcher: dispatcher,
		sched:      sched,
		identities: identities,
		audit:      audit,
		cfg:        cfg,
		validator:  validator.New(),
		htmlPolicy: bluemonday.UGCPolicy(),
		textPolicy: bluemonday.StrictPolicy(),
	}
}

// Submit handles POST /publish-post. On success the task is persisted,
// processing is scheduled, an initial "queued" callback is enqueued,
// and the caller receives 202 with the task id.
func (h *PublishHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, sanitizeValidationError(err))
		return
	}

	task, errMsg := h.buildTask(r, &req)
	if errMsg != "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, errMsg)
		return
	}

	if err := h.tasks.Save(r.Context(), task); err != nil {
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to persist task")
		return
	}

	// Admission is all-or-nothing: a task that can never fire must not
	// linger in the store.
	if err := h.sched.ScheduleOnce(0, worker.ActionID, task.ID.String()); err != nil {
		if delErr := h.tasks.Delete(r.Context(), task.ID); delErr != nil {
			logFromContext(r).Error("failed to roll back unscheduled task",
				"task_id", task.ID, "error", delErr)
		}
		logFromContext(r).Error("failed to schedule task processing",
			"task_id", task.ID, "error", err)
		shared.RespondWithError(w, r, http.StatusServiceUnavailable, "Failed to schedule task processing")
		return
	}

	cb, err := domain.NewCallback(task.ID, domain.CallbackStatusQueued)
	if err == nil {
		err = h.dispatcher.Schedule(r.Context(), cb)
	}
	if err != nil {
		// Processing is already committed; a missing "queued" callback
		// is degraded service, not a failed admission.
		logFromContext(r).Error("failed to enqueue admission callback",
			"task_id", task.ID, "error", err)
	}

	if err := h.audit.Record(r.Context(), auditlog.Event{
		Kind:    auditlog.KindAdmitted,
		TaskID:  task.ID.String(),
		Message: task.Title,
	}); err != nil {
		logFromContext(r).Error("failed to record audit event", "error", err)
	}

	logFromContext(r).Info("task admitted",
		"task_id", task.ID,
		"author", task.Author,
		"post_status", task.PostStatus)

	shared.RespondWithJSON(w, r, http.StatusAccepted, PublishResponse{
		Message: "Post queued for publication",
		TaskID:  task.ID.String(),
		Status:  "queued",
	})
}

// buildTask normalizes and validates the request into a Task. A
// non-empty second return is the client-facing rejection message,
// always naming the offending field.
func (h *PublishHandler) buildTask(r *http.Request, req *PublishRequest) (*domain.Task, string) {
	title := strings.TrimSpace(h.textPolicy.Sanitize(req.Title))
	if title == "" {
		return nil, "title must not be empty"
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}

	content := h.htmlPolicy.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		return nil, "content must not be empty after sanitization"
	}

	if req.HeroImageURL != "" {
		u, err := url.Parse(req.HeroImageURL)
		if err != nil || u.Host == "" {
			return nil, "hero_image_url must be a well-formed URL"
		}
		if u.Scheme != "https" {
			return nil, "hero_image_url must use https"
		}
	}

	status := domain.PostStatus(req.PostStatus)
	if status == "" {
		status = domain.PostStatus(h.cfg.DefaultStatus)
	}
	if !domain.IsValidPostStatus(status) {
		return nil, "post_status must be one of draft, pending-review, published"
	}

	postType := req.PostType
	if postType == "" {
		postType = h.cfg.DefaultPostType
	}
	if !h.allowedPostType(postType) {
		return nil, fmt.Sprintf("post_type %q is not a publishable content type", postType)
	}

	author := req.Author
	if author == "" {
		author = shared.GetCaller(r.Context())
	}
	if author != "" {
		identity, err := h.identities.Lookup(r.Context(), author)
		if err != nil || !identity.CanPublish {
			return nil, fmt.Sprintf("author %q is not an identity with publish capability", author)
		}
	}

	task, err := domain.NewTask(title, content)
	if err != nil {
		return nil, GetSafeErrorMessage(err)
	}

	task.Excerpt = strings.TrimSpace(h.textPolicy.Sanitize(req.Excerpt))
	task.HeroImageURL = req.HeroImageURL
	task.Tags = h.sanitizeAll(req.Tags)
	task.Categories = h.sanitizeAll(req.Categories)
	task.PostStatus = status
	task.PostType = postType
	task.Author = author
	task.ExternalRef = strings.TrimSpace(h.textPolicy.Sanitize(req.ExternalRef))
	task.SEOTitle = strings.TrimSpace(h.textPolicy.Sanitize(req.SEOTitle))
	task.SEODesc = strings.TrimSpace(h.textPolicy.Sanitize(req.SEODescription))

	return task, ""
}

// sanitizeAll strips markup from each term, dropping entries that end
// up empty.
func (h *PublishHandler) sanitizeAll(terms []string) []string {
	if len(terms) == 0 {
		return nil
	}
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		clean := strings.TrimSpace(h.textPolicy.Sanitize(term))
		if clean != "" {
			out = append(out, clean)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (h *PublishHandler) allowedPostType(postType string) bool {
	for _, allowed := range h.cfg.AllowedPostTypes {
		if postType == allowed {
			return true
		}
	}
	return false
}
