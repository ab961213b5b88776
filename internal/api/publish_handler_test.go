package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftwire/draftwire/internal/api/shared"
	"github.com/draftwire/draftwire/internal/auditlog"
	"github.com/draftwire/draftwire/internal/auth"
	"github.com/draftwire/draftwire/internal/config"
	"github.com/draftwire/draftwire/internal/domain"
	"github.com/draftwire/draftwire/internal/store"
	"github.com/draftwire/draftwire/internal/worker"
)

type fakeIdentities struct {
	users map[string]*auth.Identity
}

func (f *fakeIdentities) Authenticate(ctx context.Context, username, password string) (*auth.Identity, error) {
	return nil, auth.ErrUnauthorized
}

func (f *fakeIdentities) Lookup(ctx context.Context, username string) (*auth.Identity, error) {
	id, ok := f.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: unknown user", auth.ErrUnauthorized)
	}
	return id, nil
}

type recordingDispatcher struct {
	callbacks []*domain.Callback
	err       error
}

func (d *recordingDispatcher) Schedule(ctx context.Context, cb *domain.Callback) error {
	if d.err != nil {
		return d.err
	}
	d.callbacks = append(d.callbacks, cb)
	return nil
}

type recordingScheduler struct {
	delays  []time.Duration
	actions []string
	args    []string
	err     error
}

func (s *recordingScheduler) ScheduleOnce(delay time.Duration, actionID string, arg string) error {
	if s.err != nil {
		return s.err
	}
	s.delays = append(s.delays, delay)
	s.actions = append(s.actions, actionID)
	s.args = append(s.args, arg)
	return nil
}

type publishFixture struct {
	handler    *PublishHandler
	tasks      *store.TaskStore
	dispatcher *recordingDispatcher
	sched      *recordingScheduler
}

func newPublishFixture(t *testing.T) *publishFixture {
	t.Helper()

	tasks := store.NewTaskStore(store.NewMemoryStore())
	dispatcher := &recordingDispatcher{}
	sched := &recordingScheduler{}
	identities := &fakeIdentities{users: map[string]*auth.Identity{
		"editor": {Username: "editor", CanPublish: true},
		"intern": {Username: "intern", CanPublish: false},
	}}

	h := NewPublishHandler(tasks, dispatcher, sched, identities, auditlog.NoopRecorder{},
		config.PublishConfig{
			DefaultStatus:    "draft",
			DefaultPostType:  "post",
			AllowedPostTypes: []string{"post", "page"},
			DefaultCategory:  "Uncategorized",
		})

	return &publishFixture{handler: h, tasks: tasks, dispatcher: dispatcher, sched: sched}
}

func (f *publishFixture) submit(t *testing.T, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/publish-post", bytes.NewReader(body))
	r = r.WithContext(shared.SetCaller(r.Context(), "editor"))
	w := httptest.NewRecorder()
	f.handler.Submit(w, r)
	return w
}

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"title":   "Launch announcement",
		"content": "<p>We shipped.</p>",
	}
}

func TestSubmitAcceptsValidRequest(t *testing.T) {
	t.Parallel()

	f := newPublishFixture(t)
	payload := validPayload()
	payload["tags"] = []string{"ai", "news"}
	payload["categories"] = []string{"Tech"}

	w := f.submit(t, payload)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp PublishResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "queued", resp.Status)
	assert.NotEmpty(t, resp.Message)

	taskID, err := uuid.Parse(resp.TaskID)
	require.NoError(t, err)

	// Task persisted with normalized fields and config defaults.
	task, err := f.tasks.Get(context.Background(), taskID)
	require.NoError(t, err)
	assert.Equal(t, "Launch announcement", task.Title)
	assert.Equal(t, []string{"ai", "news"}, task.Tags)
	assert.Equal(t, []string{"Tech"}, task.Categories)
	assert.Equal(t, domain.PostStatusDraft, task.PostStatus)
	assert.Equal(t, "post", task.PostType)
	assert.Equal(t, "editor", task.Author)

	// Processing scheduled immediately for exactly this task.
	require.Len(t, f.sched.delays, 1)
	assert.Equal(t, time.Duration(0), f.sched.delays[0])
	assert.Equal(t, worker.ActionID, f.sched.actions[0])
	assert.Equal(t, resp.TaskID, f.sched.args[0])

	// Initial queued callback carries the same task id.
	require.Len(t, f.dispatcher.callbacks, 1)
	assert.Equal(t, domain.CallbackStatusQueued, f.dispatcher.callbacks[0].Status)
	assert.Equal(t, taskID, f.dispatcher.callbacks[0].TaskID)
}

func TestSubmitSanitizesContent(t *testing.T) {
	t.Parallel()

	f := newPublishFixture(t)
	payload := validPayload()
	payload["content"] = `<p>hello</p><script>alert("x")</script>`

	w := f.submit(t, payload)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp PublishResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	task, err := f.tasks.Get(context.Background(), uuid.MustParse(resp.TaskID))
	require.NoError(t, err)
	assert.NotContains(t, task.Body, "<script")
	assert.Contains(t, task.Body, "<p>hello</p>")
}

func TestSubmitValidationFailures(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		mutate      func(p map[string]interface{})
		wantMessage string
	}{
		"missing title": {
			mutate:      func(p map[string]interface{}) { delete(p, "title") },
			wantMessage: "Title",
		},
		"whitespace title": {
			mutate:      func(p map[string]interface{}) { p["title"] = "   " },
			wantMessage: "title",
		},
		"overlong title": {
			mutate:      func(p map[string]interface{}) { p["title"] = strings.Repeat("x", 201) },
			wantMessage: "title",
		},
		"missing content": {
			mutate:      func(p map[string]interface{}) { delete(p, "content") },
			wantMessage: "Content",
		},
		"script-only content": {
			mutate:      func(p map[string]interface{}) { p["content"] = "<script>x</script>" },
			wantMessage: "content",
		},
		"insecure hero image": {
			mutate:      func(p map[string]interface{}) { p["hero_image_url"] = "http://cdn.example.com/a.jpg" },
			wantMessage: "hero_image_url",
		},
		"malformed hero image": {
			mutate:      func(p map[string]interface{}) { p["hero_image_url"] = "not a url" },
			wantMessage: "hero_image_url",
		},
		"unknown post status": {
			mutate:      func(p map[string]interface{}) { p["post_status"] = "live" },
			wantMessage: "PostStatus",
		},
		"unknown post type": {
			mutate:      func(p map[string]interface{}) { p["post_type"] = "widget" },
			wantMessage: "post_type",
		},
		"unknown author": {
			mutate:      func(p map[string]interface{}) { p["author"] = "ghost" },
			wantMessage: "author",
		},
		"author without publish capability": {
			mutate:      func(p map[string]interface{}) { p["author"] = "intern" },
			wantMessage: "author",
		},
	} {
		t.Run(name, func(t *testing.T) {
			f := newPublishFixture(t)
			payload := validPayload()
			tc.mutate(payload)

			w := f.submit(t, payload)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantMessage)

			// Rejection happens before any persistence or scheduling.
			assert.Empty(t, f.sched.delays)
			assert.Empty(t, f.dispatcher.callbacks)
		})
	}
}

func TestSubmitMalformedBody(t *testing.T) {
	t.Parallel()

	f := newPublishFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/publish-post", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	f.handler.Submit(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitSchedulingFailureRollsBack(t *testing.T) {
	t.Parallel()

	f := newPublishFixture(t)
	f.sched.err = errors.New("substrate down")

	w := f.submit(t, validPayload())

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Nothing left partially committed: no task, no callback.
	assert.Empty(t, f.dispatcher.callbacks)
}

func TestSubmitCallbackFailureDoesNotFailAdmission(t *testing.T) {
	t.Parallel()

	f := newPublishFixture(t)
	f.dispatcher.err = errors.New("store down")

	w := f.submit(t, validPayload())

	// The task is committed and scheduled; the queued notification is
	// best effort.
	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, f.sched.delays, 1)
}
