package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/draftwire/draftwire/internal/api"
	"github.com/draftwire/draftwire/internal/auditlog"
	"github.com/draftwire/draftwire/internal/auth"
	"github.com/draftwire/draftwire/internal/config"
	"github.com/draftwire/draftwire/internal/contentstore"
	"github.com/draftwire/draftwire/internal/dispatcher"
	"github.com/draftwire/draftwire/internal/domain"
	"github.com/draftwire/draftwire/internal/notify"
	"github.com/draftwire/draftwire/internal/scheduler"
	"github.com/draftwire/draftwire/internal/store"
	"github.com/draftwire/draftwire/internal/worker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// newTestApplication wires a full application over the in-memory store
// so the router can be exercised without external services. The
// scheduler is not started; scheduled work stays queued.
func newTestApplication(t *testing.T) (*application, string) {
	t.Helper()

	log := testLogger()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{Port: 0, LogLevel: "error"},
		Auth: config.AuthConfig{
			SecretMaterial: "material-material",
			SecretSalt:     "salt-salt-salt-salt",
			AdminJWTSecret: strings.Repeat("a", 32),
			Identities: []config.Identity{
				{Username: "editor", PasswordHash: string(hash), CanPublish: true},
			},
		},
		Publish: config.PublishConfig{
			DefaultStatus:    "draft",
			DefaultPostType:  "post",
			AllowedPostTypes: []string{"post"},
			DefaultCategory:  "Uncategorized",
		},
		Callback: config.CallbackConfig{URL: "https://consumer.example.com", Key: "k"},
	}

	kv := store.NewMemoryStore()
	app := &application{
		cfg:       cfg,
		logger:    log,
		tasks:     store.NewTaskStore(kv),
		callbacks: store.NewCallbackStore(kv),
		audit:     auditlog.NoopRecorder{},
		notifier:  notify.NewLogNotifier(log),
	}

	keeper, err := auth.NewSecretKeeper(kv, cfg.Auth.SecretMaterial, cfg.Auth.SecretSalt, log)
	require.NoError(t, err)
	app.identities = auth.NewStaticProvider(cfg.Auth.Identities)
	app.verifier = auth.NewVerifier(app.identities, keeper, log)
	app.admTokens, err = auth.NewAdminTokenService(cfg.Auth.AdminJWTSecret)
	require.NoError(t, err)

	app.sched = scheduler.NewSweepScheduler(time.Second, log)
	app.dispatcher = dispatcher.New(app.callbacks, app.sched, app.notifier, app.audit, cfg.Callback, log)
	app.worker = worker.New(app.tasks, contentstore.NewClient("https://cms.example.com", "t"),
		app.dispatcher, app.sched, app.notifier, app.audit,
		worker.NewImageFetcher(), cfg.Publish, log)

	app.sched.Register(worker.ActionID, app.worker.Process)
	app.sched.Register(dispatcher.ActionID, app.dispatcher.Deliver)

	secret, err := keeper.Secret(context.Background())
	require.NoError(t, err)

	return app, secret
}

func TestRouterHealth(t *testing.T) {
	t.Parallel()

	app, _ := newTestApplication(t)
	router := buildRouter(app)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRouterPublishPost(t *testing.T) {
	t.Parallel()

	app, secret := newTestApplication(t)
	router := buildRouter(app)

	body := `{"title":"Hello","content":"<p>world</p>"}`

	t.Run("admits signed authenticated request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/publish-post", strings.NewReader(body))
		r.SetBasicAuth("editor", "s3cret")
		r.Header.Set(auth.SignatureHeader, auth.Sign([]byte(body), secret))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		require.Equal(t, http.StatusAccepted, w.Code)

		var resp api.PublishResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "queued", resp.Status)

		// The admitted task is in the store.
		taskID := uuid.MustParse(resp.TaskID)
		task, err := app.tasks.Get(context.Background(), taskID)
		require.NoError(t, err)
		assert.Equal(t, "Hello", task.Title)
	})

	t.Run("rejects unauthenticated request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/publish-post", strings.NewReader(body))
		r.Header.Set(auth.SignatureHeader, auth.Sign([]byte(body), secret))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects unsigned request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/publish-post", strings.NewReader(body))
		r.SetBasicAuth("editor", "s3cret")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRouterAdminRetry(t *testing.T) {
	t.Parallel()

	app, _ := newTestApplication(t)
	router := buildRouter(app)

	cb, err := domain.NewCallback(uuid.New(), domain.CallbackStatusError)
	require.NoError(t, err)
	cb.RetryCount = 4
	require.NoError(t, app.callbacks.Save(context.Background(), cb))

	token, err := app.admTokens.GenerateToken("ops", time.Minute)
	require.NoError(t, err)

	t.Run("requires token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/admin/callbacks/"+cb.ID.String()+"/retry", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("requeues with valid token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/admin/callbacks/"+cb.ID.String()+"/retry", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)

		stored, err := app.callbacks.Get(context.Background(), cb.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.RetryCount)
	})
}
