package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/draftwire/draftwire/internal/api/shared"
	"github.com/draftwire/draftwire/internal/auth"
	"github.com/draftwire/draftwire/internal/config"
	"github.com/draftwire/draftwire/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type publishAuthFixture struct {
	verifier *auth.Verifier
	secret   string
}

func newPublishAuthFixture(t *testing.T) *publishAuthFixture {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	provider := auth.NewStaticProvider([]config.Identity{
		{Username: "editor", PasswordHash: string(hash), CanPublish: true},
		{Username: "intern", PasswordHash: string(hash), CanPublish: false},
	})

	keeper, err := auth.NewSecretKeeper(store.NewMemoryStore(),
		"material-material", "salt-salt-salt-salt", testLogger())
	require.NoError(t, err)

	secret, err := keeper.Secret(context.Background())
	require.NoError(t, err)

	return &publishAuthFixture{
		verifier: auth.NewVerifier(provider, keeper, testLogger()),
		secret:   secret,
	}
}

// echoCaller responds 200 with the caller and the body it received.
func echoCaller(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = w.Write([]byte(shared.GetCaller(r.Context()) + ":" + string(body)))
	})
}

func TestPublishAuth(t *testing.T) {
	t.Parallel()

	const body = `{"title":"t","content":"c"}`

	newRequest := func(user, pass string, sign bool, f *publishAuthFixture) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/publish-post", strings.NewReader(body))
		if user != "" {
			r.SetBasicAuth(user, pass)
		}
		if sign {
			r.Header.Set(auth.SignatureHeader, auth.Sign([]byte(body), f.secret))
		}
		return r
	}

	t.Run("passes valid credentials and signature", func(t *testing.T) {
		f := newPublishAuthFixture(t)
		w := httptest.NewRecorder()

		PublishAuth(f.verifier)(echoCaller(t)).ServeHTTP(w, newRequest("editor", "s3cret", true, f))

		require.Equal(t, http.StatusOK, w.Code)
		// The handler saw the caller and the restored body.
		assert.Equal(t, "editor:"+body, w.Body.String())
	})

	t.Run("rejects missing credentials", func(t *testing.T) {
		f := newPublishAuthFixture(t)
		w := httptest.NewRecorder()

		PublishAuth(f.verifier)(echoCaller(t)).ServeHTTP(w, newRequest("", "", true, f))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		f := newPublishAuthFixture(t)
		w := httptest.NewRecorder()

		PublishAuth(f.verifier)(echoCaller(t)).ServeHTTP(w, newRequest("editor", "wrong", true, f))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects identity without publish capability", func(t *testing.T) {
		f := newPublishAuthFixture(t)
		w := httptest.NewRecorder()

		PublishAuth(f.verifier)(echoCaller(t)).ServeHTTP(w, newRequest("intern", "s3cret", true, f))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("rejects missing signature", func(t *testing.T) {
		f := newPublishAuthFixture(t)
		w := httptest.NewRecorder()

		PublishAuth(f.verifier)(echoCaller(t)).ServeHTTP(w, newRequest("editor", "s3cret", false, f))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects tampered body", func(t *testing.T) {
		f := newPublishAuthFixture(t)
		r := httptest.NewRequest(http.MethodPost, "/publish-post", strings.NewReader(body))
		r.SetBasicAuth("editor", "s3cret")
		r.Header.Set(auth.SignatureHeader, auth.Sign([]byte("different body"), f.secret))
		w := httptest.NewRecorder()

		PublishAuth(f.verifier)(echoCaller(t)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAdminAuth(t *testing.T) {
	t.Parallel()

	tokens, err := auth.NewAdminTokenService(strings.Repeat("k", 32))
	require.NoError(t, err)

	protected := AdminAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(shared.GetCaller(r.Context())))
	}))

	t.Run("passes valid bearer token", func(t *testing.T) {
		token, err := tokens.GenerateToken("ops", time.Minute)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodPost, "/admin/callbacks/x/retry", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ops", w.Body.String())
	})

	t.Run("rejects missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/callbacks/x/retry", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects malformed header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/admin/callbacks/x/retry", nil)
		r.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects garbage token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/admin/callbacks/x/retry", nil)
		r.Header.Set("Authorization", "Bearer not.a.jwt")
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
