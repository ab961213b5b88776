package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	t.Parallel()

	ctx := SetTraceID(context.Background())
	id := GetTraceID(ctx)
	require.Len(t, id, 32)

	other := GetTraceID(SetTraceID(context.Background()))
	assert.NotEqual(t, id, other, "trace ids must be unique per request")

	assert.Empty(t, GetTraceID(context.Background()))
}

func TestCaller(t *testing.T) {
	t.Parallel()

	ctx := SetCaller(context.Background(), "editor")
	assert.Equal(t, "editor", GetCaller(ctx))
	assert.Empty(t, GetCaller(context.Background()))
}

func TestRespondWithError(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r = r.WithContext(SetTraceID(r.Context()))
	w := httptest.NewRecorder()

	RespondWithError(w, r, http.StatusBadRequest, "title is required")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "title is required")
	assert.Contains(t, w.Body.String(), GetTraceID(r.Context()))
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Name string `json:"name"`
	}

	t.Run("decodes valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"a"}`))
		var p payload
		require.NoError(t, DecodeJSON(r, &p))
		assert.Equal(t, "a", p.Name)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"a","extra":1}`))
		var p payload
		assert.Error(t, DecodeJSON(r, &p))
	})
}
