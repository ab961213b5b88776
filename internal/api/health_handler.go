package api

import (
	"net/http"
	"time"

	"github.com/draftwire/draftwire/internal/api/shared"
	"github.com/draftwire/draftwire/internal/config"
	"github.com/draftwire/draftwire/internal/version"
)

// HealthHandler serves the unauthenticated liveness probe.
type HealthHandler struct {
	publish  config.PublishConfig
	callback config.CallbackConfig
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(publish config.PublishConfig, callback config.CallbackConfig) *HealthHandler {
	return &HealthHandler{publish: publish, callback: callback}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
		Config: HealthConfig{
			CallbackURLConfigured: h.callback.URL != "",
			CallbackKeyConfigured: h.callback.Key != "",
			DefaultPostStatus:     h.publish.DefaultStatus,
			DefaultPostType:       h.publish.DefaultPostType,
		},
	})
}
