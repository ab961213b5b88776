package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/draftwire/draftwire/internal/api/shared"
)

// Retrier is the administrative slice of the dispatcher: reset a
// stored callback's retry budget and queue an immediate redelivery.
type Retrier interface {
	Retry(ctx context.Context, callbackID uuid.UUID) error
}

// AdminHandler serves the operator-facing callback retry trigger.
type AdminHandler struct {
	retrier Retrier
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(retrier Retrier) *AdminHandler {
	return &AdminHandler{retrier: retrier}
}

// RetryCallback handles POST /admin/callbacks/{id}/retry.
func (h *AdminHandler) RetryCallback(w http.ResponseWriter, r *http.Request) {
	callbackID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid callback id")
		return
	}

	if err := h.retrier.Retry(r.Context(), callbackID); err != nil {
		logFromContext(r).Error("manual callback retry failed",
			"callback_id", callbackID, "error", err)
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RetryResponse{
		Message:    "Callback requeued for delivery",
		CallbackID: callbackID.String(),
	})
}
