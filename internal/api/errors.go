package api

import (
	"errors"
	"net/http"

	"github.com/draftwire/draftwire/internal/auth"
	"github.com/draftwire/draftwire/internal/domain"
	"github.com/draftwire/draftwire/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes
// without leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrMissingSignature):
		return http.StatusUnauthorized

	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrEmptyTaskTitle),
		errors.Is(err, domain.ErrEmptyTaskBody),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInsecureImage):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for an internal
// error. Raw error strings never reach the wire.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		return "Publish capability required"

	case errors.Is(err, auth.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid credentials"

	case errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrMissingSignature):
		return "Invalid request signature"

	case errors.Is(err, store.ErrCallbackNotFound):
		return "Callback not found"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, domain.ErrEmptyTaskTitle):
		return "title is required"

	case errors.Is(err, domain.ErrEmptyTaskBody):
		return "content is required"

	case errors.Is(err, domain.ErrInvalidStatus):
		return "post_status must be one of draft, pending-review, published"

	case errors.Is(err, domain.ErrInsecureImage):
		return "hero_image_url must use https"

	default:
		return "An unexpected error occurred"
	}
}
