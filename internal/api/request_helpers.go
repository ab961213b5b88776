package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/draftwire/draftwire/internal/api/shared"
)

// logFromContext returns the default logger annotated with the
// request's trace ID.
func logFromContext(r *http.Request) *slog.Logger {
	return slog.With("trace_id", shared.GetTraceID(r.Context()))
}

// sanitizeValidationError turns a struct-validation error into a
// client-facing message naming the offending field without echoing
// submitted values.
func sanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example: "Key: 'PublishRequest.Title' Error:Field validation
		// for 'Title' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, validationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// validationTagMessage maps validation tags to readable phrases.
func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "url":
		return "must be a well-formed URL"
	case "oneof":
		return "invalid value"
	case "max":
		return "too long"
	default:
		return "validation failed"
	}
}
