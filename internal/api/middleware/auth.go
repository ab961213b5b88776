package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/draftwire/draftwire/internal/api/shared"
	"github.com/draftwire/draftwire/internal/auth"
)

// maxSignedBodyBytes bounds how much of a request body the signature
// check will buffer.
const maxSignedBodyBytes = 1 << 20 // 1 MiB

// PublishAuth guards the admission endpoint: Basic-Auth credentials
// checked against the identity provider, plus an HMAC signature over
// the exact raw body. Both must pass; failures are terminal for the
// request. The buffered body is restored for the next handler.
func PublishAuth(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.Authenticate(r)
			if err != nil {
				if errors.Is(err, auth.ErrForbidden) {
					shared.RespondWithError(w, r, http.StatusForbidden, "Publish capability required")
					return
				}
				w.Header().Set("WWW-Authenticate", `Basic realm="draftwire"`)
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxSignedBodyBytes+1))
			if err != nil {
				shared.RespondWithError(w, r, http.StatusBadRequest, "Failed to read request body")
				return
			}
			if len(body) > maxSignedBodyBytes {
				shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}

			if err := verifier.VerifyBody(r.Context(), body, r.Header.Get(auth.SignatureHeader)); err != nil {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid request signature")
				return
			}

			// The signature check consumed the body; hand the handler a
			// fresh reader over the same bytes.
			r.Body = io.NopCloser(bytes.NewReader(body))

			ctx := shared.SetCaller(r.Context(), identity.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminAuth guards the administrative surface with a bearer JWT issued
// from the shared admin secret.
func AdminAuth(tokens *auth.AdminTokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			subject, err := tokens.ValidateToken(parts[1])
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
					return
				}
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := shared.SetCaller(r.Context(), subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
