package auth

import "errors"

// Common authentication errors
var (
	// ErrUnauthorized indicates missing, malformed, or rejected
	// credentials. Always terminal for the request; never retried.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates valid credentials without the publish
	// capability.
	ErrForbidden = errors.New("publish capability required")

	// ErrMissingSignature indicates the signature header was absent.
	ErrMissingSignature = errors.New("signature header is missing")

	// ErrInvalidSignature indicates the supplied signature did not match
	// the HMAC of the request body.
	ErrInvalidSignature = errors.New("signature mismatch")

	// ErrEmptyBody indicates a signature check over an empty body, which
	// fails closed.
	ErrEmptyBody = errors.New("request body is empty")

	// ErrInvalidToken indicates the admin token format is invalid or the
	// signature doesn't match.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the admin token has expired.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrMissingToken indicates a token was expected but not provided.
	ErrMissingToken = errors.New("authentication token is missing")
)
