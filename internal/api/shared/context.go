package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// ContextKey is the type for context values set by the API layer.
type ContextKey string

const (
	// CallerContextKey holds the authenticated caller's username.
	CallerContextKey ContextKey = "caller"

	// TraceIDKey holds the per-request trace ID.
	TraceIDKey ContextKey = "traceID"

	// traceIDLength is the number of random bytes in a trace ID.
	traceIDLength = 16 // 32 hex characters
)

// SetTraceID attaches a fresh trace ID to the context for log and
// error-response correlation.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID returns the trace ID from the context, or "" if unset.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// SetCaller records the authenticated caller on the context.
func SetCaller(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, CallerContextKey, username)
}

// GetCaller returns the authenticated caller, or "" if the request was
// not authenticated.
func GetCaller(ctx context.Context) string {
	caller, ok := ctx.Value(CallerContextKey).(string)
	if !ok {
		return ""
	}
	return caller
}

// generateTraceID returns a random 32-character hex string. If the
// system entropy source fails it falls back to a time-derived value
// rather than a static one.
func generateTraceID() string {
	b := make([]byte, traceIDLength)
	if n, err := rand.Read(b); err != nil || n != traceIDLength {
		binary.BigEndian.PutUint64(b[:8], uint64(time.Now().UnixNano()))
		binary.BigEndian.PutUint64(b[8:], uint64(time.Now().Unix()))
	}
	return hex.EncodeToString(b)
}
