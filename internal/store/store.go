package store

import (
	"context"
	"time"
)

// KeyValue is the minimal contract the publish pipeline needs from its
// backing store: keyed reads, writes with an expiry, and deletes. Any
// keyed store with TTL support can implement it.
type KeyValue interface {
	// Get returns the value stored under key, or ErrNotFound if the key
	// does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A ttl of zero means the entry does
	// not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the entry under key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error
}
