package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entry does not exist in
	// the store or has expired. Readers treat this as a benign signal:
	// a missing task or callback means it was already handled.
	ErrNotFound = errors.New("entry not found")

	// ErrInvalidEntry is returned when an entry fails validation or
	// cannot be decoded from its stored representation.
	ErrInvalidEntry = errors.New("invalid entry")

	// Entity-specific "not found" errors

	// ErrTaskNotFound indicates that the requested task does not exist
	// in the store.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrCallbackNotFound indicates that the requested callback does not
	// exist in the store.
	ErrCallbackNotFound = fmt.Errorf("%w: callback", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
