package docstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no document exists under the requested key.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a write violates a store-level unique constraint.
	ErrConflict = errors.New("document conflicts with an existing document")
	// ErrUnavailable is returned when the backend cannot be reached.
	ErrUnavailable = errors.New("document store unavailable")
)

// Error describes a failed store operation.
type Error struct {
	Op         string
	Collection string
	ID         string
	Err        error
	Msg        string
}

func (e *Error) Error() string {
	target := e.Collection
	if e.ID != "" {
		target = fmt.Sprintf("%s/%s", e.Collection, e.ID)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, target, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, target, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err wraps ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
