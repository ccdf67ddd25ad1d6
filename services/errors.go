package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrBadRequest = errors.New("bad request")
	// ErrUpstream marks failures of an external collaborator (scheduler,
	// notifier) that the caller cannot fix.
	ErrUpstream = errors.New("upstream failure")
)

// Error is a failure with a client-facing detail message.
type Error struct {
	Kind   error
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func notFound(format string, args ...interface{}) error {
	return &Error{Kind: ErrNotFound, Detail: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...interface{}) error {
	return &Error{Kind: ErrConflict, Detail: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...interface{}) error {
	return &Error{Kind: ErrBadRequest, Detail: fmt.Sprintf(format, args...)}
}

func upstream(err error, format string, args ...interface{}) error {
	return &Error{Kind: ErrUpstream, Detail: fmt.Sprintf(format, args...), Err: err}
}
