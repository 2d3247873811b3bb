// Package apperr defines the error kinds shared by the storage layer and the
// HTTP handlers. Storage code returns *Error values; handlers map the kind to
// a status code.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Internal Kind = iota
	Unauthorized
	Forbidden
	NotFound
	Invalid
	InvalidRange
	Conflict
	InvalidState
	ConstraintViolation
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Invalid:
		return "invalid"
	case InvalidRange:
		return "invalid_range"
	case Conflict:
		return "conflict"
	case InvalidState:
		return "invalid_state"
	case ConstraintViolation:
		return "constraint_violation"
	default:
		return "internal"
	}
}

// Error carries a kind, a client-safe reason and, optionally, the cause.
type Error struct {
	Kind      Kind
	Reason    string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of the reason.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnauthorized        = &Error{Kind: Unauthorized, Reason: "unauthorized"}
	ErrForbidden           = &Error{Kind: Forbidden, Reason: "forbidden"}
	ErrNotFound            = &Error{Kind: NotFound, Reason: "not found"}
	ErrInvalid             = &Error{Kind: Invalid, Reason: "invalid input"}
	ErrInvalidRange        = &Error{Kind: InvalidRange, Reason: "invalid date range"}
	ErrConflict            = &Error{Kind: Conflict, Reason: "conflict"}
	ErrInvalidState        = &Error{Kind: InvalidState, Reason: "invalid state"}
	ErrConstraintViolation = &Error{Kind: ConstraintViolation, Reason: "constraint violation"}
)

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause that is logged but never shown to clients.
func Wrap(kind Kind, err error, reason string) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// Retryable marks a conflict caused by lock contention.
func Retryable(err error, reason string) *Error {
	return &Error{Kind: Conflict, Reason: reason, Retryable: true, Err: err}
}

// KindOf returns Internal for errors that are not *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// Reason returns the client-safe message of err. Internal errors never leak
// their text.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Reason
	}
	return "internal error"
}
