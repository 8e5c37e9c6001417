package serrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error by the way it should surface to callers.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalidState
	KindValidation
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// HTTPStatus maps a kind onto the status code used by the JSON API.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState, KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a typed error carrying a stable code for API consumers.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Field names the offending input for validation failures.
	Field string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// WithCause returns a copy of e wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

// WithField returns a copy of e pointing at field.
func (e *Error) WithField(field string) *Error {
	cp := *e
	cp.Field = field
	return &cp
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Unauthenticated(code, message string) *Error {
	return newError(KindUnauthenticated, code, message)
}

func Forbidden(code, message string) *Error {
	return newError(KindForbidden, code, message)
}

func NotFound(code, message string) *Error {
	return newError(KindNotFound, code, message)
}

func InvalidState(code, message string) *Error {
	return newError(KindInvalidState, code, message)
}

func Validation(code, field, message string) *Error {
	e := newError(KindValidation, code, message)
	e.Field = field
	return e
}

func Conflict(code, message string) *Error {
	return newError(KindConflict, code, message)
}

func Internal(code, message string, cause error) *Error {
	e := newError(KindInternal, code, message)
	e.Cause = cause
	return e
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// KindOf reports the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
