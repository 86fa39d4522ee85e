package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed domain error. Code and Message travel to API clients,
// Status picks the HTTP mapping, and the cause stays server-side.
//
// The predefined errors below are templates: call sites derive concrete
// instances with With and Because instead of constructing errors ad hoc,
// so every failure keeps a stable code.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	cause   error
}

// New defines an error template.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.cause == nil:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// With derives a copy carrying a more specific message.
func (e *Error) With(message string) *Error {
	if e == nil {
		return nil
	}
	derived := *e
	if message != "" {
		derived.Message = message
	}
	return &derived
}

// Withf is With for formatted messages.
func (e *Error) Withf(format string, args ...interface{}) *Error {
	return e.With(fmt.Sprintf(format, args...))
}

// Because derives a copy wrapping the underlying cause.
func (e *Error) Because(cause error) *Error {
	if e == nil {
		return nil
	}
	derived := *e
	derived.cause = cause
	return &derived
}

// Templates for the failure classes this system knows about.
var (
	ErrLookup     = New("LOOKUP_FAILED", http.StatusNotFound, "target not found")
	ErrConflict   = New("NAME_CONFLICT", http.StatusConflict, "display name resolves to multiple targets")
	ErrFreePeriod = New("FREE_PERIOD", http.StatusUnprocessableEntity, "requested slot is a free period")
	ErrFetch      = New("FETCH_FAILED", http.StatusBadGateway, "upstream fetch failed")
	ErrUpstream   = New("UPSTREAM_STATUS", http.StatusBadGateway, "upstream returned an error status")
	ErrCacheWrite = New("CACHE_WRITE_FAILED", http.StatusInternalServerError, "failed to persist cache entry")
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// Convert coerces any error into an *Error, treating unknown errors as
// internal.
func Convert(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.Because(err)
}
