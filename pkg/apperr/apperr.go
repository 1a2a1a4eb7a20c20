// Package apperr carries the coded errors that the gateway renders into
// response envelopes. Code values are part of the public API.
package apperr

import (
	"errors"
	"fmt"
)

// Code is an UPPER_SNAKE error code returned to API clients.
type Code string

const (
	SessionExpired     Code = "SESSION_EXPIRED"
	AdminRequired      Code = "ADMIN_REQUIRED"
	AuthRequired       Code = "AUTH_REQUIRED"
	AccessDenied       Code = "ACCESS_DENIED"
	CORSViolation      Code = "CORS_VIOLATION"
	OwnershipViolation Code = "OWNERSHIP_VIOLATION"
	GuestEmailMismatch Code = "GUEST_EMAIL_MISMATCH"
	Validation         Code = "VALIDATION"
	Conflict           Code = "CONFLICT"
	NotFound           Code = "NOT_FOUND"
	RateLimited        Code = "RATE_LIMITED"
	LocationLocked     Code = "LOCATION_LOCKED"
	HasStock           Code = "HAS_STOCK"
	HasActivePickings  Code = "HAS_ACTIVE_PICKINGS"
	CircularLoop       Code = "CIRCULAR_LOOP"
	InvalidValue       Code = "INVALID_VALUE"
	InvalidState       Code = "INVALID_STATE"
	InsufficientStock  Code = "INSUFFICIENT_STOCK"
	LimitExceeded      Code = "LIMIT_EXCEEDED"
	Expired            Code = "EXPIRED"
	ServerError        Code = "SERVER_ERROR"
)

// Error is an error with a client-facing code.
type Error struct {
	Code    Code
	Message string
	// Field names the offending input for VALIDATION errors.
	Field string
	// RetryAfter is set in seconds on RATE_LIMITED errors.
	RetryAfter int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == ""
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code to an underlying error.
func Wrap(code Code, err error, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func Validationf(field, format string, args ...interface{}) *Error {
	return &Error{Code: Validation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Code: NotFound, Message: fmt.Sprintf(format, args...) + " not found"}
}

func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Code: Conflict, Message: fmt.Sprintf(format, args...)}
}

func RateLimitedAfter(seconds int) *Error {
	if seconds < 1 {
		seconds = 1
	}
	return &Error{Code: RateLimited, Message: "too many requests", RetryAfter: seconds}
}

// Sentinel returns a code-only error usable as an errors.Is target.
func Sentinel(code Code) *Error { return &Error{Code: code} }

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of err, or SERVER_ERROR when err carries none.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if e, ok := As(err); ok {
		return e.Code
	}
	return ServerError
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
