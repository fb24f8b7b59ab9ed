// Package errors provides standardized domain errors with codes for the chapterd API.
//
// Usage:
//
//	// In services - return typed errors
//	if len(boundaries) == 0 {
//	    return errors.NoChapters("no chapter markers matched the transcript")
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrNoChapters) {
//	    ...
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeValidation         Code = "VALIDATION"
	CodeConflict           Code = "CONFLICT"
	CodeInternal           Code = "INTERNAL"
	CodeMalformedTimestamp Code = "MALFORMED_TIMESTAMP"
	CodeTimeUnderflow      Code = "TIME_UNDERFLOW"
	CodeNoChapters         Code = "NO_CHAPTERS_DETECTED"
	CodeSidecarWrite       Code = "SIDECAR_WRITE_FAILED"
	CodeSidecarParse       Code = "SIDECAR_PARSE_FAILED"
	CodeUnsupportedLang    Code = "UNSUPPORTED_LANGUAGE"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict:
		return http.StatusConflict
	case CodeValidation, CodeMalformedTimestamp, CodeTimeUnderflow, CodeUnsupportedLang:
		return http.StatusBadRequest
	case CodeNoChapters, CodeSidecarParse:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists      = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict           = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
	ErrMalformedTimestamp = &Error{Code: CodeMalformedTimestamp, Message: "malformed timestamp"}
	ErrTimeUnderflow      = &Error{Code: CodeTimeUnderflow, Message: "timestamp underflow"}
	ErrNoChapters         = &Error{Code: CodeNoChapters, Message: "no chapters detected"}
	ErrSidecarWrite       = &Error{Code: CodeSidecarWrite, Message: "sidecar write failed"}
	ErrSidecarParse       = &Error{Code: CodeSidecarParse, Message: "sidecar parse failed"}
	ErrUnsupportedLang    = &Error{Code: CodeUnsupportedLang, Message: "unsupported language"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// AlreadyExistsf creates an already exists error with formatted message.
func AlreadyExistsf(format string, args ...any) *Error {
	return &Error{Code: CodeAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// MalformedTimestamp creates a malformed timestamp error.
func MalformedTimestamp(msg string) *Error {
	return &Error{Code: CodeMalformedTimestamp, Message: msg}
}

// MalformedTimestampf creates a malformed timestamp error with formatted message.
func MalformedTimestampf(format string, args ...any) *Error {
	return &Error{Code: CodeMalformedTimestamp, Message: fmt.Sprintf(format, args...)}
}

// TimeUnderflow creates a timestamp underflow error.
func TimeUnderflow(msg string) *Error {
	return &Error{Code: CodeTimeUnderflow, Message: msg}
}

// NoChapters creates a no chapters detected error.
func NoChapters(msg string) *Error {
	return &Error{Code: CodeNoChapters, Message: msg}
}

// SidecarWrite creates a sidecar write error.
func SidecarWrite(msg string) *Error {
	return &Error{Code: CodeSidecarWrite, Message: msg}
}

// SidecarParse creates a sidecar parse error.
func SidecarParse(msg string) *Error {
	return &Error{Code: CodeSidecarParse, Message: msg}
}

// SidecarParsef creates a sidecar parse error with formatted message.
func SidecarParsef(format string, args ...any) *Error {
	return &Error{Code: CodeSidecarParse, Message: fmt.Sprintf(format, args...)}
}

// UnsupportedLanguage creates an unsupported language error.
func UnsupportedLanguage(msg string) *Error {
	return &Error{Code: CodeUnsupportedLang, Message: msg}
}

// Wrap annotates an error as an internal failure. Callers needing a specific
// code build it with a constructor and WithCause.
func Wrap(err error, msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg, cause: err}
}

// Wrapf annotates an error as an internal failure with a formatted message.
func Wrapf(err error, format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...), cause: err}
}
