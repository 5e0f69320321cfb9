// Package domainerrors defines the error taxonomy shared by services and the
// HTTP layer. Handlers translate codes to status codes; internal detail stays
// wrapped and is never exposed to callers.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error reason.
type Code string

const (
	// CodeBadRequest marks a request body that could not be parsed at all.
	CodeBadRequest Code = "bad_request"
	// CodeValidation marks a well-formed request with invalid field values.
	CodeValidation Code = "validation_failed"
	// CodeRateLimited marks a throttled request, retriable after the window.
	CodeRateLimited Code = "rate_limited"
	// CodeDuplicateEmail marks the idempotent-rejection path for an email
	// already on file. Permanent for that email, never a crash condition.
	CodeDuplicateEmail Code = "duplicate_email"
	// CodeStorageUnavailable marks a transient store failure, retriable.
	CodeStorageUnavailable Code = "storage_unavailable"
	CodeUnauthorized       Code = "unauthorized"
	CodeNotFound           Code = "not_found"
	CodeInternal           Code = "internal"
)

// Field carries a single field-level validation failure.
type Field struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the domain error type. Message is safe to show to callers; Err
// holds the wrapped cause for logs only.
type Error struct {
	Code    Code
	Message string
	Fields  []Field
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error with a code and a caller-safe message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and caller-safe message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WithFields creates a validation error carrying field-level details.
func WithFields(code Code, message string, fields []Field) *Error {
	return &Error{Code: code, Message: message, Fields: fields}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// unclassified errors so nothing internal leaks through the HTTP layer.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-safe message, with a generic fallback.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// FieldsOf extracts field-level details when present.
func FieldsOf(err error) []Field {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}
