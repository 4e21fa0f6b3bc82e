// Package apperr holds the error taxonomy shared by the store, the identity
// provider and the HTTP layer: provider codes with their user-facing
// messages, field-level validation errors and wrapped store failures.
package apperr

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("not found")
	// ErrOperationFailed marks a record-store call that failed after logging.
	ErrOperationFailed = errors.New("operation failed")
)

// Error is a coded error raised by the identity provider or the record store.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return string(e.Code) + ": " + e.Msg
	}
	if e.Err != nil {
		return string(e.Code) + ": " + e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Wrap returns a coded error around err.
func Wrap(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// CodeOf extracts the code from err, or "" when err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// ValidationError is a local, field-level error surfaced to the caller as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Invalid returns a validation error for field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// OpError is a store failure. It matches both ErrOperationFailed and the
// underlying cause with errors.Is.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return "failed to " + e.Op }

func (e *OpError) Unwrap() []error { return []error{ErrOperationFailed, e.Err} }

// OperationFailed wraps a store error for op. Not-found errors pass through
// unchanged so callers can still map them to 404.
func OperationFailed(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return &OpError{Op: op, Err: err}
}

// Record is the structured form an error takes when it is logged.
type Record struct {
	Message   string    `json:"message"`
	Code      Code      `json:"code,omitempty"`
	Context   string    `json:"context,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecord builds a Record for err using the user-facing message table.
func NewRecord(err error, context, userID string) Record {
	return Record{
		Message:   Message(err),
		Code:      CodeOf(err),
		Context:   context,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}
