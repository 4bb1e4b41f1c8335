package errs

import (
	"errors"
	"fmt"
)

// ErrNotFound covers both "does not exist" and "exists but is not owned by
// the caller" — the two are deliberately indistinguishable so that an
// ownership probe cannot confirm existence.
var ErrNotFound = errors.New("not found")

// ErrConflict signals a lost version-number allocation race. The prompt
// service retries a bounded number of times before surfacing it.
var ErrConflict = errors.New("conflict")

// ValidationError reports a field-level input problem. Never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StoreError wraps an underlying storage failure. Surfaced as an opaque
// server error; the core never retries it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func Store(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}
