package utils

import (
	"errors"
	"fmt"
)

// ErrValidation marks malformed or missing input. Never retried.
var ErrValidation = errors.New("validation error")

// ErrStorage marks backing-store unavailability on a durability-sensitive
// path (window append, ledger append). The caller decides whether to retry.
var ErrStorage = errors.New("storage error")

// AppError wraps an operation, human-facing message, and underlying error.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}

// NewValidationError constructs an AppError chained to ErrValidation so
// callers can detect it with errors.Is.
func NewValidationError(op, msg string) error {
	return &AppError{Op: op, Msg: msg, Err: ErrValidation}
}

// NewStorageError constructs an AppError chained to ErrStorage, keeping
// the underlying cause in the chain.
func NewStorageError(op string, err error) error {
	return &AppError{Op: op, Msg: "backing store unavailable", Err: fmt.Errorf("%w: %w", ErrStorage, err)}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsStorage reports whether err is a backing-store failure.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}
