// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ValidationError means the upload itself is unusable (missing file, empty
// sheet, missing required column). The whole invocation aborts before any
// row is processed.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Helper constructor
func NewValidation(msg string) error {
	return &ValidationError{Msg: msg}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// SendError is a delivery failure for a single message. Transient marks the
// 421-class "service temporarily unavailable" responses that are worth
// retrying; everything else is terminal for that row.
type SendError struct {
	Err       error
	Transient bool
}

func (e *SendError) Error() string {
	if e.Transient {
		return fmt.Sprintf("transient send failure: %v", e.Err)
	}
	return fmt.Sprintf("send failure: %v", e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

func NewTransientSend(err error) error {
	return &SendError{Err: err, Transient: true}
}

func NewPermanentSend(err error) error {
	return &SendError{Err: err, Transient: false}
}

// IsTransientSend reports whether err is a retryable delivery failure.
func IsTransientSend(err error) bool {
	var s *SendError
	return errors.As(err, &s) && s.Transient
}

// StorageError wraps a ledger read/write failure. During batch-number
// computation it aborts the invocation; mid-row it fails only that row.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewStorage(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
