package repositories

import (
	"errors"
	"fmt"
)

// ValidationError rejects malformed input before any store access. Never
// retryable.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError means the referenced position or reservation does not exist
// at the expected key. Cancelling or fulfilling an already-terminal
// reservation reports this too.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// InsufficientStockError is the business-rule failure of exit/transfer: the
// request exceeds the physical quantity at the position. Carries the numbers
// so callers can show an actionable message.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: available %d, requested %d", e.Available, e.Requested)
}

// InsufficientAvailableError is the reservation-admission failure: the
// request exceeds the unreserved portion of the position.
type InsufficientAvailableError struct {
	Stock     int
	Reserved  int
	Available int
	Requested int
}

func (e *InsufficientAvailableError) Error() string {
	return fmt.Sprintf("insufficient available stock: stock %d, reserved %d, available %d, requested %d",
		e.Stock, e.Reserved, e.Available, e.Requested)
}

// PersistenceError wraps store-level failures (I/O, lock timeout, constraint
// violation) after the transaction has been rolled back. Transient; the
// caller may retry.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsBusinessError reports whether err is an expected, user-facing failure
// rather than a store fault.
func IsBusinessError(err error) bool {
	var ve *ValidationError
	var nf *NotFoundError
	var is *InsufficientStockError
	var ia *InsufficientAvailableError
	return errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &is) || errors.As(err, &ia)
}
