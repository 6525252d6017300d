package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned by FindOne when no document matches the filter.
	ErrNotFound = errors.New("document not found")

	// ErrUnavailable is returned when the backend cannot be reached: network
	// failures, server selection timeouts, a disconnected client, or a
	// cancelled request.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrOperationFailed is returned when the backend was reached but rejected
	// or failed the operation.
	ErrOperationFailed = errors.New("backend operation failed")

	// ErrDuplicate is returned when an insert violates a unique index.
	// It is a kind of ErrOperationFailed.
	ErrDuplicate = fmt.Errorf("%w: duplicate key", ErrOperationFailed)

	// ErrTimeout is returned when the server aborted an operation because it
	// exceeded its maxTime. It is a kind of ErrOperationFailed.
	ErrTimeout = fmt.Errorf("%w: operation exceeded time limit", ErrOperationFailed)
)

// IsNotFoundError reports whether err is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailableError reports whether err is or wraps ErrUnavailable.
func IsUnavailableError(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Namespace Namespace // The database and collection addressed
	Operation string    // The operation that failed (e.g., "find", "insert_many")
	Message   string    // Error message
	Err       error     // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Namespace,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Namespace, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given namespace, operation, message, and wrapped error.
func NewStoreError(ns Namespace, operation, message string, err error) *StoreError {
	return &StoreError{
		Namespace: ns,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
