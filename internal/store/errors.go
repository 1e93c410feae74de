package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record or client does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidFixture is returned when a fixture file cannot be parsed.
	ErrInvalidFixture = errors.New("invalid fixture file")

	// ErrMissingProject is returned when no Google Cloud project is configured for Firestore.
	ErrMissingProject = errors.New("missing Google Cloud project: set GOOGLE_CLOUD_PROJECT")
)

// StoreError wraps errors with the store operation that failed.
type StoreError struct {
	// Op is the operation that failed (e.g., "GetRecord", "UpdateRecord").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("store: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("store: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapStoreError wraps an error as a StoreError if it isn't already one.
func WrapStoreError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}

	return &StoreError{Op: op, Err: err, Details: details}
}
