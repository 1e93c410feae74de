package rollup

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistFailed is returned when a corrected net profit could not be written back.
	// The corrected record is still returned and may be displayed.
	ErrPersistFailed = errors.New("failed to persist reconciled net profit")

	// ErrRecordNotFound is returned when the record to reconcile does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrMissingRecord is returned when a nil record is passed to reconciliation.
	ErrMissingRecord = errors.New("record is required")
)

// ReconcileError wraps errors with the record that failed to reconcile.
type ReconcileError struct {
	// Op is the operation that failed (e.g., "Reconcile", "LoadRecord").
	Op string

	// RecordID identifies the record being reconciled.
	RecordID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ReconcileError) Error() string {
	return fmt.Sprintf("rollup: %s failed for record %s: %v", e.Op, e.RecordID, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ReconcileError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapReconcileError wraps an error as a ReconcileError if it isn't already one.
func WrapReconcileError(op, recordID string, err error) error {
	if err == nil {
		return nil
	}

	var reconcileErr *ReconcileError
	if errors.As(err, &reconcileErr) {
		return err
	}

	return &ReconcileError{Op: op, RecordID: recordID, Err: err}
}
