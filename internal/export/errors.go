package export

import (
	"errors"
	"fmt"
)

// Run-level export failures. Image problems are never among them.
var (
	// ErrMissingRecord is returned when there is no record to export.
	ErrMissingRecord = errors.New("record is required")

	// ErrProfileUnavailable is returned when no company profile could be resolved.
	ErrProfileUnavailable = errors.New("company profile unavailable")

	// ErrComposeFailed is returned when a page could not be composed.
	ErrComposeFailed = errors.New("page composition failed")

	// ErrSnapshotFailed is returned when a composed page could not be rendered.
	ErrSnapshotFailed = errors.New("page snapshot failed")

	// ErrAppendFailed is returned when a snapshot could not be added to the document.
	ErrAppendFailed = errors.New("page append failed")

	// ErrFinalizeFailed is returned when the finished document could not be serialised.
	ErrFinalizeFailed = errors.New("document finalization failed")

	// ErrSinkFailed is returned when the finished document could not be stored.
	ErrSinkFailed = errors.New("saving document failed")

	// ErrRecordUnavailable is returned when the record to export could not be loaded.
	ErrRecordUnavailable = errors.New("record unavailable")
)

// ExportError is the single failure reported for a failed export run.
type ExportError struct {
	// Op is the operation that failed (e.g., "Snapshot", "AppendPage").
	Op string

	// Page is the 1-based page being processed, 0 when the failure is not page specific.
	Page int

	// RunID identifies the export run in the logs.
	RunID string

	// Err is the underlying error. It matches one of the sentinel errors above.
	Err error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("export: %s failed on page %d: %v", e.Op, e.Page, e.Err)
	}
	return fmt.Sprintf("export: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExportError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ExportError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// newExportError tags cause with the sentinel kind so callers can match either.
func newExportError(op string, page int, runID string, kind, cause error) *ExportError {
	err := kind
	if cause != nil && !errors.Is(cause, kind) {
		err = fmt.Errorf("%w: %w", kind, cause)
	}
	return &ExportError{Op: op, Page: page, RunID: runID, Err: err}
}
