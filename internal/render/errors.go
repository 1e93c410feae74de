package render

import (
	"errors"
	"fmt"
)

var (
	// ErrNilPage is returned when there is no composed page to snapshot.
	ErrNilPage = errors.New("no page to render")

	// ErrEmptySnapshot is returned when a snapshot without image data is appended.
	ErrEmptySnapshot = errors.New("snapshot has no image data")

	// ErrEmptyArtifact is returned when an artifact without pages is serialised.
	ErrEmptyArtifact = errors.New("artifact has no pages")

	// ErrFinalized is returned when a page is appended after the artifact was serialised.
	ErrFinalized = errors.New("artifact is already finalized")

	// ErrDiscarded is returned when a discarded artifact is used.
	ErrDiscarded = errors.New("artifact was discarded")
)

// RenderError wraps errors with the page being rendered.
type RenderError struct {
	// Op is the operation that failed (e.g., "Snapshot", "AppendPage").
	Op string

	// Page is the 1-based page number, 0 when not page specific.
	Page int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("render: %s failed on page %d: %v", e.Op, e.Page, e.Err)
	}
	return fmt.Sprintf("render: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RenderError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *RenderError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapRenderError wraps an error as a RenderError if it isn't already one.
func WrapRenderError(op string, page int, err error) error {
	if err == nil {
		return nil
	}

	var renderErr *RenderError
	if errors.As(err, &renderErr) {
		return err
	}

	return &RenderError{Op: op, Page: page, Err: err}
}
