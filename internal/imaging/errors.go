package imaging

import (
	"errors"
	"fmt"
)

// Common image fetch and transcode errors
var (
	// ErrEmptyRef is returned when an item has no image reference.
	ErrEmptyRef = errors.New("empty image reference")

	// ErrUnsupportedRef is returned when no fetcher handles the reference scheme.
	ErrUnsupportedRef = errors.New("unsupported image reference")

	// ErrImageTooLarge is returned when the source exceeds MaxImageBytes or MaxImagePixels.
	ErrImageTooLarge = errors.New("image exceeds the maximum size (20MB or 40 megapixels)")

	// ErrFetchFailed is returned when the image bytes could not be retrieved.
	ErrFetchFailed = errors.New("image fetch failed")

	// ErrDecodeFailed is returned when the bytes are not a supported image.
	ErrDecodeFailed = errors.New("image decode failed")

	// ErrEncodeFailed is returned when the resized image could not be encoded.
	ErrEncodeFailed = errors.New("image encode failed")

	// ErrMissingBucket is returned for a bare object key when no default bucket is configured.
	ErrMissingBucket = errors.New("object reference has no bucket and no default bucket is configured")
)

// ImageError wraps errors with the reference being processed.
type ImageError struct {
	// Op is the operation that failed (e.g., "Fetch", "Decode").
	Op string

	// Ref is the image reference.
	Ref string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ImageError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("imaging: %s failed for %q: %s: %v", e.Op, e.Ref, e.Details, e.Err)
	}
	return fmt.Sprintf("imaging: %s failed for %q: %v", e.Op, e.Ref, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ImageError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ImageError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapImageError wraps an error as an ImageError if it isn't already one.
func WrapImageError(op, ref string, err error, details string) error {
	if err == nil {
		return nil
	}

	var imageErr *ImageError
	if errors.As(err, &imageErr) {
		return err
	}

	return &ImageError{Op: op, Ref: ref, Err: err, Details: details}
}
