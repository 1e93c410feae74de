package compose

import "errors"

var (
	// ErrMissingRecord is returned when no record is given to compose.
	ErrMissingRecord = errors.New("compose: record is required")

	// ErrInvalidPage is returned for a page descriptor without a valid index.
	ErrInvalidPage = errors.New("compose: page index must be positive")
)
