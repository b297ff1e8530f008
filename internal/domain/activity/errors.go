package activity

import "errors"

var (
	// ErrInvalidInput indicates a missing or malformed activity entry.
	ErrInvalidInput = errors.New("invalid activity input")
	// ErrMessageOutOfRange indicates a log message index outside the retained window.
	ErrMessageOutOfRange = errors.New("log message index out of range")
)
