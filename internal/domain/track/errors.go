package track

import "errors"

var (
	// ErrTrackNotFound indicates an id that was never allocated or has been deleted.
	ErrTrackNotFound = errors.New("track not found")
	// ErrInvalidState indicates an operation not allowed in the track's current state.
	ErrInvalidState = errors.New("invalid track state for operation")
	// ErrInvalidQuantum indicates a quantum that is not a positive number of beats.
	ErrInvalidQuantum = errors.New("invalid quantum")
	// ErrPanOutOfRange indicates a pan outside [0,1].
	ErrPanOutOfRange = errors.New("pan must be between 0 and 1")
	// ErrVolumeOutOfRange indicates a volume outside [0,1].
	ErrVolumeOutOfRange = errors.New("volume must be between 0 and 1")
)
