package clock

import "errors"

var (
	// ErrInvalidTempo indicates a non-positive or non-finite BPM.
	ErrInvalidTempo = errors.New("beats per minute must be positive")
	// ErrInvalidMeasure indicates a non-positive beats-per-measure.
	ErrInvalidMeasure = errors.New("beats per measure must be positive")
	// ErrInvalidSampleRate indicates a non-positive sample rate.
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrNegativeAdvance indicates an attempt to move the clock backwards.
	ErrNegativeAdvance = errors.New("clock cannot advance by a negative duration")
	// ErrTracksExist indicates a tempo change while tracks are present.
	ErrTracksExist = errors.New("tempo is locked while tracks exist")
)
