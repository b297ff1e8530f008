package track

import (
	"fmt"

	"github.com/rpggio/nowloop/internal/domain/plugin"
)

// CheckID rejects track ids below 1.
func CheckID(id ID) error {
	return plugin.Check("track", id)
}

// ValidateFinish checks that a finish request is legal from the given state.
func ValidateFinish(from State) error {
	if from != StateRecording {
		return fmt.Errorf("%w: cannot finish from %s", ErrInvalidState, from)
	}
	return nil
}

// ValidateDelete checks that a track in the given state may be deleted.
func ValidateDelete(from State) error {
	switch from {
	case StateFinishRecording, StateLooping:
		return nil
	}
	return fmt.Errorf("%w: cannot delete from %s", ErrInvalidState, from)
}

// ValidateTransition checks a state change of the machine.
func ValidateTransition(from, to State) error {
	valid := false
	switch from {
	case StateUninitialized:
		valid = to == StateRecording
	case StateRecording:
		valid = to == StateFinishRecording
	case StateFinishRecording:
		valid = to == StateLooping
	}
	if !valid {
		return fmt.Errorf("%w: %s to %s", ErrInvalidState, from, to)
	}
	return nil
}

// ValidateLevel rejects pan or volume values outside [0,1]. sentinel selects
// the error returned.
func ValidateLevel(v float64, sentinel error) error {
	if !(v >= 0 && v <= 1) {
		return fmt.Errorf("%w: %v", sentinel, v)
	}
	return nil
}
