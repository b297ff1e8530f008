package plugin

import "fmt"

// Identifiers are 1-based. Zero is the undefined value and is never valid.
type (
	AudioInputID  int
	PluginID      int
	ProgramID     int
	InstanceIndex int
)

// Undefined is the zero identifier shared by every identifier kind.
const Undefined = 0

// Check rejects identifiers below 1. kind names the identifier in the error.
func Check[T ~int](kind string, id T) error {
	if id < 1 {
		return fmt.Errorf("%w: %s %d", ErrInvalidID, kind, int(id))
	}
	return nil
}

// CheckAudioInput rejects input ids below 1.
func CheckAudioInput(id AudioInputID) error { return Check("audio input", id) }

// CheckPlugin rejects plugin ids below 1.
func CheckPlugin(id PluginID) error { return Check("plugin", id) }

// CheckProgram rejects program ids below 1.
func CheckProgram(id ProgramID) error { return Check("program", id) }

// CheckIndex rejects instance indexes below 1.
func CheckIndex(idx InstanceIndex) error { return Check("plugin instance index", idx) }
