package track

import (
	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/units"
)

// ID identifies a track. IDs are 1-based and never reused.
type ID int

// Undefined is the invalid zero track id.
const Undefined ID = 0

// State is a track's lifecycle position.
type State int32

const (
	StateUninitialized State = iota
	StateRecording
	StateFinishRecording
	StateLooping
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateRecording:
		return "Recording"
	case StateFinishRecording:
		return "FinishRecording"
	case StateLooping:
		return "Looping"
	default:
		return "Unknown"
	}
}

// MarshalText renders the state name in JSON and YAML.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Info is a read-only view of a track at one instant.
type Info struct {
	ID               ID
	AudioInput       plugin.AudioInputID
	State            State
	IsTrackLooping   bool
	StartTime        units.Time[units.AudioSample]
	StartTimeInBeats units.ContinuousDuration[units.Beat]
	Duration         units.Duration[units.AudioSample]
	DurationInBeats  units.Duration[units.Beat]
	ExactDuration    units.ContinuousDuration[units.Second]
	LocalClockTime   units.Duration[units.AudioSample]
	LocalClockBeat   units.ContinuousDuration[units.Beat]
	LastSampleTime   units.Time[units.AudioSample]
	Pan              float64
	Volume           float64
	Muted            bool
}
