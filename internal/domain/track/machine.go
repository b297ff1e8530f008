package track

import (
	"github.com/rpggio/nowloop/internal/units"
)

// Machine is the recording lifecycle of one track. It is owned by the audio
// thread and never locks or allocates after construction.
type Machine struct {
	state  State
	start  units.Time[units.AudioSample]
	grid   Grid
	quanta int64

	duration      units.Duration[units.AudioSample]
	durationBeats units.Duration[units.Beat]
	exactDuration units.ContinuousDuration[units.Second]
}

// NewMachine returns a machine recording from start on the given grid.
func NewMachine(start units.Time[units.AudioSample], grid Grid) *Machine {
	return &Machine{state: StateRecording, start: start, grid: grid}
}

// State returns the current lifecycle state.
func (m *Machine) State() State { return m.state }

// Start returns the recording start position.
func (m *Machine) Start() units.Time[units.AudioSample] { return m.start }

// Duration returns the loop length, zero until looping.
func (m *Machine) Duration() units.Duration[units.AudioSample] { return m.duration }

// DurationInBeats returns the loop length in beats, zero until looping.
func (m *Machine) DurationInBeats() units.Duration[units.Beat] { return m.durationBeats }

// ExactDuration returns the unrounded loop length in seconds.
func (m *Machine) ExactDuration() units.ContinuousDuration[units.Second] {
	return m.exactDuration
}

// RequestFinish fixes the boundary the recording will stop at, given the
// current position now.
func (m *Machine) RequestFinish(now units.Time[units.AudioSample]) error {
	if err := ValidateTransition(m.state, StateFinishRecording); err != nil {
		return err
	}
	m.quanta = m.grid.QuantaFor(now.Since(m.start))
	m.state = StateFinishRecording
	return nil
}

// Boundary returns the position recording stops at. It is meaningful only
// once a finish has been requested.
func (m *Machine) Boundary() units.Time[units.AudioSample] {
	return m.start.Add(m.grid.DurationFor(m.quanta))
}

// Advance moves the machine to now. It reports true exactly once, on the call
// where the track starts looping.
func (m *Machine) Advance(now units.Time[units.AudioSample]) bool {
	if m.state != StateFinishRecording || now.Before(m.Boundary()) {
		return false
	}
	m.duration = m.grid.DurationFor(m.quanta)
	m.durationBeats = m.grid.BeatsFor(m.quanta)
	m.exactDuration = units.ContinuousOf[units.Second](
		float64(m.quanta) * m.grid.QuantumSamples() / float64(m.grid.sampleRate))
	m.state = StateLooping
	return true
}

// LocalClockTime returns the play position at now: time since start while
// recording, wrapped by the loop duration once looping.
func (m *Machine) LocalClockTime(now units.Time[units.AudioSample]) units.Duration[units.AudioSample] {
	return localClock(m.state, now.Since(m.start), m.duration)
}

func localClock(state State, elapsed, duration units.Duration[units.AudioSample]) units.Duration[units.AudioSample] {
	if state == StateLooping && duration.Int64() > 0 {
		return elapsed.Mod(duration)
	}
	return elapsed
}
