package clock

import (
	"github.com/rpggio/nowloop/internal/units"
)

// Snapshot is an immutable view of the clock after one audio block.
type Snapshot struct {
	Time            units.Time[units.AudioSample]
	ExactBeat       units.ContinuousDuration[units.Beat]
	BeatsPerMinute  float64
	BeatInMeasure   int
	BeatsPerMeasure int
	SampleRate      int
}

// SamplesPerBeat returns the beat length in samples at the snapshot's tempo.
func (s Snapshot) SamplesPerBeat() float64 {
	return samplesPerBeat(s.SampleRate, s.BeatsPerMinute)
}

// Beats converts a sample span to beats at the snapshot's tempo.
func (s Snapshot) Beats(d units.Duration[units.AudioSample]) units.ContinuousDuration[units.Beat] {
	return units.ContinuousOf[units.Beat](float64(d.Int64()) / s.SamplesPerBeat())
}

// Samples converts a beat span to fractional samples at the snapshot's tempo.
func (s Snapshot) Samples(b units.ContinuousDuration[units.Beat]) units.ContinuousDuration[units.AudioSample] {
	return units.ContinuousOf[units.AudioSample](b.Float64() * s.SamplesPerBeat())
}

// Seconds converts a sample span to seconds.
func (s Snapshot) Seconds(d units.Duration[units.AudioSample]) units.ContinuousDuration[units.Second] {
	return units.ContinuousOf[units.Second](float64(d.Int64()) / float64(s.SampleRate))
}

// SamplesIn converts seconds to whole samples, rounding up.
func (s Snapshot) SamplesIn(sec units.ContinuousDuration[units.Second]) units.Duration[units.AudioSample] {
	return units.ContinuousOf[units.AudioSample](sec.Float64() * float64(s.SampleRate)).Ceil()
}
