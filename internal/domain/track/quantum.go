package track

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rpggio/nowloop/internal/clock"
	"github.com/rpggio/nowloop/internal/units"
)

// Quantum is the grid spacing recordings are rounded up to.
type Quantum struct {
	measure bool
	beats   int
}

// QuantumMeasure rounds recordings up to whole measures.
func QuantumMeasure() Quantum { return Quantum{measure: true} }

// QuantumBeats rounds recordings up to multiples of n beats.
func QuantumBeats(n int) (Quantum, error) {
	if n < 1 {
		return Quantum{}, fmt.Errorf("%w: %d beats", ErrInvalidQuantum, n)
	}
	return Quantum{beats: n}, nil
}

// ParseQuantum reads "beat", "measure" or a positive beat count.
func ParseQuantum(s string) (Quantum, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "measure":
		return QuantumMeasure(), nil
	case "beat":
		return QuantumBeats(1)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Quantum{}, fmt.Errorf("%w: %q", ErrInvalidQuantum, s)
	}
	return QuantumBeats(n)
}

// BeatCount returns the quantum length in beats for the given measure length.
func (q Quantum) BeatCount(beatsPerMeasure int) int {
	if q.measure || q.beats < 1 {
		return beatsPerMeasure
	}
	return q.beats
}

func (q Quantum) String() string {
	if q.measure || q.beats < 1 {
		return "measure"
	}
	if q.beats == 1 {
		return "beat"
	}
	return strconv.Itoa(q.beats)
}

// Grid places quantization boundaries relative to a track's start. Boundary k
// (k >= 1) lies k quanta after the start, rounded up to a whole sample.
type Grid struct {
	quantumBeats   int
	quantumSamples float64
	samplesPerBeat float64
	sampleRate     int
}

// NewGrid builds the grid for q at the snapshot's tempo.
func NewGrid(q Quantum, snap clock.Snapshot) Grid {
	beats := q.BeatCount(snap.BeatsPerMeasure)
	spb := snap.SamplesPerBeat()
	return Grid{
		quantumBeats:   beats,
		quantumSamples: float64(beats) * spb,
		samplesPerBeat: spb,
		sampleRate:     snap.SampleRate,
	}
}

// QuantumSamples returns the fractional length of one quantum.
func (g Grid) QuantumSamples() float64 { return g.quantumSamples }

// SamplesPerBeat returns the beat length the grid was built with.
func (g Grid) SamplesPerBeat() float64 { return g.samplesPerBeat }

// QuantaFor returns the boundary a finish request after elapsed samples lands
// on: the first boundary at or after elapsed, and never fewer than one quantum.
func (g Grid) QuantaFor(elapsed units.Duration[units.AudioSample]) int64 {
	e := elapsed.Int64()
	k := int64(math.Floor(float64(e) / g.quantumSamples))
	if k < 1 {
		k = 1
	}
	for g.DurationFor(k).Int64() < e {
		k++
	}
	return k
}

// DurationFor returns the length of k quanta in whole samples.
func (g Grid) DurationFor(k int64) units.Duration[units.AudioSample] {
	return units.ContinuousOf[units.AudioSample](float64(k) * g.quantumSamples).Ceil()
}

// BeatsFor returns the length of k quanta in beats.
func (g Grid) BeatsFor(k int64) units.Duration[units.Beat] {
	return units.DurationOf[units.Beat](k * int64(g.quantumBeats))
}

// Seconds converts a sample span at the grid's sample rate.
func (g Grid) Seconds(d units.Duration[units.AudioSample]) units.ContinuousDuration[units.Second] {
	return units.ContinuousOf[units.Second](float64(d.Int64()) / float64(g.sampleRate))
}

// Beats converts a sample span at the grid's tempo.
func (g Grid) Beats(d units.Duration[units.AudioSample]) units.ContinuousDuration[units.Beat] {
	return units.ContinuousOf[units.Beat](float64(d.Int64()) / g.samplesPerBeat)
}
