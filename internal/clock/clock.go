// Package clock derives musical beat time from the running sample count.
package clock

import (
	"fmt"
	"math"

	"github.com/rpggio/nowloop/internal/syncx"
	"github.com/rpggio/nowloop/internal/units"
)

// Config describes a clock at construction.
type Config struct {
	SampleRate      int
	BeatsPerMinute  float64
	BeatsPerMeasure int
}

// Clock tracks the sample position and the beat position derived from it.
//
// Advance and SetBeatsPerMinute belong to the audio thread. Snapshot may be
// called from any goroutine.
type Clock struct {
	sampleRate      int
	beatsPerMeasure int

	// audio-thread state
	bpm        float64
	now        units.Time[units.AudioSample]
	originTime units.Time[units.AudioSample]
	originBeat float64

	published     syncx.SeqLock
	pubTime       syncx.Word
	pubExactBeat  syncx.Word
	pubBPM        syncx.Word
	pubBeatInMeas syncx.Word
}

// New validates cfg and returns a clock positioned at sample zero.
func New(cfg Config) (*Clock, error) {
	if cfg.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if cfg.BeatsPerMeasure <= 0 {
		return nil, ErrInvalidMeasure
	}
	if err := ValidateTempo(cfg.BeatsPerMinute); err != nil {
		return nil, err
	}
	c := &Clock{
		sampleRate:      cfg.SampleRate,
		beatsPerMeasure: cfg.BeatsPerMeasure,
		bpm:             cfg.BeatsPerMinute,
	}
	c.publish()
	return c, nil
}

// ValidateTempo rejects tempos that cannot drive a clock.
func ValidateTempo(bpm float64) error {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTempo, bpm)
	}
	return nil
}

// SampleRate returns the fixed sample rate.
func (c *Clock) SampleRate() int { return c.sampleRate }

// BeatsPerMeasure returns the fixed measure length.
func (c *Clock) BeatsPerMeasure() int { return c.beatsPerMeasure }

// Now returns the current position. Audio thread only.
func (c *Clock) Now() units.Time[units.AudioSample] { return c.now }

// BeatsPerMinute returns the current tempo. Audio thread only.
func (c *Clock) BeatsPerMinute() float64 { return c.bpm }

// SamplesPerBeat returns the beat length at the current tempo. Audio thread only.
func (c *Clock) SamplesPerBeat() float64 {
	return samplesPerBeat(c.sampleRate, c.bpm)
}

// Advance moves the clock forward by d samples and publishes the result.
func (c *Clock) Advance(d units.Duration[units.AudioSample]) (Snapshot, error) {
	if !d.IsSettled() {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNegativeAdvance, d)
	}
	c.now = c.now.Add(d)
	c.publish()
	return c.snapshotLocal(), nil
}

// SetBeatsPerMinute changes the tempo. It is rejected without effect while
// activeTracks is non-zero. The beat position carries over so that ExactBeat
// stays continuous across the change.
func (c *Clock) SetBeatsPerMinute(bpm float64, activeTracks int) error {
	if err := ValidateTempo(bpm); err != nil {
		return err
	}
	if activeTracks > 0 {
		return fmt.Errorf("%w: %d active", ErrTracksExist, activeTracks)
	}
	c.originBeat = c.exactBeat()
	c.originTime = c.now
	c.bpm = bpm
	c.publish()
	return nil
}

// Snapshot returns the most recently published clock state without blocking
// the audio thread.
func (c *Clock) Snapshot() Snapshot {
	var s Snapshot
	c.published.Read(func() {
		s.Time = units.TimeOf[units.AudioSample](c.pubTime.Int())
		s.ExactBeat = units.ContinuousOf[units.Beat](c.pubExactBeat.Float())
		s.BeatsPerMinute = c.pubBPM.Float()
		s.BeatInMeasure = int(c.pubBeatInMeas.Int())
	})
	s.BeatsPerMeasure = c.beatsPerMeasure
	s.SampleRate = c.sampleRate
	return s
}

func (c *Clock) exactBeat() float64 {
	elapsed := float64(c.now.Since(c.originTime).Int64())
	return c.originBeat + elapsed/samplesPerBeat(c.sampleRate, c.bpm)
}

func (c *Clock) snapshotLocal() Snapshot {
	beat := c.exactBeat()
	return Snapshot{
		Time:            c.now,
		ExactBeat:       units.ContinuousOf[units.Beat](beat),
		BeatsPerMinute:  c.bpm,
		BeatInMeasure:   beatInMeasure(beat, c.beatsPerMeasure),
		BeatsPerMeasure: c.beatsPerMeasure,
		SampleRate:      c.sampleRate,
	}
}

func (c *Clock) publish() {
	beat := c.exactBeat()
	c.published.Write(func() {
		c.pubTime.SetInt(c.now.Int64())
		c.pubExactBeat.SetFloat(beat)
		c.pubBPM.SetFloat(c.bpm)
		c.pubBeatInMeas.SetInt(int64(beatInMeasure(beat, c.beatsPerMeasure)))
	})
}

func beatInMeasure(exactBeat float64, beatsPerMeasure int) int {
	whole := int64(math.Floor(exactBeat))
	m := whole % int64(beatsPerMeasure)
	if m < 0 {
		m += int64(beatsPerMeasure)
	}
	return int(m)
}

func samplesPerBeat(sampleRate int, bpm float64) float64 {
	return float64(sampleRate) * 60 / bpm
}
