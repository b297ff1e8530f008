package track

import (
	"fmt"
	"sync/atomic"

	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/signal"
	"github.com/rpggio/nowloop/internal/syncx"
	"github.com/rpggio/nowloop/internal/units"
)

// Track is one loop. The machine and the Apply*/Update methods belong to the
// audio thread; the control side reads published state and requests changes.
type Track struct {
	id         ID
	input      plugin.AudioInputID
	start      units.Time[units.AudioSample]
	startBeats units.ContinuousDuration[units.Beat]
	grid       Grid
	machine    *Machine

	finishRequested atomic.Bool

	pan    syncx.Float
	volume syncx.Float
	muted  atomic.Bool

	plugins *plugin.Chain
	meter   *signal.Meter

	pub           syncx.SeqLock
	pubState      syncx.Word
	pubDuration   syncx.Word
	pubBeats      syncx.Word
	pubExact      syncx.Word
	pubLastSample syncx.Word
}

// Params describes a new track.
type Params struct {
	ID         ID
	Input      plugin.AudioInputID
	Start      units.Time[units.AudioSample]
	StartBeats units.ContinuousDuration[units.Beat]
	Grid       Grid
	Pan        float64
	Volume     float64
	MeterSize  int
}

// New returns a track in Recording.
func New(p Params) *Track {
	t := &Track{
		id:         p.ID,
		input:      p.Input,
		start:      p.Start,
		startBeats: p.StartBeats,
		grid:       p.Grid,
		machine:    NewMachine(p.Start, p.Grid),
		plugins:    plugin.NewChain(),
		meter:      signal.NewMeter(p.MeterSize),
	}
	t.pan.Store(p.Pan)
	t.volume.Store(p.Volume)
	t.publish(p.Start)
	return t
}

// ID returns the track id.
func (t *Track) ID() ID { return t.id }

// Input returns the audio input the track records from.
func (t *Track) Input() plugin.AudioInputID { return t.input }

// Plugins returns the track's plugin chain.
func (t *Track) Plugins() *plugin.Chain { return t.plugins }

// Meter holds the levels reported for the track.
func (t *Track) Meter() *signal.Meter { return t.meter }

// Start is the sample position the track started recording at.
func (t *Track) Start() units.Time[units.AudioSample] { return t.start }

// RequestFinish claims the single finish request a track accepts. It does not
// touch the machine; the audio thread applies the request with ApplyFinish.
func (t *Track) RequestFinish() error {
	if !t.finishRequested.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: finish already requested for track %d", ErrInvalidState, t.id)
	}
	return nil
}

// CancelFinish withdraws a finish request the audio thread never received.
func (t *Track) CancelFinish() { t.finishRequested.Store(false) }

// State returns the state as seen from the control side: a track with a
// pending finish request reports FinishRecording before the audio thread has
// applied it.
func (t *Track) State() State {
	var st State
	t.pub.Read(func() {
		st = State(t.pubState.Int())
	})
	if st == StateRecording && t.finishRequested.Load() {
		return StateFinishRecording
	}
	return st
}

// ApplyFinish runs a queued finish request at now. Audio thread only.
func (t *Track) ApplyFinish(now units.Time[units.AudioSample]) error {
	if err := t.machine.RequestFinish(now); err != nil {
		return err
	}
	t.publish(now)
	return nil
}

// Update advances the machine to now and publishes the result. It reports
// true when the track started looping in this call. Audio thread only.
func (t *Track) Update(now units.Time[units.AudioSample]) bool {
	looped := t.machine.Advance(now)
	t.publish(now)
	return looped
}

// Machine exposes the audio-thread state machine.
func (t *Track) Machine() *Machine { return t.machine }

// ApplyPan stores a pan already validated by the control side.
func (t *Track) ApplyPan(v float64) { t.pan.Store(v) }

// ApplyVolume stores a validated volume.
func (t *Track) ApplyVolume(v float64) { t.volume.Store(v) }

// ApplyMuted stores the mute flag.
func (t *Track) ApplyMuted(v bool) { t.muted.Store(v) }

// Pan returns the pan, 0 left to 1 right.
func (t *Track) Pan() float64 { return t.pan.Load() }

// Volume returns the volume.
func (t *Track) Volume() float64 { return t.volume.Load() }

// Muted reports whether the track is muted.
func (t *Track) Muted() bool { return t.muted.Load() }

// Info builds a view of the track at now, the control side's latest clock
// position. A track published for a later block is viewed at that block.
func (t *Track) Info(now units.Time[units.AudioSample]) Info {
	var (
		st                   State
		dur, beats, lastSamp int64
		exact                float64
	)
	t.pub.Read(func() {
		st = State(t.pubState.Int())
		dur = t.pubDuration.Int()
		beats = t.pubBeats.Int()
		exact = t.pubExact.Float()
		lastSamp = t.pubLastSample.Int()
	})

	last := units.TimeOf[units.AudioSample](lastSamp)
	at := units.MaxTime(now, last)
	duration := units.DurationOf[units.AudioSample](dur)
	local := localClock(st, at.Since(t.start), duration)

	if st == StateRecording && t.finishRequested.Load() {
		st = StateFinishRecording
	}
	return Info{
		ID:               t.id,
		AudioInput:       t.input,
		State:            st,
		IsTrackLooping:   st == StateLooping,
		StartTime:        t.start,
		StartTimeInBeats: t.startBeats,
		Duration:         duration,
		DurationInBeats:  units.DurationOf[units.Beat](beats),
		ExactDuration:    units.ContinuousOf[units.Second](exact),
		LocalClockTime:   local,
		LocalClockBeat:   t.grid.Beats(local),
		LastSampleTime:   last,
		Pan:              t.pan.Load(),
		Volume:           t.volume.Load(),
		Muted:            t.muted.Load(),
	}
}

func (t *Track) publish(now units.Time[units.AudioSample]) {
	m := t.machine
	t.pub.Write(func() {
		t.pubState.SetInt(int64(m.State()))
		t.pubDuration.SetInt(m.Duration().Int64())
		t.pubBeats.SetInt(m.DurationInBeats().Int64())
		t.pubExact.SetFloat(m.ExactDuration().Float64())
		t.pubLastSample.SetInt(now.Int64())
	})
}
