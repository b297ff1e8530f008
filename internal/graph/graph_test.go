package graph_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/nowloop/internal/clock"
	"github.com/rpggio/nowloop/internal/domain/activity"
	"github.com/rpggio/nowloop/internal/domain/archive"
	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/domain/track"
	"github.com/rpggio/nowloop/internal/graph"
	"github.com/rpggio/nowloop/internal/repository/mocks"
	"github.com/rpggio/nowloop/internal/signal"
	"github.com/rpggio/nowloop/internal/units"
)

const block = 4000

func newGraph(t *testing.T, mutate func(*graph.Config), deps graph.Deps) *graph.Graph {
	t.Helper()
	cfg := graph.DefaultConfig()
	cfg.BeatsPerMinute = 120
	cfg.BlockSize = block
	if mutate != nil {
		mutate(&cfg)
	}
	g, err := graph.New(cfg, deps)
	require.NoError(t, err)
	return g
}

func runningGraph(t *testing.T, mutate func(*graph.Config)) *graph.Graph {
	t.Helper()
	g := newGraph(t, mutate, graph.Deps{})
	require.NoError(t, g.Initialize(graph.DefaultFFTConfig(), units.ContinuousOf[units.Second](0)))
	require.NoError(t, g.Start())
	return g
}

func advanceTo(t *testing.T, g *graph.Graph, sample int64) {
	t.Helper()
	for {
		snap, err := g.TimeInfo()
		require.NoError(t, err)
		if snap.Time.Int64() >= sample {
			return
		}
		require.NoError(t, g.ProcessBlock(int(min(block, sample-snap.Time.Int64()))))
	}
}

func TestGraph_Lifecycle(t *testing.T) {
	g := newGraph(t, nil, graph.Deps{})
	require.Equal(t, graph.StateUninitialized, g.State())

	require.ErrorIs(t, g.Start(), graph.ErrWrongGraphState)
	_, err := g.Info()
	require.ErrorIs(t, err, graph.ErrWrongGraphState)

	require.NoError(t, g.Initialize(graph.DefaultFFTConfig(), units.ContinuousOf[units.Second](0.5)))
	require.Equal(t, graph.StateInitialized, g.State())
	require.ErrorIs(t, g.Initialize(graph.DefaultFFTConfig(), units.ContinuousOf[units.Second](0)), graph.ErrWrongGraphState)
	require.ErrorIs(t, g.ProcessBlock(block), graph.ErrWrongGraphState)

	info, err := g.Info()
	require.NoError(t, err)
	require.NotEmpty(t, info.SessionID)
	require.Equal(t, 48000, info.SampleRate)
	require.Equal(t, 2, info.InputCount)
	require.Equal(t, "measure", info.Quantum)
	require.InDelta(t, 0.5, info.PreRecordingSeconds, 1e-9)

	require.NoError(t, g.Start())
	require.Equal(t, graph.StateRunning, g.State())
	require.NoError(t, g.ProcessBlock(block))

	cause := errors.New("device lost")
	g.Fail(cause)
	require.Equal(t, graph.StateInError, g.State())
	require.ErrorIs(t, g.LastError(), cause)
	require.ErrorIs(t, g.ProcessBlock(block), graph.ErrWrongGraphState)

	require.NoError(t, g.Reset())
	require.Equal(t, graph.StateUninitialized, g.State())
	require.ErrorIs(t, g.Reset(), graph.ErrWrongGraphState)

	// a new session starts from sample zero
	require.NoError(t, g.Initialize(graph.DefaultFFTConfig(), units.ContinuousOf[units.Second](0)))
	require.NotEqual(t, info.SessionID, g.SessionID())
	snap, err := g.TimeInfo()
	require.NoError(t, err)
	require.Equal(t, int64(0), snap.Time.Int64())

	g.Shutdown()
	require.Equal(t, graph.StateUninitialized, g.State())
	require.Empty(t, g.SessionID())
}

func TestGraph_FailWithoutCause(t *testing.T) {
	g := newGraph(t, nil, graph.Deps{})
	g.Fail(nil)
	require.Equal(t, graph.StateInError, g.State())
	require.ErrorIs(t, g.LastError(), graph.ErrDeviceFailure)
}

func TestGraph_InErrorRejectsOperations(t *testing.T) {
	g := runningGraph(t, nil)
	id, err := g.CreateRecordingTrack(1)
	require.NoError(t, err)
	g.Fail(errors.New("device lost"))

	ops := []struct {
		name string
		call func() error
	}{
		{"create track", func() error { _, err := g.CreateRecordingTrack(1); return err }},
		{"finish recording", func() error { return g.FinishRecording(id) }},
		{"delete track", func() error { return g.DeleteTrack(id) }},
		{"track info", func() error { _, err := g.TrackInfo(id); return err }},
		{"set tempo", func() error { return g.SetBeatsPerMinute(90) }},
		{"add track plugin", func() error {
			_, err := g.AddTrackPluginInstance(context.Background(), id, 1, 1, 50)
			return err
		}},
		{"input pan", func() error { return g.SetInputPan(1, 0.2) }},
		{"graph info", func() error { _, err := g.Info(); return err }},
		{"time info", func() error { _, err := g.TimeInfo(); return err }},
		{"process block", func() error { return g.ProcessBlock(block) }},
	}
	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			require.ErrorIs(t, op.call(), graph.ErrWrongGraphState)
		})
	}

	require.Equal(t, graph.StateInError, g.State())
	g.Shutdown()
	require.Equal(t, graph.StateUninitialized, g.State())
	require.Empty(t, g.SessionID())
}

func TestGraph_InvalidConfig(t *testing.T) {
	cfg := graph.DefaultConfig()
	cfg.SampleRate = 0
	_, err := graph.New(cfg, graph.Deps{})
	require.ErrorIs(t, err, graph.ErrInvalidConfig)

	cfg = graph.DefaultConfig()
	cfg.BeatsPerMinute = -1
	_, err = graph.New(cfg, graph.Deps{})
	require.ErrorIs(t, err, graph.ErrInvalidConfig)
	require.ErrorIs(t, err, clock.ErrInvalidTempo)

	g := newGraph(t, nil, graph.Deps{})
	fft := graph.DefaultFFTConfig()
	fft.FFTSize = 1000
	require.ErrorIs(t, g.Initialize(fft, units.ContinuousOf[units.Second](0)), graph.ErrInvalidFFT)
	require.ErrorIs(t, g.Initialize(graph.DefaultFFTConfig(), units.ContinuousOf[units.Second](-1)), graph.ErrInvalidConfig)
	require.Equal(t, graph.StateUninitialized, g.State())
}

func TestGraph_WaitForState(t *testing.T) {
	g := runningGraph(t, nil)
	ctx := context.Background()

	require.NoError(t, g.WaitForState(ctx, graph.StateRunning, time.Second))
	require.ErrorIs(t, g.WaitForState(ctx, graph.StateInError, 10*time.Millisecond), graph.ErrTimeout)

	go func() {
		time.Sleep(5 * time.Millisecond)
		g.Fail(nil)
	}()
	require.NoError(t, g.WaitForState(ctx, graph.StateInError, time.Second))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, g.WaitForState(cancelled, graph.StateRunning, time.Second), context.Canceled)
}

func TestGraph_RecordToLoop(t *testing.T) {
	g := runningGraph(t, nil)

	id, err := g.CreateRecordingTrack(1)
	require.NoError(t, err)
	require.Equal(t, track.ID(1), id)

	st, err := g.TrackState(id)
	require.NoError(t, err)
	require.Equal(t, track.StateRecording, st)

	advanceTo(t, g, 24000)
	info, err := g.TrackInfo(id)
	require.NoError(t, err)
	require.Equal(t, int64(0), info.Duration.Int64())
	require.Equal(t, int64(24000), info.LocalClockTime.Int64())

	require.NoError(t, g.FinishRecording(id))
	st, err = g.TrackState(id)
	require.NoError(t, err)
	require.Equal(t, track.StateFinishRecording, st)
	require.ErrorIs(t, g.FinishRecording(id), track.ErrInvalidState)

	advanceTo(t, g, 92000)
	st, err = g.TrackState(id)
	require.NoError(t, err)
	require.Equal(t, track.StateFinishRecording, st)

	advanceTo(t, g, 96000)
	info, err = g.TrackInfo(id)
	require.NoError(t, err)
	require.Equal(t, track.StateLooping, info.State)
	require.True(t, info.IsTrackLooping)
	require.Equal(t, int64(96000), info.Duration.Int64())
	require.Equal(t, int64(4), info.DurationInBeats.Int64())
	require.InDelta(t, 2.0, info.ExactDuration.Float64(), 1e-9)
	require.Equal(t, int64(0), info.LocalClockTime.Int64())

	advanceTo(t, g, 96000+30000)
	info, err = g.TrackInfo(id)
	require.NoError(t, err)
	require.Equal(t, int64(30000), info.LocalClockTime.Int64())

	advanceTo(t, g, 2*96000+12000)
	info, err = g.TrackInfo(id)
	require.NoError(t, err)
	require.Equal(t, int64(12000), info.LocalClockTime.Int64())
	require.InDelta(t, 0.5, info.LocalClockBeat.Float64(), 1e-9)
}

func TestGraph_PreRecording(t *testing.T) {
	g := newGraph(t, nil, graph.Deps{})
	require.NoError(t, g.Initialize(graph.DefaultFFTConfig(), units.ContinuousOf[units.Second](0.1)))
	require.NoError(t, g.Start())

	ginfo, err := g.Info()
	require.NoError(t, err)
	require.InDelta(t, 0.1, ginfo.PreRecordingSeconds, 1e-9)

	// the lead-in is reported only; the track starts at the clock position
	advanceTo(t, g, 48000)
	id, err := g.CreateRecordingTrack(2)
	require.NoError(t, err)
	info, err := g.TrackInfo(id)
	require.NoError(t, err)
	require.Equal(t, int64(48000), info.StartTime.Int64())
	require.InDelta(t, 2.0, info.StartTimeInBeats.Float64(), 1e-9)
	require.Equal(t, plugin.AudioInputID(2), info.AudioInput)

	advanceTo(t, g, 72000)
	require.NoError(t, g.FinishRecording(id))

	advanceTo(t, g, 140000)
	st, err := g.TrackState(id)
	require.NoError(t, err)
	require.Equal(t, track.StateFinishRecording, st)

	advanceTo(t, g, 144000)
	info, err = g.TrackInfo(id)
	require.NoError(t, err)
	require.Equal(t, track.StateLooping, info.State)
	require.Equal(t, int64(96000), info.Duration.Int64())
	require.Equal(t, int64(48000), info.StartTime.Int64())
}

func TestGraph_DeleteInvalidatesID(t *testing.T) {
	g := runningGraph(t, nil)

	id, err := g.CreateRecordingTrack(1)
	require.NoError(t, err)
	require.ErrorIs(t, g.DeleteTrack(id), track.ErrInvalidState)

	require.NoError(t, g.FinishRecording(id))
	require.NoError(t, g.DeleteTrack(id))

	_, err = g.TrackInfo(id)
	require.ErrorIs(t, err, plugin.ErrInvalidID)
	require.ErrorIs(t, err, track.ErrTrackNotFound)
	require.ErrorIs(t, g.FinishRecording(id), plugin.ErrInvalidID)
	require.ErrorIs(t, g.DeleteTrack(id), plugin.ErrInvalidID)

	next, err := g.CreateRecordingTrack(1)
	require.NoError(t, err)
	require.Equal(t, track.ID(2), next)

	ids, err := g.TrackIDs()
	require.NoError(t, err)
	require.Equal(t, []track.ID{2}, ids)

	require.NoError(t, g.ProcessBlock(block))
}

func TestGraph_IDValidation(t *testing.T) {
	g := runningGraph(t, nil)

	_, err := g.CreateRecordingTrack(0)
	require.ErrorIs(t, err, plugin.ErrInvalidID)
	_, err = g.CreateRecordingTrack(3)
	require.ErrorIs(t, err, graph.ErrUnknownInput)

	require.ErrorIs(t, g.FinishRecording(0), plugin.ErrInvalidID)
	require.ErrorIs(t, g.DeleteTrack(-1), plugin.ErrInvalidID)
	_, err = g.TrackInfo(track.Undefined)
	require.ErrorIs(t, err, plugin.ErrInvalidID)
	require.ErrorIs(t, g.SetInputPan(0, 0.5), plugin.ErrInvalidID)
}

func TestGraph_Tempo(t *testing.T) {
	g := newGraph(t, nil, graph.Deps{})
	require.ErrorIs(t, g.SetBeatsPerMinute(90), graph.ErrWrongGraphState)

	require.NoError(t, g.Initialize(graph.DefaultFFTConfig(), units.ContinuousOf[units.Second](0)))
	require.NoError(t, g.SetBeatsPerMinute(90))
	snap, err := g.TimeInfo()
	require.NoError(t, err)
	require.Equal(t, 90.0, snap.BeatsPerMinute)

	require.NoError(t, g.Start())
	require.ErrorIs(t, g.SetBeatsPerMinute(0), clock.ErrInvalidTempo)
	require.NoError(t, g.SetBeatsPerMinute(120))
	require.NoError(t, g.ProcessBlock(block))
	snap, err = g.TimeInfo()
	require.NoError(t, err)
	require.Equal(t, 120.0, snap.BeatsPerMinute)

	_, err = g.CreateRecordingTrack(1)
	require.NoError(t, err)
	require.ErrorIs(t, g.SetBeatsPerMinute(60), clock.ErrTracksExist)
	require.NoError(t, g.ProcessBlock(block))
	snap, err = g.TimeInfo()
	require.NoError(t, err)
	require.Equal(t, 120.0, snap.BeatsPerMinute)
}

// A tempo change still in the queue must shape tracks created after it.
func TestGraph_TempoBeforeTrackInSameBlock(t *testing.T) {
	g := runningGraph(t, nil)
	require.NoError(t, g.SetBeatsPerMinute(60))
	id, err := g.CreateRecordingTrack(1)
	require.NoError(t, err)
	require.NoError(t, g.FinishRecording(id))

	// one 4/4 measure at 60 BPM is four seconds
	advanceTo(t, g, 4*48000)
	info, err := g.TrackInfo(id)
	require.NoError(t, err)
	require.Equal(t, track.StateLooping, info.State)
	require.Equal(t, int64(4*48000), info.Duration.Int64())
}

func TestGraph_Levels(t *testing.T) {
	g := runningGraph(t, nil)
	id, err := g.CreateRecordingTrack(1)
	require.NoError(t, err)

	require.ErrorIs(t, g.SetTrackPan(id, 1.5), track.ErrPanOutOfRange)
	require.ErrorIs(t, g.SetTrackVolume(id, -0.1), track.ErrVolumeOutOfRange)
	require.ErrorIs(t, g.SetInputVolume(1, 2), track.ErrVolumeOutOfRange)

	require.NoError(t, g.SetTrackPan(id, 0.25))
	require.NoError(t, g.SetTrackVolume(id, 0.75))
	require.NoError(t, g.SetTrackMuted(id, true))
	require.NoError(t, g.SetInputPan(2, 0))

	// applied by the audio thread at the next block
	info, err := g.TrackInfo(id)
	require.NoError(t, err)
	require.Equal(t, 0.5, info.Pan)
	require.False(t, info.Muted)

	require.NoError(t, g.ProcessBlock(block))
	info, err = g.TrackInfo(id)
	require.NoError(t, err)
	require.Equal(t, 0.25, info.Pan)
	require.Equal(t, 0.75, info.Volume)
	require.True(t, info.Muted)

	in, err := g.InputInfo(2)
	require.NoError(t, err)
	require.Equal(t, 0.0, in.Pan)
	require.Equal(t, 1.0, in.Volume)
}

func TestGraph_CommandQueueFull(t *testing.T) {
	g := runningGraph(t, func(c *graph.Config) { c.CommandCapacity = 2 })

	id, err := g.CreateRecordingTrack(1)
	require.NoError(t, err)
	require.NoError(t, g.SetTrackPan(id, 0.1))
	require.ErrorIs(t, g.SetTrackPan(id, 0.2), graph.ErrCommandQueueFull)

	// a rejected finish leaves the track recording
	require.ErrorIs(t, g.FinishRecording(id), graph.ErrCommandQueueFull)
	st, err := g.TrackState(id)
	require.NoError(t, err)
	require.Equal(t, track.StateRecording, st)

	_, err = g.CreateRecordingTrack(1)
	require.ErrorIs(t, err, graph.ErrCommandQueueFull)

	require.NoError(t, g.ProcessBlock(block))
	require.NoError(t, g.FinishRecording(id))
	ids, err := g.TrackIDs()
	require.NoError(t, err)
	require.Equal(t, []track.ID{1}, ids)
}

func TestGraph_TrackLimit(t *testing.T) {
	g := runningGraph(t, func(c *graph.Config) { c.MaxTracks = 1 })
	_, err := g.CreateRecordingTrack(1)
	require.NoError(t, err)
	_, err = g.CreateRecordingTrack(1)
	require.ErrorIs(t, err, graph.ErrTooManyTracks)
}

func TestGraph_PluginInstances(t *testing.T) {
	ctx := context.Background()
	g := runningGraph(t, nil)
	id, err := g.CreateRecordingTrack(1)
	require.NoError(t, err)

	idx, err := g.AddTrackPluginInstance(ctx, id, 2, 1, 50)
	require.NoError(t, err)
	require.Equal(t, plugin.InstanceIndex(1), idx)
	idx, err = g.AddTrackPluginInstance(ctx, id, 3, 1, 75)
	require.NoError(t, err)
	require.Equal(t, plugin.InstanceIndex(2), idx)

	require.NoError(t, g.DeleteTrackPluginInstance(id, 1))
	list, err := g.TrackPluginInstances(id)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, plugin.InstanceIndex(1), list[0].Index)
	require.Equal(t, plugin.PluginID(3), list[0].PluginID)

	require.NoError(t, g.SetTrackPluginDryWet(id, 1, 10))
	require.ErrorIs(t, g.SetTrackPluginDryWet(id, 1, 101), plugin.ErrDryWetOutOfRange)
	require.ErrorIs(t, g.SetTrackPluginDryWet(id, 2, 10), plugin.ErrIndexOutOfRange)
	require.ErrorIs(t, g.DeleteTrackPluginInstance(id, 0), plugin.ErrInvalidID)
	_, err = g.AddTrackPluginInstance(ctx, id, 0, 1, 50)
	require.ErrorIs(t, err, plugin.ErrInvalidID)
	_, err = g.AddTrackPluginInstance(ctx, 9, 1, 1, 50)
	require.ErrorIs(t, err, track.ErrTrackNotFound)

	idx, err = g.AddInputPluginInstance(ctx, 1, 4, 2, 100)
	require.NoError(t, err)
	require.Equal(t, plugin.InstanceIndex(1), idx)
	require.NoError(t, g.SetInputPluginDryWet(1, 1, 0))
	inputs, err := g.InputPluginInstances(1)
	require.NoError(t, err)
	require.Equal(t, 0, inputs[0].DryWet)
	require.NoError(t, g.DeleteInputPluginInstance(1, 1))
	inputs, err = g.InputPluginInstances(1)
	require.NoError(t, err)
	require.Empty(t, inputs)
}

type resolverFunc func(plugin.PluginID, plugin.ProgramID) error

func (f resolverFunc) Resolve(_ context.Context, p plugin.PluginID, q plugin.ProgramID) error {
	return f(p, q)
}

func TestGraph_PluginInstancesResolved(t *testing.T) {
	g := newGraph(t, nil, graph.Deps{Plugins: resolverFunc(func(p plugin.PluginID, _ plugin.ProgramID) error {
		if p != 1 {
			return plugin.ErrUnknownPlugin
		}
		return nil
	})})
	require.NoError(t, g.Initialize(graph.DefaultFFTConfig(), units.ContinuousOf[units.Second](0)))

	_, err := g.AddInputPluginInstance(context.Background(), 1, 1, 1, 50)
	require.NoError(t, err)
	_, err = g.AddInputPluginInstance(context.Background(), 1, 2, 1, 50)
	require.ErrorIs(t, err, plugin.ErrUnknownPlugin)
}

func TestGraph_Signals(t *testing.T) {
	g := runningGraph(t, nil)
	id, err := g.CreateRecordingTrack(1)
	require.NoError(t, err)

	require.NoError(t, g.ReportInputSignal(1, false, 0.1, 0.5, 0.3))
	require.NoError(t, g.ReportInputSignal(1, true, 0.2))
	require.NoError(t, g.ReportTrackSignal(id, 0.4, 0.6))
	require.NoError(t, g.ReportOutputSignal(1))
	require.ErrorIs(t, g.ReportOutputSignal(math.NaN()), signal.ErrNonFinite)
	require.ErrorIs(t, g.ReportTrackSignal(id, math.Inf(1)), signal.ErrNonFinite)

	raw, err := g.InputSignalInfo(1, false)
	require.NoError(t, err)
	require.Equal(t, 0.1, raw.Min)
	require.Equal(t, 0.5, raw.Max)
	post, err := g.InputSignalInfo(1, true)
	require.NoError(t, err)
	require.Equal(t, 0.2, post.Max)
	tr, err := g.TrackSignalInfo(id)
	require.NoError(t, err)
	require.InDelta(t, 0.5, tr.Avg, 1e-9)
	out, err := g.OutputSignalInfo()
	require.NoError(t, err)
	require.Equal(t, 1.0, out.Max)

	bins := make([]float64, graph.DefaultFFTConfig().OutputBinCount)
	bins[3] = 0.7
	require.NoError(t, g.ReportTrackFrequencies(id, bins))
	require.ErrorIs(t, g.ReportInputFrequencies(1, bins[:3]), graph.ErrInvalidFFT)
	got, err := g.TrackFrequencies(id)
	require.NoError(t, err)
	require.Equal(t, bins, got)
}

func TestGraph_EventsArchiveLoops(t *testing.T) {
	ctx := context.Background()
	loops := &mocks.LoopRepository{}
	loops.On("Save", mock.Anything, mock.MatchedBy(func(l *archive.Loop) bool {
		return l.TrackID == 1 && l.Duration == 96000 && l.DurationInBeats == 4 && l.BeatsPerMinute == 120
	})).Return(nil).Once()
	acts := activity.NewService(nil, nil)

	g := newGraph(t, nil, graph.Deps{Activity: acts, Archive: archive.NewService(loops, nil)})
	require.NoError(t, g.Initialize(graph.DefaultFFTConfig(), units.ContinuousOf[units.Second](0)))
	require.NoError(t, g.Start())
	id, err := g.CreateRecordingTrack(1)
	require.NoError(t, err)
	require.NoError(t, g.FinishRecording(id))
	advanceTo(t, g, 96000)

	seen := map[activity.ActivityType]bool{}
	for len(g.Events()) > 0 {
		ev := <-g.Events()
		seen[ev.Type] = true
		g.Record(ctx, ev)
	}
	require.True(t, seen[activity.TypeGraphInitialized])
	require.True(t, seen[activity.TypeTrackCreated])
	require.True(t, seen[activity.TypeFinishRequested])
	require.True(t, seen[activity.TypeTrackLooping])
	loops.AssertExpectations(t)

	info := acts.LogInfo()
	require.Equal(t, 5, info.Count)
	msg, err := acts.LogMessage(info.FirstIndex + 4)
	require.NoError(t, err)
	require.Contains(t, msg, "track 1 looping")
}

func TestGraph_EventsDroppedWhenFull(t *testing.T) {
	g := newGraph(t, func(c *graph.Config) { c.EventCapacity = 1 }, graph.Deps{})
	require.NoError(t, g.Initialize(graph.DefaultFFTConfig(), units.ContinuousOf[units.Second](0)))
	require.NoError(t, g.Start())
	require.Equal(t, int64(1), g.Dropped())

	acts := activity.NewService(nil, nil)
	g2 := newGraph(t, nil, graph.Deps{Activity: acts})
	g2.Record(context.Background(), graph.Event{Type: activity.TypeGraphStarted})
	require.Equal(t, 1, acts.LogInfo().Count)
}

func TestGraph_Run(t *testing.T) {
	acts := activity.NewService(nil, nil)
	g := newGraph(t, nil, graph.Deps{Activity: acts})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	require.NoError(t, g.Initialize(graph.DefaultFFTConfig(), units.ContinuousOf[units.Second](0)))
	require.Eventually(t, func() bool { return acts.LogInfo().Count == 1 }, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestGraph_ConcurrentControl(t *testing.T) {
	g := runningGraph(t, nil)
	stop := make(chan struct{})
	audioDone := make(chan struct{})
	go func() {
		defer close(audioDone)
		for {
			select {
			case <-stop:
				return
			default:
				_ = g.ProcessBlock(128)
			}
		}
	}()

	for i := 0; i < 20; i++ {
		id, err := g.CreateRecordingTrack(1)
		if errors.Is(err, graph.ErrCommandQueueFull) {
			continue
		}
		require.NoError(t, err)
		_, err = g.TrackInfo(id)
		require.NoError(t, err)
		_, _ = g.TimeInfo()
	}
	close(stop)
	<-audioDone
}
