// Package graph is the lifecycle controller that owns the clock, the inputs
// and the tracks of one looping session.
//
// Control operations may be called from any goroutine. They validate
// synchronously and hand work to the audio thread through a bounded command
// queue. ProcessBlock is the audio thread's entry point; it never blocks and
// does not allocate in steady state.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rpggio/nowloop/internal/clock"
	"github.com/rpggio/nowloop/internal/domain/activity"
	"github.com/rpggio/nowloop/internal/domain/archive"
	"github.com/rpggio/nowloop/internal/domain/input"
	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/domain/track"
	"github.com/rpggio/nowloop/internal/signal"
	"github.com/rpggio/nowloop/internal/units"
)

// ActivityLogger records engine events.
type ActivityLogger interface {
	LogActivity(ctx context.Context, sessionID string, entry *activity.ActivityEntry) error
}

// LoopArchiver stores a track once it starts looping.
type LoopArchiver interface {
	Archive(ctx context.Context, loop *archive.Loop) error
}

// PluginResolver confirms a plugin and program exist in the catalog.
type PluginResolver interface {
	Resolve(ctx context.Context, pluginID plugin.PluginID, programID plugin.ProgramID) error
}

// Deps are the optional collaborators of a graph. Nil fields are skipped.
type Deps struct {
	Logger   *slog.Logger
	Activity ActivityLogger
	Archive  LoopArchiver
	Plugins  PluginResolver
}

// Info describes a graph once initialized.
type Info struct {
	SessionID           string    `json:"session_id"`
	State               State     `json:"state"`
	SampleRate          int       `json:"sample_rate"`
	ChannelCount        int       `json:"channel_count"`
	BitsPerSample       int       `json:"bits_per_sample"`
	LatencyInSamples    int       `json:"latency_in_samples"`
	SamplesPerBlock     int       `json:"samples_per_block"`
	InputCount          int       `json:"input_count"`
	BeatsPerMeasure     int       `json:"beats_per_measure"`
	Quantum             string    `json:"quantum"`
	PreRecordingSeconds float64   `json:"pre_recording_seconds"`
	FFT                 FFTConfig `json:"fft"`
}

// session is everything built by Initialize and discarded by Shutdown.
type session struct {
	id           string
	fft          FFTConfig
	preRecording units.ContinuousDuration[units.Second] // reported only; the capture layer owns the lead-in
	clock        *clock.Clock
	inputs       []*input.Input
	output       *signal.Meter
	commands     chan command

	// control side, guarded by Graph.mu
	tracks    map[track.ID]*track.Track
	lastTrack track.ID
	tempo     float64

	// audio side
	live []*track.Track
}

// Graph is the engine's control plane.
type Graph struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger

	state   atomic.Int32
	current atomic.Pointer[session]
	events  chan Event
	dropped atomic.Int64

	mu      sync.Mutex
	lastErr error
}

// New validates cfg and returns an Uninitialized graph.
func New(cfg Config, deps Deps) (*Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Graph{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger,
		events: make(chan Event, cfg.EventCapacity),
	}, nil
}

// Config returns the configuration the graph was built with.
func (g *Graph) Config() Config { return g.cfg }

// State returns the current lifecycle state.
func (g *Graph) State() State { return State(g.state.Load()) }

// LastError returns the error recorded by the most recent Fail.
func (g *Graph) LastError() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

// Initialize builds the clock, inputs and command queue for a new session.
func (g *Graph) Initialize(fft FFTConfig, preRecording units.ContinuousDuration[units.Second]) error {
	if err := fft.Validate(); err != nil {
		return err
	}
	if preRecording.Float64() < 0 {
		return fmt.Errorf("%w: negative pre-recording %v", ErrInvalidConfig, preRecording)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if st := g.State(); st != StateUninitialized {
		return wrongState("initialize", st)
	}

	clk, err := clock.New(clock.Config{
		SampleRate:      g.cfg.SampleRate,
		BeatsPerMinute:  g.cfg.BeatsPerMinute,
		BeatsPerMeasure: g.cfg.BeatsPerMeasure,
	})
	if err != nil {
		return fmt.Errorf("creating clock: %w", err)
	}
	s := &session{
		id:           uuid.NewString(),
		fft:          fft,
		preRecording: preRecording,
		clock:        clk,
		inputs:       input.NewSet(g.cfg.InputCount, g.cfg.MeterSize),
		output:       signal.NewMeter(g.cfg.MeterSize),
		commands:     make(chan command, g.cfg.CommandCapacity),
		tracks:       make(map[track.ID]*track.Track),
		tempo:        g.cfg.BeatsPerMinute,
		live:         make([]*track.Track, 0, g.cfg.MaxTracks),
	}
	g.current.Store(s)
	g.lastErr = nil
	g.state.Store(int32(StateInitialized))

	g.logger.Info("graph initialized", "session_id", s.id, "sample_rate", g.cfg.SampleRate, "inputs", g.cfg.InputCount)
	g.emit(Event{Type: activity.TypeGraphInitialized, SessionID: s.id})
	return nil
}

// Start moves an Initialized graph to Running.
func (g *Graph) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st := g.State(); st != StateInitialized {
		return wrongState("start", st)
	}
	g.state.Store(int32(StateRunning))

	s := g.current.Load()
	g.logger.Info("graph started", "session_id", s.id)
	g.emit(Event{Type: activity.TypeGraphStarted, SessionID: s.id, Time: s.clock.Snapshot().Time.Int64()})
	return nil
}

// Fail records cause and moves the graph to InError from any state.
func (g *Graph) Fail(cause error) {
	if cause == nil {
		cause = ErrDeviceFailure
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastErr = cause
	g.state.Store(int32(StateInError))

	var sid string
	if s := g.current.Load(); s != nil {
		sid = s.id
	}
	g.logger.Error("graph failed", "session_id", sid, "error", cause)
	g.emit(Event{Type: activity.TypeGraphFailed, SessionID: sid, Err: cause})
}

// Shutdown discards the session and returns the graph to Uninitialized. It is
// valid from any state.
func (g *Graph) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.current.Swap(nil)
	g.state.Store(int32(StateUninitialized))
	if s == nil {
		return
	}
	g.logger.Info("graph shut down", "session_id", s.id, "tracks", len(s.tracks))
	g.emit(Event{Type: activity.TypeGraphShutdown, SessionID: s.id})
}

// Reset recovers an InError graph to Uninitialized.
func (g *Graph) Reset() error {
	if st := g.State(); st != StateInError {
		return wrongState("reset", st)
	}
	g.Shutdown()
	return nil
}

// WaitForState polls until the graph reaches want, ctx ends or timeout
// elapses.
func (g *Graph) WaitForState(ctx context.Context, want State, timeout time.Duration) error {
	if g.State() == want {
		return nil
	}
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w: wanted %s, graph is %s", ErrTimeout, want, g.State())
		case <-ticker.C:
			if g.State() == want {
				return nil
			}
		}
	}
}

// Info describes the current session.
func (g *Graph) Info() (Info, error) {
	s, err := g.session("graph info", StateInitialized, StateRunning)
	if err != nil {
		return Info{}, err
	}
	return Info{
		SessionID:           s.id,
		State:               g.State(),
		SampleRate:          g.cfg.SampleRate,
		ChannelCount:        g.cfg.ChannelCount,
		BitsPerSample:       g.cfg.BitsPerSample,
		LatencyInSamples:    g.cfg.LatencySamples,
		SamplesPerBlock:     g.cfg.BlockSize,
		InputCount:          len(s.inputs),
		BeatsPerMeasure:     g.cfg.BeatsPerMeasure,
		Quantum:             g.cfg.Quantum.String(),
		PreRecordingSeconds: s.preRecording.Float64(),
		FFT:                 s.fft,
	}, nil
}

// TimeInfo returns the clock as of the last processed block.
func (g *Graph) TimeInfo() (clock.Snapshot, error) {
	s, err := g.session("time info", StateInitialized, StateRunning)
	if err != nil {
		return clock.Snapshot{}, err
	}
	return s.clock.Snapshot(), nil
}

// SessionID returns the id of the current session, or "" when Uninitialized.
func (g *Graph) SessionID() string {
	if s := g.current.Load(); s != nil {
		return s.id
	}
	return ""
}

// SetBeatsPerMinute changes the tempo. It is refused while any track exists.
// An Initialized graph applies the change at once; a Running graph applies it
// at the start of the next block.
func (g *Graph) SetBeatsPerMinute(bpm float64) error {
	if err := clock.ValidateTempo(bpm); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.session("set tempo", StateInitialized, StateRunning)
	if err != nil {
		return err
	}
	if n := len(s.tracks); n > 0 {
		return fmt.Errorf("%w: %d tracks", clock.ErrTracksExist, n)
	}

	if g.State() == StateInitialized {
		if err := s.clock.SetBeatsPerMinute(bpm, 0); err != nil {
			return err
		}
		s.tempo = bpm
		g.emit(Event{Type: activity.TypeTempoChanged, SessionID: s.id, Value: bpm, Time: s.clock.Snapshot().Time.Int64()})
		return nil
	}
	if err := g.enqueue(s, command{kind: cmdSetTempo, value: bpm}); err != nil {
		return err
	}
	s.tempo = bpm
	return nil
}

// session returns the current session if the graph is in one of allowed.
// Callers that touch control-side session fields hold g.mu.
func (g *Graph) session(op string, allowed ...State) (*session, error) {
	st := g.State()
	if !slices.Contains(allowed, st) {
		return nil, wrongState(op, st)
	}
	s := g.current.Load()
	if s == nil {
		return nil, wrongState(op, st)
	}
	return s, nil
}

func (g *Graph) enqueue(s *session, cmd command) error {
	select {
	case s.commands <- cmd:
		return nil
	default:
		return fmt.Errorf("%w: capacity %d", ErrCommandQueueFull, cap(s.commands))
	}
}

func wrongState(op string, st State) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrWrongGraphState, op, st)
}
