package graph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/rpggio/nowloop/internal/clock"
	"github.com/rpggio/nowloop/internal/domain/activity"
	"github.com/rpggio/nowloop/internal/domain/input"
	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/domain/track"
)

// CreateRecordingTrack starts a track recording from in. The track starts at
// the clock position of the last processed block.
func (g *Graph) CreateRecordingTrack(in plugin.AudioInputID) (track.ID, error) {
	if err := plugin.CheckAudioInput(in); err != nil {
		return track.Undefined, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.session("create track", StateRunning)
	if err != nil {
		return track.Undefined, err
	}
	if _, err := s.input(in); err != nil {
		return track.Undefined, err
	}
	if len(s.tracks) >= g.cfg.MaxTracks {
		return track.Undefined, fmt.Errorf("%w: %d", ErrTooManyTracks, g.cfg.MaxTracks)
	}

	snap := s.clock.Snapshot()
	snap.BeatsPerMinute = s.tempo
	start := snap.Time
	startBeats := snap.ExactBeat

	id := s.lastTrack + 1
	tr := track.New(track.Params{
		ID:         id,
		Input:      in,
		Start:      start,
		StartBeats: startBeats,
		Grid:       track.NewGrid(g.cfg.Quantum, snap),
		Pan:        0.5,
		Volume:     1,
		MeterSize:  g.cfg.MeterSize,
	})
	if err := g.enqueue(s, command{kind: cmdAddTrack, track: tr}); err != nil {
		return track.Undefined, err
	}
	s.lastTrack = id
	s.tracks[id] = tr

	g.logger.Info("track created", "track_id", id, "input", in, "start", start.Int64())
	g.emit(Event{Type: activity.TypeTrackCreated, SessionID: s.id, TrackID: id, InputID: in, Time: snap.Time.Int64(), Start: start.Int64()})
	return id, nil
}

// FinishRecording asks a Recording track to stop at the next quantum
// boundary. The track reports FinishRecording immediately.
func (g *Graph) FinishRecording(id track.ID) error {
	if err := track.CheckID(id); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.session("finish recording", StateRunning)
	if err != nil {
		return err
	}
	tr, err := s.track(id)
	if err != nil {
		return err
	}
	if err := track.ValidateFinish(tr.State()); err != nil {
		return err
	}
	if err := tr.RequestFinish(); err != nil {
		return err
	}
	if err := g.enqueue(s, command{kind: cmdFinishTrack, track: tr}); err != nil {
		tr.CancelFinish()
		return err
	}
	g.emit(Event{Type: activity.TypeFinishRequested, SessionID: s.id, TrackID: id, Time: s.clock.Snapshot().Time.Int64()})
	return nil
}

// DeleteTrack removes a finished track. Its id is not reused.
func (g *Graph) DeleteTrack(id track.ID) error {
	if err := track.CheckID(id); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.session("delete track", StateRunning)
	if err != nil {
		return err
	}
	tr, err := s.track(id)
	if err != nil {
		return err
	}
	if err := track.ValidateDelete(tr.State()); err != nil {
		return err
	}
	if err := g.enqueue(s, command{kind: cmdRemoveTrack, track: tr}); err != nil {
		return err
	}
	delete(s.tracks, id)

	g.logger.Info("track deleted", "track_id", id)
	g.emit(Event{Type: activity.TypeTrackDeleted, SessionID: s.id, TrackID: id, Time: s.clock.Snapshot().Time.Int64()})
	return nil
}

// TrackIDs lists live tracks in ascending order.
func (g *Graph) TrackIDs() ([]track.ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.session("list tracks", StateInitialized, StateRunning)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(s.tracks)), nil
}

// TrackState returns the control-side view of a track's state.
func (g *Graph) TrackState(id track.ID) (track.State, error) {
	tr, _, err := g.lookupTrack(id, "track state")
	if err != nil {
		return track.StateUninitialized, err
	}
	return tr.State(), nil
}

// TrackInfo returns a view of the track at the current clock position.
func (g *Graph) TrackInfo(id track.ID) (track.Info, error) {
	tr, snap, err := g.lookupTrack(id, "track info")
	if err != nil {
		return track.Info{}, err
	}
	return tr.Info(snap.Time), nil
}

// SetTrackMuted mutes or unmutes a track from the next block.
func (g *Graph) SetTrackMuted(id track.ID, muted bool) error {
	return g.trackCommand(id, "mute track", command{kind: cmdTrackMuted, flag: muted})
}

// SetTrackPan sets a track's pan in [0,1] from the next block.
func (g *Graph) SetTrackPan(id track.ID, pan float64) error {
	if err := track.ValidateLevel(pan, track.ErrPanOutOfRange); err != nil {
		return err
	}
	return g.trackCommand(id, "pan track", command{kind: cmdTrackPan, value: pan})
}

// SetTrackVolume sets a track's volume in [0,1] from the next block.
func (g *Graph) SetTrackVolume(id track.ID, volume float64) error {
	if err := track.ValidateLevel(volume, track.ErrVolumeOutOfRange); err != nil {
		return err
	}
	return g.trackCommand(id, "set track volume", command{kind: cmdTrackVolume, value: volume})
}

// SetInputPan sets an input's pan in [0,1] from the next block.
func (g *Graph) SetInputPan(id plugin.AudioInputID, pan float64) error {
	if err := track.ValidateLevel(pan, track.ErrPanOutOfRange); err != nil {
		return err
	}
	return g.inputCommand(id, "pan input", command{kind: cmdInputPan, value: pan})
}

// SetInputVolume sets an input's volume in [0,1] from the next block.
func (g *Graph) SetInputVolume(id plugin.AudioInputID, volume float64) error {
	if err := track.ValidateLevel(volume, track.ErrVolumeOutOfRange); err != nil {
		return err
	}
	return g.inputCommand(id, "set input volume", command{kind: cmdInputVolume, value: volume})
}

// InputInfo returns a view of one input.
func (g *Graph) InputInfo(id plugin.AudioInputID) (input.Info, error) {
	if err := plugin.CheckAudioInput(id); err != nil {
		return input.Info{}, err
	}
	s, err := g.session("input info", StateInitialized, StateRunning)
	if err != nil {
		return input.Info{}, err
	}
	in, err := s.input(id)
	if err != nil {
		return input.Info{}, err
	}
	return in.Info(), nil
}

func (g *Graph) trackCommand(id track.ID, op string, cmd command) error {
	if err := track.CheckID(id); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.session(op, StateRunning)
	if err != nil {
		return err
	}
	tr, err := s.track(id)
	if err != nil {
		return err
	}
	cmd.track = tr
	if err := g.enqueue(s, cmd); err != nil {
		return err
	}
	g.emit(Event{Type: activity.TypeTrackSettingsChanged, SessionID: s.id, TrackID: id, Value: cmd.value})
	return nil
}

func (g *Graph) inputCommand(id plugin.AudioInputID, op string, cmd command) error {
	if err := plugin.CheckAudioInput(id); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.session(op, StateRunning)
	if err != nil {
		return err
	}
	in, err := s.input(id)
	if err != nil {
		return err
	}
	cmd.input = in
	if err := g.enqueue(s, cmd); err != nil {
		return err
	}
	g.emit(Event{Type: activity.TypeInputSettingsChanged, SessionID: s.id, InputID: id, Value: cmd.value})
	return nil
}

func (g *Graph) lookupTrack(id track.ID, op string) (*track.Track, clock.Snapshot, error) {
	if err := track.CheckID(id); err != nil {
		return nil, clock.Snapshot{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.session(op, StateInitialized, StateRunning)
	if err != nil {
		return nil, clock.Snapshot{}, err
	}
	tr, err := s.track(id)
	if err != nil {
		return nil, clock.Snapshot{}, err
	}
	return tr, s.clock.Snapshot(), nil
}

// track resolves a live id. A deleted id is both not found and invalid.
func (s *session) track(id track.ID) (*track.Track, error) {
	tr, ok := s.tracks[id]
	if !ok {
		return nil, fmt.Errorf("%w (%w): %d", track.ErrTrackNotFound, plugin.ErrInvalidID, id)
	}
	return tr, nil
}

func (s *session) input(id plugin.AudioInputID) (*input.Input, error) {
	if int(id) > len(s.inputs) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownInput, id)
	}
	return s.inputs[id-1], nil
}
