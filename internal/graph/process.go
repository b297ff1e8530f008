package graph

import (
	"slices"

	"github.com/rpggio/nowloop/internal/domain/activity"
	"github.com/rpggio/nowloop/internal/domain/input"
	"github.com/rpggio/nowloop/internal/domain/track"
	"github.com/rpggio/nowloop/internal/units"
)

type commandKind uint8

const (
	cmdAddTrack commandKind = iota + 1
	cmdFinishTrack
	cmdRemoveTrack
	cmdSetTempo
	cmdTrackPan
	cmdTrackVolume
	cmdTrackMuted
	cmdInputPan
	cmdInputVolume
)

// command is passed by value so the queue never allocates.
type command struct {
	kind  commandKind
	track *track.Track
	input *input.Input
	value float64
	flag  bool
}

// ProcessBlock is called by the audio thread once per block of n samples.
// Queued commands take effect at the start of the block, tracks are brought up
// to the end of the block, then the clock advances and publishes.
func (g *Graph) ProcessBlock(n int) error {
	if g.State() != StateRunning {
		return ErrWrongGraphState
	}
	s := g.current.Load()
	if s == nil {
		return ErrWrongGraphState
	}
	d := units.DurationOf[units.AudioSample](int64(n))
	if !d.IsSettled() {
		return ErrNegativeBlock
	}

	now := s.clock.Now()
drain:
	for i := cap(s.commands); i > 0; i-- {
		select {
		case cmd := <-s.commands:
			g.apply(s, cmd, now)
		default:
			break drain
		}
	}

	end := now.Add(d)
	for _, tr := range s.live {
		if tr.Update(end) {
			g.emitLooping(s, tr, end)
		}
	}

	_, err := s.clock.Advance(d)
	return err
}

func (g *Graph) apply(s *session, cmd command, now units.Time[units.AudioSample]) {
	switch cmd.kind {
	case cmdAddTrack:
		s.live = append(s.live, cmd.track)
	case cmdFinishTrack:
		if err := cmd.track.ApplyFinish(now); err != nil {
			g.emit(Event{Type: activity.TypeCommandFailed, SessionID: s.id, TrackID: cmd.track.ID(), Time: now.Int64(), Err: err})
		}
	case cmdRemoveTrack:
		for i, tr := range s.live {
			if tr == cmd.track {
				s.live = slices.Delete(s.live, i, i+1)
				break
			}
		}
	case cmdSetTempo:
		if err := s.clock.SetBeatsPerMinute(cmd.value, len(s.live)); err != nil {
			g.emit(Event{Type: activity.TypeCommandFailed, SessionID: s.id, Time: now.Int64(), Value: cmd.value, Err: err})
			return
		}
		g.emit(Event{Type: activity.TypeTempoChanged, SessionID: s.id, Time: now.Int64(), Value: cmd.value})
	case cmdTrackPan:
		cmd.track.ApplyPan(cmd.value)
	case cmdTrackVolume:
		cmd.track.ApplyVolume(cmd.value)
	case cmdTrackMuted:
		cmd.track.ApplyMuted(cmd.flag)
	case cmdInputPan:
		cmd.input.ApplyPan(cmd.value)
	case cmdInputVolume:
		cmd.input.ApplyVolume(cmd.value)
	}
}

func (g *Graph) emitLooping(s *session, tr *track.Track, at units.Time[units.AudioSample]) {
	m := tr.Machine()
	g.emit(Event{
		Type:      activity.TypeTrackLooping,
		SessionID: s.id,
		TrackID:   tr.ID(),
		InputID:   tr.Input(),
		Time:      at.Int64(),
		Start:     m.Start().Int64(),
		Duration:  m.Duration().Int64(),
		Beats:     m.DurationInBeats().Int64(),
		Value:     m.ExactDuration().Float64(),
		Tempo:     s.clock.BeatsPerMinute(),
	})
}
