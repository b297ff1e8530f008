package graph

import (
	"context"
	"fmt"

	"github.com/rpggio/nowloop/internal/domain/activity"
	"github.com/rpggio/nowloop/internal/domain/archive"
	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/domain/track"
)

// Event is something the graph did. Events are passed by value through a
// bounded channel; when it is full they are counted and dropped.
type Event struct {
	Type      activity.ActivityType
	SessionID string
	TrackID   track.ID
	InputID   plugin.AudioInputID
	Index     plugin.InstanceIndex
	Time      int64
	Start     int64
	Duration  int64
	Beats     int64
	Value     float64
	Tempo     float64
	Err       error
}

// Events exposes the event stream for callers that run their own pump.
func (g *Graph) Events() <-chan Event { return g.events }

// Dropped returns the number of events discarded since the last report.
func (g *Graph) Dropped() int64 { return g.dropped.Load() }

func (g *Graph) emit(ev Event) {
	select {
	case g.events <- ev:
	default:
		g.dropped.Add(1)
	}
}

// Run records events until ctx ends. It logs each event, writes it to the
// activity log and archives tracks that start looping.
func (g *Graph) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-g.events:
			g.Record(ctx, ev)
		}
	}
}

// Record handles one event outside the audio thread.
func (g *Graph) Record(ctx context.Context, ev Event) {
	if n := g.dropped.Swap(0); n > 0 {
		g.logger.Warn("events dropped", "count", n)
		g.log(ctx, Event{Type: activity.TypeEventsDropped, SessionID: ev.SessionID, Value: float64(n)})
	}

	attrs := []any{"type", ev.Type, "session_id", ev.SessionID, "time", ev.Time}
	if ev.TrackID != track.Undefined {
		attrs = append(attrs, "track_id", ev.TrackID)
	}
	if ev.Err != nil {
		attrs = append(attrs, "error", ev.Err)
		g.logger.Warn("graph event", attrs...)
	} else {
		g.logger.Debug("graph event", attrs...)
	}

	g.log(ctx, ev)
	if ev.Type == activity.TypeTrackLooping {
		g.archive(ctx, ev)
	}
}

func (g *Graph) log(ctx context.Context, ev Event) {
	if g.deps.Activity == nil {
		return
	}
	entry := &activity.ActivityEntry{
		SessionID:    ev.SessionID,
		ActivityType: ev.Type,
		Summary:      summarize(ev),
		SampleTime:   ev.Time,
	}
	if ev.TrackID != track.Undefined {
		id := int(ev.TrackID)
		entry.TrackID = &id
	}
	if ev.InputID != plugin.Undefined {
		id := int(ev.InputID)
		entry.InputID = &id
	}
	if err := g.deps.Activity.LogActivity(ctx, ev.SessionID, entry); err != nil {
		g.logger.Warn("failed to log activity", "type", ev.Type, "error", err)
	}
}

func (g *Graph) archive(ctx context.Context, ev Event) {
	if g.deps.Archive == nil {
		return
	}
	loop := &archive.Loop{
		SessionID:       ev.SessionID,
		TrackID:         int(ev.TrackID),
		InputID:         int(ev.InputID),
		StartTime:       ev.Start,
		Duration:        ev.Duration,
		DurationInBeats: ev.Beats,
		ExactDuration:   ev.Value,
		BeatsPerMinute:  ev.Tempo,
		BeatsPerMeasure: g.cfg.BeatsPerMeasure,
	}
	if err := g.deps.Archive.Archive(ctx, loop); err != nil {
		g.logger.Warn("failed to archive loop", "track_id", ev.TrackID, "error", err)
	}
}

func summarize(ev Event) string {
	switch ev.Type {
	case activity.TypeGraphInitialized:
		return "graph initialized"
	case activity.TypeGraphStarted:
		return "graph started"
	case activity.TypeGraphFailed:
		return fmt.Sprintf("graph failed: %v", ev.Err)
	case activity.TypeGraphShutdown:
		return "graph shut down"
	case activity.TypeTempoChanged:
		return fmt.Sprintf("tempo set to %.2f BPM", ev.Value)
	case activity.TypeTrackCreated:
		return fmt.Sprintf("track %d recording from input %d", ev.TrackID, ev.InputID)
	case activity.TypeFinishRequested:
		return fmt.Sprintf("track %d finish requested", ev.TrackID)
	case activity.TypeTrackLooping:
		return fmt.Sprintf("track %d looping: %d samples, %d beats", ev.TrackID, ev.Duration, ev.Beats)
	case activity.TypeTrackDeleted:
		return fmt.Sprintf("track %d deleted", ev.TrackID)
	case activity.TypePluginInstanceAdded:
		return fmt.Sprintf("plugin instance %d added", ev.Index)
	case activity.TypePluginInstanceDeleted:
		return fmt.Sprintf("plugin instance %d deleted", ev.Index)
	case activity.TypeDryWetChanged:
		return fmt.Sprintf("plugin instance %d dry/wet %d", ev.Index, int(ev.Value))
	case activity.TypeEventsDropped:
		return fmt.Sprintf("%d events dropped", int64(ev.Value))
	case activity.TypeCommandFailed:
		return fmt.Sprintf("command failed: %v", ev.Err)
	case activity.TypeTrackSettingsChanged:
		return fmt.Sprintf("track %d settings changed", ev.TrackID)
	case activity.TypeInputSettingsChanged:
		return fmt.Sprintf("input %d settings changed", ev.InputID)
	default:
		return string(ev.Type)
	}
}
