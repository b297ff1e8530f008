package mcp

import (
	"github.com/rpggio/nowloop/internal/clock"
	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/domain/track"
	"github.com/rpggio/nowloop/internal/graph"
	"github.com/rpggio/nowloop/internal/signal"
)

// Graph lifecycle

type InitializeGraphParams struct {
	FFT                 *graph.FFTConfig `json:"fft,omitempty"`
	PreRecordingSeconds *float64         `json:"pre_recording_seconds,omitempty"`
}

type GraphStateResponse struct {
	State     graph.State `json:"state"`
	SessionID string      `json:"session_id,omitempty"`
	LastError string      `json:"last_error,omitempty"`
}

type TimeInfoResponse struct {
	TimeInSamples   int64   `json:"time_in_samples"`
	ExactBeat       float64 `json:"exact_beat"`
	BeatsPerMinute  float64 `json:"beats_per_minute"`
	BeatInMeasure   int     `json:"beat_in_measure"`
	BeatsPerMeasure int     `json:"beats_per_measure"`
	SampleRate      int     `json:"sample_rate"`
}

func newTimeInfoResponse(s clock.Snapshot) TimeInfoResponse {
	return TimeInfoResponse{
		TimeInSamples:   s.Time.Int64(),
		ExactBeat:       s.ExactBeat.Float64(),
		BeatsPerMinute:  s.BeatsPerMinute,
		BeatInMeasure:   s.BeatInMeasure,
		BeatsPerMeasure: s.BeatsPerMeasure,
		SampleRate:      s.SampleRate,
	}
}

type SetBPMParams struct {
	BeatsPerMinute float64 `json:"bpm"`
}

// Tracks

type CreateRecordingTrackParams struct {
	InputID plugin.AudioInputID `json:"input_id"`
}

type TrackIDParams struct {
	TrackID track.ID `json:"track_id"`
}

type CreateRecordingTrackResponse struct {
	TrackID track.ID `json:"track_id"`
}

type TrackInfoResponse struct {
	ID               track.ID            `json:"id"`
	AudioInput       plugin.AudioInputID `json:"audio_input"`
	State            track.State         `json:"state"`
	IsTrackLooping   bool                `json:"is_track_looping"`
	StartTime        int64               `json:"start_time"`
	StartTimeInBeats float64             `json:"start_time_in_beats"`
	Duration         int64               `json:"duration"`
	DurationInBeats  int64               `json:"duration_in_beats"`
	ExactDuration    float64             `json:"exact_duration_seconds"`
	LocalClockTime   int64               `json:"local_clock_time"`
	LocalClockBeat   float64             `json:"local_clock_beat"`
	LastSampleTime   int64               `json:"last_sample_time"`
	Pan              float64             `json:"pan"`
	Volume           float64             `json:"volume"`
	Muted            bool                `json:"muted"`
}

func newTrackInfoResponse(info track.Info) TrackInfoResponse {
	return TrackInfoResponse{
		ID:               info.ID,
		AudioInput:       info.AudioInput,
		State:            info.State,
		IsTrackLooping:   info.IsTrackLooping,
		StartTime:        info.StartTime.Int64(),
		StartTimeInBeats: info.StartTimeInBeats.Float64(),
		Duration:         info.Duration.Int64(),
		DurationInBeats:  info.DurationInBeats.Int64(),
		ExactDuration:    info.ExactDuration.Float64(),
		LocalClockTime:   info.LocalClockTime.Int64(),
		LocalClockBeat:   info.LocalClockBeat.Float64(),
		LastSampleTime:   info.LastSampleTime.Int64(),
		Pan:              info.Pan,
		Volume:           info.Volume,
		Muted:            info.Muted,
	}
}

type ListTracksResponse struct {
	Tracks []TrackInfoResponse `json:"tracks"`
}

type SetTrackMutedParams struct {
	TrackID track.ID `json:"track_id"`
	Muted   bool     `json:"muted"`
}

type SetTrackLevelParams struct {
	TrackID track.ID `json:"track_id"`
	Value   float64  `json:"value"`
}

type SetInputLevelParams struct {
	InputID plugin.AudioInputID `json:"input_id"`
	Value   float64             `json:"value"`
}

type InputIDParams struct {
	InputID plugin.AudioInputID `json:"input_id"`
}

// Plugin instances. Exactly one of TrackID and InputID names the owner.

type OwnerParams struct {
	TrackID *track.ID            `json:"track_id,omitempty"`
	InputID *plugin.AudioInputID `json:"input_id,omitempty"`
}

type AddPluginInstanceParams struct {
	OwnerParams
	PluginID  plugin.PluginID  `json:"plugin_id"`
	ProgramID plugin.ProgramID `json:"program_id"`
	DryWet    int              `json:"dry_wet"`
}

type AddPluginInstanceResponse struct {
	Index plugin.InstanceIndex `json:"index"`
}

type SetPluginDryWetParams struct {
	OwnerParams
	Index  plugin.InstanceIndex `json:"index"`
	DryWet int                  `json:"dry_wet"`
}

type DeletePluginInstanceParams struct {
	OwnerParams
	Index plugin.InstanceIndex `json:"index"`
}

type PluginInstancesResponse struct {
	Instances []plugin.IndexedInstance `json:"instances"`
}

// Catalog

type RegisterPluginParams struct {
	Name string `json:"name"`
}

type RegisterProgramParams struct {
	PluginID plugin.PluginID `json:"plugin_id"`
	Name     string          `json:"name"`
}

type ListProgramsParams struct {
	PluginID plugin.PluginID `json:"plugin_id"`
}

type AddSearchPathParams struct {
	Path string `json:"path"`
}

type PluginWithPrograms struct {
	plugin.Plugin
	Programs []plugin.Program `json:"programs"`
}

type ListPluginsResponse struct {
	SearchPaths []string             `json:"search_paths"`
	Plugins     []PluginWithPrograms `json:"plugins"`
}

// Signals

type SignalInfoParams struct {
	OwnerParams
	Output bool `json:"output,omitempty"`
	Post   bool `json:"post,omitempty"`
}

type SignalInfoResponse struct {
	Signal      signal.Info `json:"signal"`
	Frequencies []float64   `json:"frequencies,omitempty"`
}

// Activity and history

type RecentActivityParams struct {
	SessionID string `json:"session_id,omitempty"`
	TrackID   *int   `json:"track_id,omitempty"`
	Type      string `json:"type,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

type LogMessagesParams struct {
	// Drop discards this many of the oldest messages after reading.
	Drop int `json:"drop,omitempty"`
}

type LogMessagesResponse struct {
	FirstIndex int64    `json:"first_index"`
	Messages   []string `json:"messages"`
}

type ListLoopsParams struct {
	SessionID string `json:"session_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}
