package activity

import "time"

// ActivityType represents the type of engine event
type ActivityType string

const (
	TypeGraphInitialized      ActivityType = "graph_initialized"
	TypeGraphStarted          ActivityType = "graph_started"
	TypeGraphFailed           ActivityType = "graph_failed"
	TypeGraphShutdown         ActivityType = "graph_shutdown"
	TypeTempoChanged          ActivityType = "tempo_changed"
	TypeTrackCreated          ActivityType = "track_created"
	TypeFinishRequested       ActivityType = "finish_requested"
	TypeTrackLooping          ActivityType = "track_looping"
	TypeTrackDeleted          ActivityType = "track_deleted"
	TypePluginInstanceAdded   ActivityType = "plugin_instance_added"
	TypePluginInstanceDeleted ActivityType = "plugin_instance_deleted"
	TypeDryWetChanged         ActivityType = "dry_wet_changed"
	TypeEventsDropped         ActivityType = "events_dropped"
	TypeCommandFailed         ActivityType = "command_failed"
	TypeTrackSettingsChanged  ActivityType = "track_settings_changed"
	TypeInputSettingsChanged  ActivityType = "input_settings_changed"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	SessionID    string       `json:"session_id"`
	ClientID     *string      `json:"client_id,omitempty"`
	TrackID      *int         `json:"track_id,omitempty"`
	InputID      *int         `json:"input_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
	SampleTime   int64        `json:"sample_time"`
}

// LogInfo describes the retained window of the in-memory message log.
type LogInfo struct {
	FirstIndex int64 `json:"first_index"`
	Count      int   `json:"count"`
}
