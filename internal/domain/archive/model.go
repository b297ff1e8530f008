// Package archive keeps a history of the loops each graph session produced.
package archive

import "time"

// Loop records a track at the moment it started looping.
type Loop struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	TrackID         int       `json:"track_id"`
	InputID         int       `json:"input_id"`
	StartTime       int64     `json:"start_time"`
	Duration        int64     `json:"duration"`
	DurationInBeats int64     `json:"duration_in_beats"`
	ExactDuration   float64   `json:"exact_duration_seconds"`
	BeatsPerMinute  float64   `json:"beats_per_minute"`
	BeatsPerMeasure int       `json:"beats_per_measure"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListOptions provides filtering options for listing loops.
type ListOptions struct {
	SessionID string
	Limit     int
	Offset    int
}
