package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/nowloop/internal/clock"
	"github.com/rpggio/nowloop/internal/domain/activity"
	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/domain/track"
	"github.com/rpggio/nowloop/internal/graph"
	"github.com/rpggio/nowloop/internal/repository"
	"github.com/rpggio/nowloop/internal/signal"
)

// ErrInvalidParams indicates arguments that could not be decoded or are
// missing a required field.
var ErrInvalidParams = errors.New("invalid params")

// APIError represents an MCP error response.
// APIError is the structured error returned to tool callers.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

// Error formats the code and message.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeValue returns the stable error code.
func (e *APIError) CodeValue() string {
	return e.Code
}

// MessageValue returns the human-readable message.
func (e *APIError) MessageValue() string {
	return e.Message
}

// DetailsValue returns extra context, usually the wrapped error text.
func (e *APIError) DetailsValue() any {
	return e.Details
}

// RecoveryHintValue returns a suggested next step, if any.
func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain errors to stable error codes. The original error text
// is kept in Details.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var e *APIError
	switch {
	// A deleted track id wraps both sentinels; the more specific code wins.
	case errors.Is(err, track.ErrTrackNotFound):
		e = &APIError{Code: "TRACK_NOT_FOUND", Message: "track not found", RecoveryHint: "Call list_tracks for live ids"}
	case errors.Is(err, plugin.ErrInvalidID):
		e = &APIError{Code: "INVALID_ID", Message: "ids start at 1", RecoveryHint: "Check the id"}
	case errors.Is(err, graph.ErrUnknownInput):
		e = &APIError{Code: "INPUT_NOT_FOUND", Message: "audio input not found", RecoveryHint: "Check input_count in graph_info"}
	case errors.Is(err, track.ErrInvalidState):
		e = &APIError{Code: "INVALID_TRACK_STATE", Message: "operation not valid in the track's state", RecoveryHint: "Check track_info state"}
	case errors.Is(err, graph.ErrWrongGraphState):
		e = &APIError{Code: "WRONG_GRAPH_STATE", Message: "operation not valid in the graph's state", RecoveryHint: "Check graph_state"}
	case errors.Is(err, clock.ErrTracksExist):
		e = &APIError{Code: "TRACKS_EXIST", Message: "tempo is locked while tracks exist", RecoveryHint: "Delete all tracks first"}
	case errors.Is(err, clock.ErrInvalidTempo):
		e = &APIError{Code: "INVALID_TEMPO", Message: "beats per minute must be positive"}
	case errors.Is(err, track.ErrPanOutOfRange),
		errors.Is(err, track.ErrVolumeOutOfRange),
		errors.Is(err, plugin.ErrDryWetOutOfRange),
		errors.Is(err, plugin.ErrIndexOutOfRange),
		errors.Is(err, activity.ErrMessageOutOfRange),
		errors.Is(err, signal.ErrNonFinite):
		e = &APIError{Code: "OUT_OF_RANGE", Message: "value out of range"}
	case errors.Is(err, graph.ErrCommandQueueFull):
		e = &APIError{Code: "QUEUE_FULL", Message: "command queue full", RecoveryHint: "Retry after the next block"}
	case errors.Is(err, graph.ErrTooManyTracks):
		e = &APIError{Code: "TOO_MANY_TRACKS", Message: "track limit reached", RecoveryHint: "Delete a track"}
	case errors.Is(err, graph.ErrInvalidFFT), errors.Is(err, graph.ErrInvalidConfig):
		e = &APIError{Code: "INVALID_CONFIG", Message: "invalid configuration"}
	case errors.Is(err, plugin.ErrUnknownPlugin), errors.Is(err, plugin.ErrUnknownProgram):
		e = &APIError{Code: "PLUGIN_NOT_FOUND", Message: "plugin or program not in catalog", RecoveryHint: "Call list_plugins"}
	case errors.Is(err, repository.ErrConflict):
		e = &APIError{Code: "CONFLICT", Message: "entity already exists"}
	case errors.Is(err, repository.ErrNotFound):
		e = &APIError{Code: "NOT_FOUND", Message: "not found"}
	case errors.Is(err, ErrInvalidParams), errors.Is(err, plugin.ErrInvalidInput):
		e = &APIError{Code: "INVALID_PARAMS", Message: "invalid params"}
	default:
		return nil
	}
	e.Details = err.Error()
	return e
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
