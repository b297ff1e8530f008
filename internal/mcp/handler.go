package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rpggio/nowloop/internal/clock"
	"github.com/rpggio/nowloop/internal/domain/activity"
	"github.com/rpggio/nowloop/internal/domain/archive"
	"github.com/rpggio/nowloop/internal/domain/input"
	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/domain/track"
	"github.com/rpggio/nowloop/internal/graph"
	"github.com/rpggio/nowloop/internal/signal"
	"github.com/rpggio/nowloop/internal/units"
)

// Engine is the graph surface exposed to clients.
type Engine interface {
	State() graph.State
	SessionID() string
	LastError() error
	Info() (graph.Info, error)
	TimeInfo() (clock.Snapshot, error)

	Initialize(fft graph.FFTConfig, preRecording units.ContinuousDuration[units.Second]) error
	Start() error
	Shutdown()
	Reset() error
	SetBeatsPerMinute(bpm float64) error

	CreateRecordingTrack(in plugin.AudioInputID) (track.ID, error)
	FinishRecording(id track.ID) error
	DeleteTrack(id track.ID) error
	TrackIDs() ([]track.ID, error)
	TrackInfo(id track.ID) (track.Info, error)
	SetTrackMuted(id track.ID, muted bool) error
	SetTrackPan(id track.ID, pan float64) error
	SetTrackVolume(id track.ID, volume float64) error
	SetInputPan(id plugin.AudioInputID, pan float64) error
	SetInputVolume(id plugin.AudioInputID, volume float64) error
	InputInfo(id plugin.AudioInputID) (input.Info, error)

	AddTrackPluginInstance(ctx context.Context, id track.ID, pluginID plugin.PluginID, programID plugin.ProgramID, dryWet int) (plugin.InstanceIndex, error)
	AddInputPluginInstance(ctx context.Context, id plugin.AudioInputID, pluginID plugin.PluginID, programID plugin.ProgramID, dryWet int) (plugin.InstanceIndex, error)
	SetTrackPluginDryWet(id track.ID, idx plugin.InstanceIndex, dryWet int) error
	SetInputPluginDryWet(id plugin.AudioInputID, idx plugin.InstanceIndex, dryWet int) error
	DeleteTrackPluginInstance(id track.ID, idx plugin.InstanceIndex) error
	DeleteInputPluginInstance(id plugin.AudioInputID, idx plugin.InstanceIndex) error
	TrackPluginInstances(id track.ID) ([]plugin.IndexedInstance, error)
	InputPluginInstances(id plugin.AudioInputID) ([]plugin.IndexedInstance, error)

	TrackSignalInfo(id track.ID) (signal.Info, error)
	InputSignalInfo(id plugin.AudioInputID, post bool) (signal.Info, error)
	OutputSignalInfo() (signal.Info, error)
	TrackFrequencies(id track.ID) ([]float64, error)
	InputFrequencies(id plugin.AudioInputID) ([]float64, error)
}

// PluginCatalog defines catalog operations needed by MCP.
type PluginCatalog interface {
	AddSearchPath(ctx context.Context, path string) error
	SearchPaths(ctx context.Context) ([]string, error)
	RegisterPlugin(ctx context.Context, name string) (*plugin.Plugin, error)
	RegisterProgram(ctx context.Context, pluginID plugin.PluginID, name string) (*plugin.Program, error)
	Plugins(ctx context.Context) ([]plugin.Plugin, error)
	Programs(ctx context.Context, pluginID plugin.PluginID) ([]plugin.Program, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, sessionID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
	LogInfo() activity.LogInfo
	LogMessage(index int64) (string, error)
	DropLogMessages(n int) error
}

// LoopHistory defines archive operations needed by MCP.
type LoopHistory interface {
	List(ctx context.Context, opts archive.ListOptions) ([]archive.Loop, error)
}

// Services contains everything the handler dispatches to.
type Services struct {
	Engine   Engine
	Plugins  PluginCatalog
	Activity ActivityService
	Loops    LoopHistory
}

// Defaults fill in initialize_graph arguments a client leaves out.
type Defaults struct {
	FFT                 graph.FFTConfig
	PreRecordingSeconds float64
}

// Handler dispatches MCP commands.
type Handler struct {
	engine   Engine
	plugins  PluginCatalog
	activity ActivityService
	loops    LoopHistory
	defaults Defaults
	logger   *slog.Logger
}

// NewHandler creates a new MCP handler.
func NewHandler(services Services, defaults Defaults, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		engine:   services.Engine,
		plugins:  services.Plugins,
		activity: services.Activity,
		loops:    services.Loops,
		defaults: defaults,
		logger:   logger,
	}
}

// GraphSessionID returns the engine's current session id, "" when the graph
// is uninitialized.
func (h *Handler) GraphSessionID() string {
	return h.engine.SessionID()
}

// Handle dispatches one request. clientID and sessionID identify the caller
// for logging only.
func (h *Handler) Handle(ctx context.Context, clientID, sessionID, method string, params json.RawMessage) (any, error) {
	result, err := h.dispatch(ctx, method, params)
	if err != nil {
		h.logger.Debug("request failed", "method", method, "client_id", clientID, "mcp_session_id", sessionID, "error", err)
		return nil, mapError(err)
	}
	h.logger.Debug("request handled", "method", method, "client_id", clientID, "mcp_session_id", sessionID)
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "graph_state":
		resp := GraphStateResponse{State: h.engine.State(), SessionID: h.engine.SessionID()}
		if err := h.engine.LastError(); err != nil {
			resp.LastError = err.Error()
		}
		return resp, nil
	case "graph_info":
		return h.engine.Info()
	case "time_info":
		snap, err := h.engine.TimeInfo()
		if err != nil {
			return nil, err
		}
		return newTimeInfoResponse(snap), nil
	case "initialize_graph":
		var req InitializeGraphParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		fft := h.defaults.FFT
		if req.FFT != nil {
			fft = *req.FFT
		}
		pre := h.defaults.PreRecordingSeconds
		if req.PreRecordingSeconds != nil {
			pre = *req.PreRecordingSeconds
		}
		if err := h.engine.Initialize(fft, units.ContinuousOf[units.Second](pre)); err != nil {
			return nil, err
		}
		return h.engine.Info()
	case "start_graph":
		if err := h.engine.Start(); err != nil {
			return nil, err
		}
		return GraphStateResponse{State: h.engine.State(), SessionID: h.engine.SessionID()}, nil
	case "shutdown_graph":
		h.engine.Shutdown()
		return GraphStateResponse{State: h.engine.State()}, nil
	case "reset_graph":
		if err := h.engine.Reset(); err != nil {
			return nil, err
		}
		return GraphStateResponse{State: h.engine.State()}, nil
	case "set_bpm":
		var req SetBPMParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.engine.SetBeatsPerMinute(req.BeatsPerMinute); err != nil {
			return nil, err
		}
		return ok(), nil

	case "create_recording_track":
		var req CreateRecordingTrackParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		id, err := h.engine.CreateRecordingTrack(req.InputID)
		if err != nil {
			return nil, err
		}
		return CreateRecordingTrackResponse{TrackID: id}, nil
	case "finish_recording":
		var req TrackIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.engine.FinishRecording(req.TrackID); err != nil {
			return nil, err
		}
		return ok(), nil
	case "delete_track":
		var req TrackIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.engine.DeleteTrack(req.TrackID); err != nil {
			return nil, err
		}
		return ok(), nil
	case "track_info":
		var req TrackIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		info, err := h.engine.TrackInfo(req.TrackID)
		if err != nil {
			return nil, err
		}
		return newTrackInfoResponse(info), nil
	case "list_tracks":
		ids, err := h.engine.TrackIDs()
		if err != nil {
			return nil, err
		}
		resp := ListTracksResponse{Tracks: make([]TrackInfoResponse, 0, len(ids))}
		for _, id := range ids {
			info, err := h.engine.TrackInfo(id)
			if errors.Is(err, track.ErrTrackNotFound) {
				// deleted since TrackIDs
				continue
			}
			if err != nil {
				return nil, err
			}
			resp.Tracks = append(resp.Tracks, newTrackInfoResponse(info))
		}
		return resp, nil
	case "set_track_muted":
		var req SetTrackMutedParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return okOr(h.engine.SetTrackMuted(req.TrackID, req.Muted))
	case "set_track_pan":
		var req SetTrackLevelParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return okOr(h.engine.SetTrackPan(req.TrackID, req.Value))
	case "set_track_volume":
		var req SetTrackLevelParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return okOr(h.engine.SetTrackVolume(req.TrackID, req.Value))
	case "set_input_pan":
		var req SetInputLevelParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return okOr(h.engine.SetInputPan(req.InputID, req.Value))
	case "set_input_volume":
		var req SetInputLevelParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return okOr(h.engine.SetInputVolume(req.InputID, req.Value))
	case "input_info":
		var req InputIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.engine.InputInfo(req.InputID)

	case "add_plugin_instance":
		var req AddPluginInstanceParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := req.OwnerParams.validate(); err != nil {
			return nil, err
		}
		var idx plugin.InstanceIndex
		var err error
		if req.TrackID != nil {
			idx, err = h.engine.AddTrackPluginInstance(ctx, *req.TrackID, req.PluginID, req.ProgramID, req.DryWet)
		} else {
			idx, err = h.engine.AddInputPluginInstance(ctx, *req.InputID, req.PluginID, req.ProgramID, req.DryWet)
		}
		if err != nil {
			return nil, err
		}
		return AddPluginInstanceResponse{Index: idx}, nil
	case "set_plugin_dry_wet":
		var req SetPluginDryWetParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := req.OwnerParams.validate(); err != nil {
			return nil, err
		}
		if req.TrackID != nil {
			return okOr(h.engine.SetTrackPluginDryWet(*req.TrackID, req.Index, req.DryWet))
		}
		return okOr(h.engine.SetInputPluginDryWet(*req.InputID, req.Index, req.DryWet))
	case "delete_plugin_instance":
		var req DeletePluginInstanceParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := req.OwnerParams.validate(); err != nil {
			return nil, err
		}
		if req.TrackID != nil {
			return okOr(h.engine.DeleteTrackPluginInstance(*req.TrackID, req.Index))
		}
		return okOr(h.engine.DeleteInputPluginInstance(*req.InputID, req.Index))
	case "list_plugin_instances":
		var req OwnerParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := req.validate(); err != nil {
			return nil, err
		}
		var instances []plugin.IndexedInstance
		var err error
		if req.TrackID != nil {
			instances, err = h.engine.TrackPluginInstances(*req.TrackID)
		} else {
			instances, err = h.engine.InputPluginInstances(*req.InputID)
		}
		if err != nil {
			return nil, err
		}
		return PluginInstancesResponse{Instances: instances}, nil

	case "list_plugins":
		return h.listPlugins(ctx)
	case "register_plugin":
		var req RegisterPluginParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.plugins.RegisterPlugin(ctx, req.Name)
	case "register_program":
		var req RegisterProgramParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.plugins.RegisterProgram(ctx, req.PluginID, req.Name)
	case "add_search_path":
		var req AddSearchPathParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return okOr(h.plugins.AddSearchPath(ctx, req.Path))

	case "signal_info":
		var req SignalInfoParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.signalInfo(req)

	case "recent_activity":
		var req RecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = h.engine.SessionID()
		}
		opts := activity.ListActivityOptions{
			TrackID: req.TrackID,
			Limit:   req.Limit,
			Offset:  req.Offset,
		}
		if req.Type != "" {
			t := activity.ActivityType(req.Type)
			opts.ActivityType = &t
		}
		entries, err := h.activity.GetRecentActivity(ctx, sessionID, opts)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []activity.ActivityEntry{}
		}
		return entries, nil
	case "log_messages":
		var req LogMessagesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.logMessages(req)
	case "list_loops":
		var req ListLoopsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		loops, err := h.loops.List(ctx, archive.ListOptions{
			SessionID: req.SessionID,
			Limit:     req.Limit,
			Offset:    req.Offset,
		})
		if err != nil {
			return nil, err
		}
		if loops == nil {
			loops = []archive.Loop{}
		}
		return loops, nil
	default:
		return nil, &APIError{Code: "METHOD_NOT_FOUND", Message: fmt.Sprintf("unknown method: %s", method)}
	}
}

func (h *Handler) listPlugins(ctx context.Context) (ListPluginsResponse, error) {
	paths, err := h.plugins.SearchPaths(ctx)
	if err != nil {
		return ListPluginsResponse{}, err
	}
	plugins, err := h.plugins.Plugins(ctx)
	if err != nil {
		return ListPluginsResponse{}, err
	}
	resp := ListPluginsResponse{
		SearchPaths: paths,
		Plugins:     make([]PluginWithPrograms, 0, len(plugins)),
	}
	if resp.SearchPaths == nil {
		resp.SearchPaths = []string{}
	}
	for _, p := range plugins {
		programs, err := h.plugins.Programs(ctx, p.ID)
		if err != nil {
			return ListPluginsResponse{}, err
		}
		if programs == nil {
			programs = []plugin.Program{}
		}
		resp.Plugins = append(resp.Plugins, PluginWithPrograms{Plugin: p, Programs: programs})
	}
	return resp, nil
}

func (h *Handler) signalInfo(req SignalInfoParams) (SignalInfoResponse, error) {
	if req.Output {
		info, err := h.engine.OutputSignalInfo()
		return SignalInfoResponse{Signal: info}, err
	}
	if err := req.OwnerParams.validate(); err != nil {
		return SignalInfoResponse{}, err
	}
	var resp SignalInfoResponse
	var err error
	if req.TrackID != nil {
		if resp.Signal, err = h.engine.TrackSignalInfo(*req.TrackID); err != nil {
			return SignalInfoResponse{}, err
		}
		resp.Frequencies, err = h.engine.TrackFrequencies(*req.TrackID)
		return resp, err
	}
	if resp.Signal, err = h.engine.InputSignalInfo(*req.InputID, req.Post); err != nil {
		return SignalInfoResponse{}, err
	}
	resp.Frequencies, err = h.engine.InputFrequencies(*req.InputID)
	return resp, err
}

func (h *Handler) logMessages(req LogMessagesParams) (LogMessagesResponse, error) {
	info := h.activity.LogInfo()
	resp := LogMessagesResponse{FirstIndex: info.FirstIndex, Messages: make([]string, 0, info.Count)}
	for i := range int64(info.Count) {
		msg, err := h.activity.LogMessage(info.FirstIndex + i)
		if err != nil {
			return LogMessagesResponse{}, err
		}
		resp.Messages = append(resp.Messages, msg)
	}
	if req.Drop > 0 {
		if err := h.activity.DropLogMessages(req.Drop); err != nil {
			return LogMessagesResponse{}, err
		}
	}
	return resp, nil
}

func (p OwnerParams) validate() error {
	switch {
	case p.TrackID != nil && p.InputID != nil:
		return fmt.Errorf("%w: give track_id or input_id, not both", ErrInvalidParams)
	case p.TrackID == nil && p.InputID == nil:
		return fmt.Errorf("%w: track_id or input_id is required", ErrInvalidParams)
	}
	return nil
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return nil
}

func ok() map[string]string {
	return map[string]string{"status": "ok"}
}

func okOr(err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return ok(), nil
}
