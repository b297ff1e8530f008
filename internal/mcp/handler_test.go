package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/nowloop/internal/clock"
	"github.com/rpggio/nowloop/internal/domain/activity"
	"github.com/rpggio/nowloop/internal/domain/archive"
	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/domain/track"
	"github.com/rpggio/nowloop/internal/graph"
)

const block = 4000

type catalogStub struct {
	paths    []string
	plugins  []plugin.Plugin
	programs map[plugin.PluginID][]plugin.Program
}

func (c *catalogStub) AddSearchPath(_ context.Context, path string) error {
	c.paths = append(c.paths, path)
	return nil
}
func (c *catalogStub) SearchPaths(context.Context) ([]string, error) { return c.paths, nil }
func (c *catalogStub) RegisterPlugin(_ context.Context, name string) (*plugin.Plugin, error) {
	p := plugin.Plugin{ID: plugin.PluginID(len(c.plugins) + 1), Name: name}
	c.plugins = append(c.plugins, p)
	return &p, nil
}
func (c *catalogStub) RegisterProgram(_ context.Context, pluginID plugin.PluginID, name string) (*plugin.Program, error) {
	if int(pluginID) > len(c.plugins) {
		return nil, fmt.Errorf("%w: %d", plugin.ErrUnknownPlugin, pluginID)
	}
	if c.programs == nil {
		c.programs = map[plugin.PluginID][]plugin.Program{}
	}
	p := plugin.Program{PluginID: pluginID, ID: plugin.ProgramID(len(c.programs[pluginID]) + 1), Name: name}
	c.programs[pluginID] = append(c.programs[pluginID], p)
	return &p, nil
}
func (c *catalogStub) Plugins(context.Context) ([]plugin.Plugin, error) { return c.plugins, nil }
func (c *catalogStub) Programs(_ context.Context, pluginID plugin.PluginID) ([]plugin.Program, error) {
	return c.programs[pluginID], nil
}

type loopsStub struct {
	listFn func(context.Context, archive.ListOptions) ([]archive.Loop, error)
}

func (l loopsStub) List(ctx context.Context, opts archive.ListOptions) ([]archive.Loop, error) {
	return l.listFn(ctx, opts)
}

type fixture struct {
	graph    *graph.Graph
	handler  *Handler
	catalog  *catalogStub
	activity *activity.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := graph.DefaultConfig()
	cfg.BeatsPerMinute = 120
	cfg.BlockSize = block
	g, err := graph.New(cfg, graph.Deps{})
	require.NoError(t, err)

	f := &fixture{graph: g, catalog: &catalogStub{}, activity: activity.NewService(nil, nil)}
	f.handler = NewHandler(Services{
		Engine:   g,
		Plugins:  f.catalog,
		Activity: f.activity,
		Loops: loopsStub{listFn: func(_ context.Context, opts archive.ListOptions) ([]archive.Loop, error) {
			return []archive.Loop{{ID: "l1", SessionID: opts.SessionID, TrackID: 1, Duration: 96000}}, nil
		}},
	}, Defaults{FFT: graph.DefaultFFTConfig()}, nil)
	return f
}

func (f *fixture) call(t *testing.T, method string, params any) (any, error) {
	t.Helper()
	var raw json.RawMessage
	if params != nil {
		raw = mustJSON(t, params)
	}
	return f.handler.Handle(context.Background(), "client1", "mcp-session", method, raw)
}

func (f *fixture) must(t *testing.T, method string, params any) any {
	t.Helper()
	result, err := f.call(t, method, params)
	require.NoError(t, err, method)
	return result
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	f.must(t, "initialize_graph", nil)
	f.must(t, "start_graph", nil)
}

func (f *fixture) advanceTo(t *testing.T, sample int64) {
	t.Helper()
	for {
		snap, err := f.graph.TimeInfo()
		require.NoError(t, err)
		if snap.Time.Int64() >= sample {
			return
		}
		require.NoError(t, f.graph.ProcessBlock(block))
	}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, code, apiErr.Code, apiErr.Details)
}

func TestHandler_RecordLoop(t *testing.T) {
	f := newFixture(t)

	state := f.must(t, "graph_state", nil).(GraphStateResponse)
	require.Equal(t, graph.StateUninitialized, state.State)

	info := f.must(t, "initialize_graph", InitializeGraphParams{}).(graph.Info)
	require.Equal(t, 48000, info.SampleRate)
	require.Equal(t, 2, info.InputCount)
	require.NotEmpty(t, info.SessionID)

	started := f.must(t, "start_graph", nil).(GraphStateResponse)
	require.Equal(t, graph.StateRunning, started.State)
	require.Equal(t, info.SessionID, started.SessionID)

	created := f.must(t, "create_recording_track", CreateRecordingTrackParams{InputID: 1}).(CreateRecordingTrackResponse)
	require.Equal(t, track.ID(1), created.TrackID)

	f.advanceTo(t, 24000)
	f.must(t, "finish_recording", TrackIDParams{TrackID: 1})
	f.advanceTo(t, 96000)

	ti := f.must(t, "track_info", TrackIDParams{TrackID: 1}).(TrackInfoResponse)
	require.Equal(t, track.StateLooping, ti.State)
	require.True(t, ti.IsTrackLooping)
	require.EqualValues(t, 96000, ti.Duration)
	require.EqualValues(t, 4, ti.DurationInBeats)
	require.InDelta(t, 2.0, ti.ExactDuration, 1e-9)

	tracks := f.must(t, "list_tracks", nil).(ListTracksResponse)
	require.Len(t, tracks.Tracks, 1)

	tm := f.must(t, "time_info", nil).(TimeInfoResponse)
	require.EqualValues(t, 96000, tm.TimeInSamples)
	require.Equal(t, 120.0, tm.BeatsPerMinute)

	f.must(t, "set_track_volume", SetTrackLevelParams{TrackID: 1, Value: 0.5})
	f.must(t, "set_track_muted", SetTrackMutedParams{TrackID: 1, Muted: true})
	f.must(t, "set_input_pan", SetInputLevelParams{InputID: 2, Value: 0})
	f.advanceTo(t, 100000)
	ti = f.must(t, "track_info", TrackIDParams{TrackID: 1}).(TrackInfoResponse)
	require.Equal(t, 0.5, ti.Volume)
	require.True(t, ti.Muted)

	f.must(t, "delete_track", TrackIDParams{TrackID: 1})
	_, err := f.call(t, "track_info", TrackIDParams{TrackID: 1})
	requireCode(t, err, "TRACK_NOT_FOUND")

	f.must(t, "shutdown_graph", nil)
	state = f.must(t, "graph_state", nil).(GraphStateResponse)
	require.Equal(t, graph.StateUninitialized, state.State)
}

func TestHandler_ErrorCodes(t *testing.T) {
	f := newFixture(t)

	_, err := f.call(t, "create_recording_track", CreateRecordingTrackParams{InputID: 1})
	requireCode(t, err, "WRONG_GRAPH_STATE")

	f.start(t)

	_, err = f.call(t, "finish_recording", TrackIDParams{TrackID: 0})
	requireCode(t, err, "INVALID_ID")

	_, err = f.call(t, "finish_recording", TrackIDParams{TrackID: 7})
	requireCode(t, err, "TRACK_NOT_FOUND")

	_, err = f.call(t, "create_recording_track", CreateRecordingTrackParams{InputID: 9})
	requireCode(t, err, "INPUT_NOT_FOUND")

	f.must(t, "set_bpm", SetBPMParams{BeatsPerMinute: 90})
	f.must(t, "create_recording_track", CreateRecordingTrackParams{InputID: 1})

	_, err = f.call(t, "set_bpm", SetBPMParams{BeatsPerMinute: 100})
	requireCode(t, err, "TRACKS_EXIST")

	_, err = f.call(t, "delete_track", TrackIDParams{TrackID: 1})
	requireCode(t, err, "INVALID_TRACK_STATE")

	_, err = f.call(t, "set_track_pan", SetTrackLevelParams{TrackID: 1, Value: 1.5})
	requireCode(t, err, "OUT_OF_RANGE")

	_, err = f.handler.Handle(context.Background(), "", "", "set_bpm", json.RawMessage(`{"bpm": "fast"}`))
	requireCode(t, err, "INVALID_PARAMS")

	_, err = f.call(t, "list_plugin_instances", OwnerParams{})
	requireCode(t, err, "INVALID_PARAMS")

	_, err = f.call(t, "no_such_tool", nil)
	requireCode(t, err, "METHOD_NOT_FOUND")

	_, err = f.call(t, "initialize_graph", nil)
	requireCode(t, err, "WRONG_GRAPH_STATE")

	f.graph.Fail(errors.New("device lost"))
	in := plugin.AudioInputID(1)
	for name, params := range map[string]any{
		"create_recording_track": CreateRecordingTrackParams{InputID: 1},
		"finish_recording":       TrackIDParams{TrackID: 1},
		"delete_track":           TrackIDParams{TrackID: 1},
		"track_info":             TrackIDParams{TrackID: 1},
		"set_bpm":                SetBPMParams{BeatsPerMinute: 90},
		"set_input_pan":          SetInputLevelParams{InputID: 1, Value: 0.2},
		"graph_info":             nil,
		"time_info":              nil,
		"add_plugin_instance": AddPluginInstanceParams{
			OwnerParams: OwnerParams{InputID: &in}, PluginID: 2, ProgramID: 1, DryWet: 50,
		},
	} {
		_, err = f.call(t, name, params)
		requireCode(t, err, "WRONG_GRAPH_STATE")
	}

	state := f.must(t, "graph_state", nil).(GraphStateResponse)
	require.Equal(t, graph.StateInError, state.State)
	require.Equal(t, "device lost", state.LastError)
	state = f.must(t, "shutdown_graph", nil).(GraphStateResponse)
	require.Equal(t, graph.StateUninitialized, state.State)
}

func TestHandler_PluginInstances(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	in := plugin.AudioInputID(1)

	first := f.must(t, "add_plugin_instance", AddPluginInstanceParams{
		OwnerParams: OwnerParams{InputID: &in}, PluginID: 2, ProgramID: 1, DryWet: 50,
	}).(AddPluginInstanceResponse)
	require.Equal(t, plugin.InstanceIndex(1), first.Index)

	second := f.must(t, "add_plugin_instance", AddPluginInstanceParams{
		OwnerParams: OwnerParams{InputID: &in}, PluginID: 3, ProgramID: 1, DryWet: 100,
	}).(AddPluginInstanceResponse)
	require.Equal(t, plugin.InstanceIndex(2), second.Index)

	f.must(t, "set_plugin_dry_wet", SetPluginDryWetParams{OwnerParams: OwnerParams{InputID: &in}, Index: 2, DryWet: 25})
	f.must(t, "delete_plugin_instance", DeletePluginInstanceParams{OwnerParams: OwnerParams{InputID: &in}, Index: 1})

	list := f.must(t, "list_plugin_instances", OwnerParams{InputID: &in}).(PluginInstancesResponse)
	require.Len(t, list.Instances, 1)
	require.Equal(t, plugin.InstanceIndex(1), list.Instances[0].Index)
	require.Equal(t, plugin.PluginID(3), list.Instances[0].PluginID)
	require.Equal(t, 25, list.Instances[0].DryWet)

	_, err := f.call(t, "delete_plugin_instance", DeletePluginInstanceParams{OwnerParams: OwnerParams{InputID: &in}, Index: 2})
	requireCode(t, err, "OUT_OF_RANGE")

	_, err = f.call(t, "set_plugin_dry_wet", SetPluginDryWetParams{OwnerParams: OwnerParams{InputID: &in}, Index: 1, DryWet: 101})
	requireCode(t, err, "OUT_OF_RANGE")

	tr := track.ID(1)
	_, err = f.call(t, "list_plugin_instances", OwnerParams{TrackID: &tr, InputID: &in})
	requireCode(t, err, "INVALID_PARAMS")
}

func TestHandler_Signals(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	require.NoError(t, f.graph.ReportInputSignal(1, true, 0.2, 0.6))
	require.NoError(t, f.graph.ReportOutputSignal(0.4))
	bins := make([]float64, graph.DefaultFFTConfig().OutputBinCount)
	bins[3] = 1
	require.NoError(t, f.graph.ReportInputFrequencies(1, bins))

	in := plugin.AudioInputID(1)
	resp := f.must(t, "signal_info", SignalInfoParams{OwnerParams: OwnerParams{InputID: &in}, Post: true}).(SignalInfoResponse)
	require.Equal(t, 0.2, resp.Signal.Min)
	require.Equal(t, 0.6, resp.Signal.Max)
	require.Equal(t, bins, resp.Frequencies)

	out := f.must(t, "signal_info", SignalInfoParams{Output: true}).(SignalInfoResponse)
	require.Equal(t, 0.4, out.Signal.Max)
}

func TestHandler_CatalogAndHistory(t *testing.T) {
	f := newFixture(t)

	f.must(t, "add_search_path", AddSearchPathParams{Path: "/usr/lib/vst3"})
	p := f.must(t, "register_plugin", RegisterPluginParams{Name: "Reverb"}).(*plugin.Plugin)
	f.must(t, "register_program", RegisterProgramParams{PluginID: p.ID, Name: "Hall"})

	_, err := f.call(t, "register_program", RegisterProgramParams{PluginID: 9, Name: "Room"})
	requireCode(t, err, "PLUGIN_NOT_FOUND")

	list := f.must(t, "list_plugins", nil).(ListPluginsResponse)
	require.Equal(t, []string{"/usr/lib/vst3"}, list.SearchPaths)
	require.Len(t, list.Plugins, 1)
	require.Equal(t, "Reverb", list.Plugins[0].Name)
	require.Len(t, list.Plugins[0].Programs, 1)

	ctx := context.Background()
	for i := range 3 {
		require.NoError(t, f.activity.LogActivity(ctx, "s1", &activity.ActivityEntry{
			ActivityType: activity.TypeTrackCreated,
			Summary:      fmt.Sprintf("track %d created", i+1),
		}))
	}
	msgs := f.must(t, "log_messages", LogMessagesParams{Drop: 2}).(LogMessagesResponse)
	require.Len(t, msgs.Messages, 3)
	require.Contains(t, msgs.Messages[0], "track 1 created")

	msgs = f.must(t, "log_messages", nil).(LogMessagesResponse)
	require.Len(t, msgs.Messages, 1)
	require.Contains(t, msgs.Messages[0], "track 3 created")

	entries := f.must(t, "recent_activity", RecentActivityParams{}).([]activity.ActivityEntry)
	require.Empty(t, entries)

	loops := f.must(t, "list_loops", ListLoopsParams{SessionID: "s1"}).([]archive.Loop)
	require.Len(t, loops, 1)
	require.Equal(t, "s1", loops[0].SessionID)
}

func TestMapError(t *testing.T) {
	deleted := fmt.Errorf("%w (%w): %d", track.ErrTrackNotFound, plugin.ErrInvalidID, 3)
	cases := []struct {
		err  error
		code string
	}{
		{deleted, "TRACK_NOT_FOUND"},
		{plugin.ErrInvalidID, "INVALID_ID"},
		{fmt.Errorf("wrapped: %w", graph.ErrCommandQueueFull), "QUEUE_FULL"},
		{clock.ErrTracksExist, "TRACKS_EXIST"},
		{track.ErrInvalidState, "INVALID_TRACK_STATE"},
		{graph.ErrWrongGraphState, "WRONG_GRAPH_STATE"},
		{plugin.ErrDryWetOutOfRange, "OUT_OF_RANGE"},
	}
	for _, tc := range cases {
		apiErr := MapError(tc.err)
		require.NotNil(t, apiErr, tc.err)
		require.Equal(t, tc.code, apiErr.Code)
		require.Equal(t, tc.err.Error(), apiErr.Details)
	}

	require.Nil(t, MapError(nil))
	require.Nil(t, MapError(errors.New("disk on fire")))

	apiErr := &APIError{Code: "CUSTOM", Message: "m"}
	require.Same(t, apiErr, MapError(fmt.Errorf("ctx: %w", apiErr)))
}

func TestToolCatalogCoversHandler(t *testing.T) {
	f := newFixture(t)
	seen := map[string]bool{}
	for _, def := range buildToolCatalog() {
		require.False(t, seen[def.Name], "duplicate tool %s", def.Name)
		seen[def.Name] = true
		require.Equal(t, "object", def.InputSchema["type"])

		// every catalogued tool is dispatched; unknown ones map to METHOD_NOT_FOUND
		_, err := f.call(t, def.Name, nil)
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			require.NotEqual(t, "METHOD_NOT_FOUND", apiErr.Code, def.Name)
		}
	}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
