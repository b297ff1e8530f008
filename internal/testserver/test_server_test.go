package testserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			Code string `json:"code"`
		} `json:"data"`
	} `json:"error"`
}

func (ts *TestServer) rpc(t *testing.T, token, method string, params any) rpcResponse {
	t.Helper()
	body, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (ts *TestServer) must(t *testing.T, method string, params any, into any) {
	t.Helper()
	resp := ts.rpc(t, ts.Token, method, params)
	require.Nil(t, resp.Error, "%s failed: %+v", method, resp.Error)
	if into != nil {
		require.NoError(t, json.Unmarshal(resp.Result, into))
	}
}

func TestServer_RecordLoopOverHTTP(t *testing.T) {
	ts := New(t, "secret", "client1")

	var info struct {
		SessionID string `json:"session_id"`
	}
	ts.must(t, "initialize_graph", map[string]any{}, &info)
	require.NotEmpty(t, info.SessionID)
	ts.must(t, "start_graph", nil, nil)

	var created struct {
		TrackID int `json:"track_id"`
	}
	ts.must(t, "create_recording_track", map[string]any{"input_id": 1}, &created)
	require.Equal(t, 1, created.TrackID)

	ts.Advance(t, 1)
	ts.must(t, "finish_recording", map[string]any{"track_id": 1}, nil)
	ts.Advance(t, 3)

	var ti struct {
		State           string `json:"state"`
		Duration        int64  `json:"duration"`
		DurationInBeats int64  `json:"duration_in_beats"`
	}
	ts.must(t, "track_info", map[string]any{"track_id": 1}, &ti)
	require.Equal(t, "Looping", ti.State)
	require.EqualValues(t, 8000, ti.Duration)
	require.EqualValues(t, 4, ti.DurationInBeats)

	require.Eventually(t, func() bool {
		var loops []struct {
			SessionID string `json:"session_id"`
			TrackID   int    `json:"track_id"`
			Duration  int64  `json:"duration"`
		}
		ts.must(t, "list_loops", map[string]any{"session_id": info.SessionID}, &loops)
		return len(loops) == 1 && loops[0].TrackID == 1 && loops[0].Duration == 8000
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		var entries []json.RawMessage
		ts.must(t, "recent_activity", map[string]any{"type": "track_looping"}, &entries)
		return len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_PluginCatalogPersists(t *testing.T) {
	ts := New(t, "secret", "client1")

	var p struct {
		ID int `json:"id"`
	}
	ts.must(t, "register_plugin", map[string]any{"name": "Reverb"}, &p)
	require.Equal(t, 1, p.ID)
	var prog struct {
		ID int `json:"id"`
	}
	ts.must(t, "register_program", map[string]any{"plugin_id": p.ID, "name": "Hall"}, &prog)
	require.Equal(t, 1, prog.ID)

	ts.must(t, "initialize_graph", map[string]any{}, nil)
	ts.must(t, "start_graph", nil, nil)

	var added struct {
		Index int `json:"index"`
	}
	ts.must(t, "add_plugin_instance", map[string]any{"input_id": 1, "plugin_id": 1, "program_id": 1, "dry_wet": 40}, &added)
	require.Equal(t, 1, added.Index)

	resp := ts.rpc(t, ts.Token, "add_plugin_instance", map[string]any{"input_id": 1, "plugin_id": 9, "program_id": 1, "dry_wet": 40})
	require.NotNil(t, resp.Error)
	require.Equal(t, "PLUGIN_NOT_FOUND", resp.Error.Data.Code)
}

func TestServer_DomainErrorCarriesCode(t *testing.T) {
	ts := New(t, "secret", "client1")

	resp := ts.rpc(t, ts.Token, "create_recording_track", map[string]any{"input_id": 1})
	require.NotNil(t, resp.Error)
	require.Equal(t, -32000, resp.Error.Code)
	require.Equal(t, "WRONG_GRAPH_STATE", resp.Error.Data.Code)

	resp = ts.rpc(t, ts.Token, "no_such_method", nil)
	require.NotNil(t, resp.Error)
	require.Equal(t, -32601, resp.Error.Code)
}

func TestServer_RejectsUnknownToken(t *testing.T) {
	ts := New(t, "secret", "client1")

	body := bytes.NewBufferString(`{"jsonrpc":"2.0","id":1,"method":"graph_state"}`)
	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	require.NoError(t, ts.AddAPIKey("second", "client2"))
	out := ts.rpc(t, "second", "graph_state", nil)
	require.Nil(t, out.Error)
}
