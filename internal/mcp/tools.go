package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDefinition describes a callable tool.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

type property struct {
	name   string
	schema map[string]any
}

func object(required []string, props ...property) map[string]any {
	properties := make(map[string]any, len(props))
	for _, p := range props {
		properties[p.name] = p.schema
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func typed(kind, name, description string) property {
	return property{name: name, schema: map[string]any{"type": kind, "description": description}}
}

func integer(name, description string) property { return typed("integer", name, description) }
func number(name, description string) property  { return typed("number", name, description) }
func boolean(name, description string) property { return typed("boolean", name, description) }
func str(name, description string) property     { return typed("string", name, description) }

var (
	trackIDProp = integer("track_id", "Track id (1-based, never reused)")
	inputIDProp = integer("input_id", "Audio input id (1-based)")
	ownerTrack  = integer("track_id", "Owning track id; give this or input_id")
	ownerInput  = integer("input_id", "Owning audio input id; give this or track_id")
	indexProp   = integer("index", "1-based position in the owner's plugin chain; re-query after deletes")
	dryWetProp  = integer("dry_wet", "Dry/wet mix, 0 (dry) to 100 (wet)")
	levelProp   = number("value", "Level between 0 and 1")
	limitProp   = integer("limit", "Maximum number of results")
	offsetProp  = integer("offset", "Offset for pagination")
)

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Graph lifecycle
		{
			Name:        "graph_state",
			Description: "Get the graph state (Uninitialized, Initialized, Running, InError), session id and last error",
			InputSchema: object(nil),
		},
		{
			Name:        "graph_info",
			Description: "Get the audio format, block size, input count and quantization of the current session",
			InputSchema: object(nil),
		},
		{
			Name:        "time_info",
			Description: "Get the beat clock as of the last processed block",
			InputSchema: object(nil),
		},
		{
			Name:        "initialize_graph",
			Description: "Create a new session: clock, inputs and command queue. Only valid when Uninitialized",
			InputSchema: object(nil,
				property{name: "fft", schema: map[string]any{
					"type":        "object",
					"description": "Frequency analysis settings (server defaults when omitted)",
				}},
				number("pre_recording_seconds", "Lead-in the capture layer keeps before each recording; reported by graph_info"),
			),
		},
		{
			Name:        "start_graph",
			Description: "Start processing blocks. Only valid when Initialized",
			InputSchema: object(nil),
		},
		{
			Name:        "shutdown_graph",
			Description: "Discard the session and return to Uninitialized",
			InputSchema: object(nil),
		},
		{
			Name:        "reset_graph",
			Description: "Recover from InError to Uninitialized",
			InputSchema: object(nil),
		},
		{
			Name:        "set_bpm",
			Description: "Change the tempo. Refused while any track exists",
			InputSchema: object([]string{"bpm"}, number("bpm", "Beats per minute, greater than 0")),
		},

		// Tracks
		{
			Name:        "create_recording_track",
			Description: "Start recording a new track from an audio input; returns its id",
			InputSchema: object([]string{"input_id"}, inputIDProp),
		},
		{
			Name:        "finish_recording",
			Description: "Stop a Recording track at the next quantum boundary; it loops from there",
			InputSchema: object([]string{"track_id"}, trackIDProp),
		},
		{
			Name:        "delete_track",
			Description: "Delete a Looping track. Its id becomes invalid",
			InputSchema: object([]string{"track_id"}, trackIDProp),
		},
		{
			Name:        "track_info",
			Description: "Get a track's state, timing and mix settings",
			InputSchema: object([]string{"track_id"}, trackIDProp),
		},
		{
			Name:        "list_tracks",
			Description: "List all live tracks in id order",
			InputSchema: object(nil),
		},
		{
			Name:        "set_track_muted",
			Description: "Mute or unmute a track",
			InputSchema: object([]string{"track_id", "muted"}, trackIDProp, boolean("muted", "Whether the track is muted")),
		},
		{
			Name:        "set_track_pan",
			Description: "Set a track's pan, 0 left to 1 right",
			InputSchema: object([]string{"track_id", "value"}, trackIDProp, levelProp),
		},
		{
			Name:        "set_track_volume",
			Description: "Set a track's volume",
			InputSchema: object([]string{"track_id", "value"}, trackIDProp, levelProp),
		},
		{
			Name:        "set_input_pan",
			Description: "Set an audio input's pan, 0 left to 1 right",
			InputSchema: object([]string{"input_id", "value"}, inputIDProp, levelProp),
		},
		{
			Name:        "set_input_volume",
			Description: "Set an audio input's volume",
			InputSchema: object([]string{"input_id", "value"}, inputIDProp, levelProp),
		},
		{
			Name:        "input_info",
			Description: "Get an audio input's mix settings and levels",
			InputSchema: object([]string{"input_id"}, inputIDProp),
		},

		// Plugin instances
		{
			Name:        "add_plugin_instance",
			Description: "Append a plugin instance to a track's or input's chain; returns its 1-based index",
			InputSchema: object([]string{"plugin_id", "program_id", "dry_wet"},
				ownerTrack, ownerInput,
				integer("plugin_id", "Plugin id from list_plugins"),
				integer("program_id", "Program id from list_plugins"),
				dryWetProp,
			),
		},
		{
			Name:        "set_plugin_dry_wet",
			Description: "Change the dry/wet mix of one plugin instance",
			InputSchema: object([]string{"index", "dry_wet"}, ownerTrack, ownerInput, indexProp, dryWetProp),
		},
		{
			Name:        "delete_plugin_instance",
			Description: "Remove one plugin instance; later instances shift down one index",
			InputSchema: object([]string{"index"}, ownerTrack, ownerInput, indexProp),
		},
		{
			Name:        "list_plugin_instances",
			Description: "List a track's or input's plugin chain in order",
			InputSchema: object(nil, ownerTrack, ownerInput),
		},

		// Catalog
		{
			Name:        "list_plugins",
			Description: "List plugin search paths, plugins and their programs",
			InputSchema: object(nil),
		},
		{
			Name:        "register_plugin",
			Description: "Add a plugin reported by the host to the catalog",
			InputSchema: object([]string{"name"}, str("name", "Plugin name")),
		},
		{
			Name:        "register_program",
			Description: "Add a named program to a plugin",
			InputSchema: object([]string{"plugin_id", "name"}, integer("plugin_id", "Plugin id"), str("name", "Program name")),
		},
		{
			Name:        "add_search_path",
			Description: "Add a directory the host scans for plugins",
			InputSchema: object([]string{"path"}, str("path", "Directory path")),
		},

		// Signals
		{
			Name:        "signal_info",
			Description: "Get recent min/max/avg levels and the latest spectrum of a track, an input or the output",
			InputSchema: object(nil,
				ownerTrack, ownerInput,
				boolean("output", "Report the mixed output instead of a track or input"),
				boolean("post", "For inputs, report levels after the plugin chain"),
			),
		},

		// History
		{
			Name:        "recent_activity",
			Description: "List engine activity, newest first",
			InputSchema: object(nil,
				str("session_id", "Session id (omit for the current session)"),
				integer("track_id", "Filter by track"),
				str("type", "Filter by activity type, e.g. track_looping"),
				limitProp, offsetProp,
			),
		},
		{
			Name:        "log_messages",
			Description: "Read the in-memory engine log, optionally dropping the oldest messages afterwards",
			InputSchema: object(nil, integer("drop", "Number of oldest messages to drop after reading")),
		},
		{
			Name:        "list_loops",
			Description: "List archived loops, newest first",
			InputSchema: object(nil, str("session_id", "Filter by session id"), limitProp, offsetProp),
		},
	}
}

func registerTools(server *sdkmcp.Server, h *Handler) {
	for _, def := range buildToolCatalog() {
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, toolHandler(h, def.Name))
	}
}

func toolHandler(h *Handler, name string) sdkmcp.ToolHandler {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		result, err := h.Handle(ctx, getClientID(ctx), getSessionID(ctx), name, args)
		if err != nil {
			return errorResult(err), nil
		}
		data, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s result: %w", name, err)
		}
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		}, nil
	}
}

// errorResult reports a tool failure to the model rather than as a protocol
// error.
func errorResult(err error) *sdkmcp.CallToolResult {
	payload := any(map[string]string{"code": "INTERNAL", "message": err.Error()})
	if apiErr := MapError(err); apiErr != nil {
		payload = apiErr
	}
	data, _ := json.Marshal(payload)
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}
