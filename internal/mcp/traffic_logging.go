package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxLoggedPayload caps params and results in debug traffic logs. Tool
// results such as recent_activity can run to many kilobytes.
const maxLoggedPayload = 2048

// trafficLoggingMiddleware logs each MCP message at debug level with both
// session ids: the MCP transport session and the engine session the call
// ran against. graphSession may be nil.
func trafficLoggingMiddleware(logger *slog.Logger, direction string, graphSession func() string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
				return next(ctx, method, req)
			}

			l := logger.With(
				"direction", direction,
				"method", method,
				"mcp_session_id", safeSessionID(req),
				"client_id", getClientID(ctx),
			)
			l.Debug("mcp traffic", "stage", "request", "graph_session_id", currentGraphSession(graphSession), "params", formatPayload(safeParams(req)))

			result, err := next(ctx, method, req)
			if strings.HasPrefix(method, "notifications/") {
				return result, err
			}
			// initialize_graph and shutdown_graph change the engine session
			// mid-call, so it is read again.
			attrs := []any{"stage", "response", "graph_session_id", currentGraphSession(graphSession), "result", formatPayload(result)}
			if err != nil {
				attrs = append(attrs, "error", err)
			}
			l.Debug("mcp traffic", attrs...)
			return result, err
		}
	}
}

func currentGraphSession(graphSession func() string) string {
	if graphSession == nil {
		return ""
	}
	return graphSession()
}

// The SDK's request accessors panic on typed nil values, which notifications
// can carry.
func safeSessionID(req sdkmcp.Request) (id string) {
	if req == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	if session := req.GetSession(); session != nil {
		return session.ID()
	}
	return ""
}

func safeParams(req sdkmcp.Request) (params any) {
	if req == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			params = nil
		}
	}()
	return req.GetParams()
}

func formatPayload(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%T", payload)
	}
	if len(data) > maxLoggedPayload {
		return fmt.Sprintf("%s... (%d bytes)", data[:maxLoggedPayload], len(data))
	}
	return string(data)
}
