package mcp

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const (
	clientIDKey contextKey = iota
	sessionIDKey
)

// getClientID extracts the authenticated client ID from context.
func getClientID(ctx context.Context) string {
	v, _ := ctx.Value(clientIDKey).(string)
	return v
}

// getSessionID extracts the caller's MCP session ID from context.
func getSessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// ClientResolver resolves a client ID from a bearer token.
type ClientResolver interface {
	ResolveClient(ctx context.Context, token string) (string, error)
}

func unauthorized(message string) *APIError {
	return &APIError{
		Code:         "UNAUTHORIZED",
		Message:      message,
		RecoveryHint: "Send Authorization: Bearer <token> with a token added by `nowloop keys add`",
	}
}

// authMiddleware requires a bearer token on every method except the
// handshake. Stdio sessions never install it.
func authMiddleware(resolver ClientResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method == "initialize" || method == "ping" {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, unauthorized("missing headers")
			}
			token := strings.TrimSpace(strings.TrimPrefix(extra.Header.Get("Authorization"), "Bearer "))
			if token == "" {
				return nil, unauthorized("missing bearer token")
			}
			clientID, err := resolver.ResolveClient(ctx, token)
			if err != nil || clientID == "" {
				return nil, unauthorized("invalid bearer token")
			}
			return next(context.WithValue(ctx, clientIDKey, clientID), method, req)
		}
	}
}

// noAuthMiddleware attributes every call to defaultClient.
func noAuthMiddleware(defaultClient string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			return next(context.WithValue(ctx, clientIDKey, defaultClient), method, req)
		}
	}
}

// sessionMiddleware records who is calling for the activity log. The id comes
// from the Mcp-Session-Id header, then _meta.session_id (stdio clients), then
// the SDK's own session id.
func sessionMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			var sessionID string
			if extra := req.GetExtra(); extra != nil && extra.Header != nil {
				sessionID = extra.Header.Get("Mcp-Session-Id")
			}
			if sessionID == "" {
				sessionID = metaSessionID(req)
			}
			if sessionID == "" {
				sessionID = safeSessionID(req)
			}
			if sessionID != "" {
				ctx = context.WithValue(ctx, sessionIDKey, sessionID)
			}
			return next(ctx, method, req)
		}
	}
}

// metaSessionID reads _meta.session_id. Notifications such as "initialized"
// carry nil or typed-nil params, on which GetMeta panics.
func metaSessionID(req sdkmcp.Request) (id string) {
	params := req.GetParams()
	if params == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	id, _ = params.GetMeta()["session_id"].(string)
	return id
}
