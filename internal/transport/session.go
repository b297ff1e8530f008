package transport

import (
	"context"
	"net/http"
)

const (
	mcpSessionHeader = "Mcp-Session-Id"

	// GraphSessionHeader carries the engine session id on /rpc responses. A
	// new value means the graph was shut down or reset and old track ids
	// are gone.
	GraphSessionHeader = "Nowloop-Graph-Session"
)

// GraphSessionSource reports the current engine session id, "" when the
// graph is uninitialized.
type GraphSessionSource interface {
	GraphSessionID() string
}

type sessionKey struct{}

// SessionIDFromContext returns the client session ID from context, if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionKey{}).(string)
	return sessionID, ok
}

// SessionMiddleware stores the caller's session in context: the
// Mcp-Session-Id header, or the session_id query parameter for plain
// JSON-RPC clients that cannot set headers.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get(mcpSessionHeader)
		if sessionID == "" {
			sessionID = r.URL.Query().Get("session_id")
		}
		if sessionID == "" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sessionID)))
	})
}

// stampGraphSession sets GraphSessionHeader from src. It must run after the
// request is dispatched, since initialize and shutdown change the id.
func stampGraphSession(w http.ResponseWriter, src GraphSessionSource) {
	if src == nil {
		return
	}
	if id := src.GraphSessionID(); id != "" {
		w.Header().Set(GraphSessionHeader, id)
	}
}
