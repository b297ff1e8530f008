package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler handles JSON-RPC method dispatch.
type Handler interface {
	Handle(ctx context.Context, clientID, sessionID, method string, params json.RawMessage) (any, error)
}

// CodedError is an error carrying a stable application code.
type CodedError interface {
	error
	CodeValue() string
	MessageValue() string
}

// Server wires HTTP handlers.
type Server struct {
	handler Handler
	graph   GraphSessionSource
}

// NewServer creates the HTTP router. authMiddleware guards /rpc; mcpHandler,
// if set, is mounted at /mcp and does its own authentication. A handler that
// is also a GraphSessionSource gets its engine session echoed on /rpc.
func NewServer(handler Handler, authMiddleware func(http.Handler) http.Handler, mcpHandler http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	srv := &Server{handler: handler}
	if src, ok := handler.(GraphSessionSource); ok {
		srv.graph = src
	}

	r.Get("/health", srv.handleHealth)
	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Use(SessionMiddleware)
		r.Post("/rpc", srv.handleRPC)
	})
	if mcpHandler != nil {
		r.Handle("/mcp", mcpHandler)
		r.Handle("/mcp/*", mcpHandler)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		WriteError(w, nil, ErrInvalidReq, "invalid request", nil)
		return
	}

	clientID, ok := ClientFromContext(r.Context())
	if !ok || clientID == "" {
		http.Error(w, "missing client", http.StatusUnauthorized)
		return
	}

	sessionID, _ := SessionIDFromContext(r.Context())

	result, err := s.handler.Handle(r.Context(), clientID, sessionID, req.Method, req.Params)
	stampGraphSession(w, s.graph)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var coded CodedError
		if errors.As(err, &coded) {
			WriteError(w, req.ID, rpcCode(coded.CodeValue()), coded.MessageValue(), coded)
			return
		}
		WriteError(w, req.ID, ErrInternal, err.Error(), nil)
		return
	}

	WriteResult(w, req.ID, result)
}

func rpcCode(code string) int {
	switch code {
	case "METHOD_NOT_FOUND":
		return ErrMethodNotFound
	case "INVALID_PARAMS":
		return ErrInvalidParams
	default:
		return ErrApplication
	}
}
