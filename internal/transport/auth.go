package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

type clientKey struct{}

// ClientResolver resolves a client ID from a bearer token.
type ClientResolver interface {
	ResolveClient(ctx context.Context, token string) (string, error)
}

// ClientFromContext returns the client ID from context, if present.
func ClientFromContext(ctx context.Context) (string, bool) {
	clientID, ok := ctx.Value(clientKey{}).(string)
	return clientID, ok
}

// WithClient stores a client ID in ctx.
func WithClient(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientKey{}, clientID)
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(resolver ClientResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			clientID, err := resolver.ResolveClient(r.Context(), token)
			if err != nil || clientID == "" {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), clientID)))
		})
	}
}

// StaticClient tags every request with clientID. It stands in for
// AuthMiddleware when auth is disabled.
func StaticClient(clientID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), clientID)))
		})
	}
}
