package mcp

import (
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultClient is the client id used when auth is off.
const DefaultClient = "local"

// Config contains server configuration.
type Config struct {
	Handler       *Handler
	Resolver      ClientResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "nowloop",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is always local and unauthenticated.
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware(DefaultClient))
	}
	var graphSession func() string
	if cfg.Handler != nil {
		graphSession = cfg.Handler.GraphSessionID
	}
	server.AddReceivingMiddleware(sessionMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound", graphSession))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound", graphSession))

	registerTools(server, cfg.Handler)

	return server
}
