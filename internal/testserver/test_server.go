package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/nowloop/internal/domain/activity"
	"github.com/rpggio/nowloop/internal/domain/archive"
	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/driver"
	"github.com/rpggio/nowloop/internal/graph"
	"github.com/rpggio/nowloop/internal/mcp"
	"github.com/rpggio/nowloop/internal/sqlite"
	"github.com/rpggio/nowloop/internal/transport"
)

// BlockSize is the block length the test server's driver processes.
const BlockSize = 4000

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Graph    *graph.Graph
	Driver   *driver.Driver
	Keys     *sqlite.APIKeyRepository
	Token    string
	ClientID string
}

// New starts a fully wired server on an in-memory database. The graph runs at
// 120 BPM in 4/4 with a one second block, so two blocks make a measure.
func New(t *testing.T, token, clientID string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	pluginRepo := sqlite.NewPluginRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	loopRepo := sqlite.NewLoopRepository(db)
	keys := sqlite.NewAPIKeyRepository(db)

	pluginSvc := plugin.NewService(pluginRepo, nil)
	activitySvc := activity.NewService(activityRepo, nil)
	archiveSvc := archive.NewService(loopRepo, nil)

	cfg := graph.DefaultConfig()
	cfg.SampleRate = 4000
	cfg.BlockSize = BlockSize
	cfg.BeatsPerMinute = 120
	g, err := graph.New(cfg, graph.Deps{
		Activity: activitySvc,
		Archive:  archiveSvc,
		Plugins:  pluginSvc,
	})
	require.NoError(t, err)

	drv, err := driver.New(g, g, driver.Config{
		SampleRate: cfg.SampleRate,
		BlockSize:  cfg.BlockSize,
		InputCount: cfg.InputCount,
	}, nil)
	require.NoError(t, err)

	handler := mcp.NewHandler(mcp.Services{
		Engine:   g,
		Plugins:  pluginSvc,
		Activity: activitySvc,
		Loops:    archiveSvc,
	}, mcp.Defaults{FFT: graph.DefaultFFTConfig()}, nil)

	mcpServer := mcp.NewServer(mcp.Config{
		Handler:       handler,
		Resolver:      keys,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	mcpHTTP := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{Stateless: true},
	)

	server := httptest.NewServer(transport.NewServer(handler, transport.AuthMiddleware(keys), mcpHTTP))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = g.Run(ctx)
	}()

	ts := &TestServer{
		Server:   server,
		DB:       db,
		Graph:    g,
		Driver:   drv,
		Keys:     keys,
		Token:    token,
		ClientID: clientID,
	}

	require.NoError(t, ts.AddAPIKey(token, clientID))

	t.Cleanup(func() {
		server.Close()
		cancel()
		<-done
		_ = db.Close()
	})

	return ts
}

// AddAPIKey lets token authenticate as clientID.
func (ts *TestServer) AddAPIKey(token, clientID string) error {
	return ts.Keys.AddKey(context.Background(), token, clientID, "test")
}

// Advance processes n blocks.
func (ts *TestServer) Advance(t *testing.T, n int) {
	t.Helper()
	require.NoError(t, ts.Driver.Step(n))
}
