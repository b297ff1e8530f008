package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/rpggio/nowloop/internal/config"
	"github.com/rpggio/nowloop/internal/domain/activity"
	"github.com/rpggio/nowloop/internal/domain/archive"
	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/driver"
	"github.com/rpggio/nowloop/internal/graph"
	"github.com/rpggio/nowloop/internal/mcp"
	"github.com/rpggio/nowloop/internal/sqlite"
	"github.com/rpggio/nowloop/internal/transport"
)

var (
	argTransport string
	argStart     bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the engine with a simulated audio device and serve MCP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("transport") {
				cfg.Transport.Mode = argTransport
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("config error: %w", err)
				}
			}
			return serve(cfg)
		},
	}
)

func init() {
	serveCmd.Flags().StringVarP(&argTransport, "transport", "t", "", "Transport: stdio or http")
	serveCmd.Flags().BoolVarP(&argStart, "start", "s", false, "Initialize and start the graph on boot")
}

func serve(cfg config.Config) error {
	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("NOWLOOP_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	pluginRepo := sqlite.NewPluginRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	loopRepo := sqlite.NewLoopRepository(db)
	keys := sqlite.NewAPIKeyRepository(db)

	pluginSvc := plugin.NewService(pluginRepo, logger)
	activitySvc := activity.NewService(activityRepo, logger)
	archiveSvc := archive.NewService(loopRepo, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for token, clientID := range cfg.Auth.Tokens {
		if err := keys.AddKey(ctx, token, clientID, "config"); err != nil {
			return err
		}
	}

	graphCfg, err := cfg.GraphConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	g, err := graph.New(graphCfg, graph.Deps{
		Logger:   logger,
		Activity: activitySvc,
		Archive:  archiveSvc,
		Plugins:  pluginSvc,
	})
	if err != nil {
		return fmt.Errorf("failed to create graph: %w", err)
	}
	if argStart {
		if err := g.Initialize(cfg.GraphFFT(), cfg.PreRecording()); err != nil {
			return fmt.Errorf("failed to initialize graph: %w", err)
		}
		if err := g.Start(); err != nil {
			return fmt.Errorf("failed to start graph: %w", err)
		}
	}

	drv, err := driver.New(g, g, driver.Config{
		SampleRate: graphCfg.SampleRate,
		BlockSize:  graphCfg.BlockSize,
		InputCount: graphCfg.InputCount,
	}, logger)
	if err != nil {
		return err
	}

	go func() {
		if err := g.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("event pump stopped", "error", err)
		}
	}()
	go func() {
		if err := drv.Run(ctx); err != nil {
			logger.Error("driver stopped", "error", err)
		}
	}()

	handler := mcp.NewHandler(mcp.Services{
		Engine:   g,
		Plugins:  pluginSvc,
		Activity: activitySvc,
		Loops:    archiveSvc,
	}, mcp.Defaults{
		FFT:                 cfg.GraphFFT(),
		PreRecordingSeconds: cfg.Recording.PreRecordingSeconds,
	}, logger)

	mcpServer := mcp.NewServer(mcp.Config{
		Handler:       handler,
		Resolver:      keys,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		Version:       version,
		Logger:        logger,
	})

	if cfg.Transport.Mode == "stdio" {
		return runStdioMode(ctx, logger, mcpServer)
	}

	auth := transport.StaticClient(mcp.DefaultClient)
	if cfg.Auth.Enabled {
		auth = transport.AuthMiddleware(keys)
	}
	return runHTTPMode(ctx, logger, handler, auth, mcpServer, cfg.Server.Host, cfg.Server.Port)
}

func openDB(cfg config.Config) (*sqlite.DB, error) {
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("failed to prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or ctx is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server error: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(
	ctx context.Context,
	logger *slog.Logger,
	handler transport.Handler,
	auth func(http.Handler) http.Handler,
	mcpServer *sdkmcp.Server,
	host string,
	port int,
) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: transport.NewServer(handler, auth, mcpHandler),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	return shutdown(logger, httpServer)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func shutdown(logger *slog.Logger, server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
