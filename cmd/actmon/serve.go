package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/actmon/internal/domain/activity"
	"github.com/rpggio/actmon/internal/mcp"
	"github.com/rpggio/actmon/internal/transport"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(opts *rootOptions) *cobra.Command {
	var transport string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Watch the configured directories and serve MCP",
		Long: `Start the activity monitor and expose it as an MCP server.

In stdio mode the server speaks JSON-RPC on stdin/stdout and logs to stderr.
In http mode it listens on server.host:server.port with /mcp and /health.
Pending activity is flushed to the log on shutdown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Logs go to stderr so stdout stays clean for JSON-RPC in stdio mode.
			a, err := newApp(opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			if transport != "" {
				a.cfg.Transport = transport
			}
			if port != 0 {
				a.cfg.Server.Port = port
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "Transport mode: stdio or http (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (default from config)")

	return cmd
}

func runServe(ctx context.Context, a *app) error {
	logger := a.logger

	if a.cfg.Retention.Days > 0 {
		compactOnStart(ctx, a)
	}

	server := mcp.NewServer(mcp.Config{
		Monitor: a.monitor,
		Version: Version,
		Logger:  logger.With("component", "mcp"),
	})
	a.monitor.Subscribe(mcp.NewResourceNotifier(server, logger))

	if err := a.monitor.Start(ctx); err != nil {
		return fmt.Errorf("starting monitor: %w", err)
	}
	logger.Info("monitor started", "watching", a.monitor.WatchedRoots(), "store", a.cfg.Store)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.monitor.Shutdown(shutdownCtx)
		logger.Info("monitor stopped")
	}()

	if a.cfg.UsesHTTP() {
		return runHTTPMode(ctx, logger, server, a)
	}
	return runStdioMode(ctx, logger, server)
}

func runStdioMode(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	// Run blocks until stdin closes or the context is canceled.
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server error: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server, a *app) error {
	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	router := transport.NewRouter(transport.RouterConfig{
		MCP:       mcp.NewHTTPHandler(server),
		Health:    healthFunc(a),
		AuthToken: a.cfg.Server.AuthToken,
		Logger:    logger.With("component", "http"),
	})
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "auth", a.cfg.Server.AuthToken != "")
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	return nil
}

func healthFunc(a *app) transport.HealthFunc {
	return func() map[string]any {
		return map[string]any{
			"running":  a.monitor.Running(),
			"watching": a.monitor.WatchedRoots(),
			"pending":  a.monitor.PendingProjects(),
			"store":    a.cfg.Store,
			"version":  Version,
		}
	}
}

// compactOnStart archives activity older than the retention window. Failure
// is logged and does not stop the daemon.
func compactOnStart(ctx context.Context, a *app) {
	before := time.Now().AddDate(0, 0, -a.cfg.Retention.Days)
	res, err := a.activity.Compact(ctx, before, a.cfg.ArchiveDir())
	switch {
	case errors.Is(err, activity.ErrCompactionUnsupported):
		a.logger.Debug("activity store does not support compaction", "store", a.cfg.Store)
	case err != nil:
		a.logger.Warn("startup compaction failed", "error", err)
	case res.Archived > 0:
		a.logger.Info("startup compaction finished", "archived", res.Archived, "archive", res.ArchivePath)
	}
}
