package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Config contains server configuration.
type Config struct {
	Monitor Monitor
	Version string
	Logger  *slog.Logger
}

// NewServer creates and configures an MCP server with all tools, resources
// and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "actmon",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
		SubscribeHandler: func(_ context.Context, req *sdkmcp.SubscribeRequest) error {
			logger.Debug("resource subscribed", "uri", req.Params.URI)
			return nil
		},
		UnsubscribeHandler: func(_ context.Context, req *sdkmcp.UnsubscribeRequest) error {
			logger.Debug("resource unsubscribed", "uri", req.Params.URI)
			return nil
		},
	})

	h := NewHandler(cfg.Monitor)

	registerDocResources(server)
	registerProjectResource(server, h)

	server.AddReceivingMiddleware(recoverMiddleware(logger))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, h)

	return server
}
