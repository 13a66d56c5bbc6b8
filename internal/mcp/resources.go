package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ProjectsURI is the subscribable resource holding the current project list.
const ProjectsURI = "actmon://projects"

func registerProjectResource(server *sdkmcp.Server, h *Handler) {
	server.AddResource(&sdkmcp.Resource{
		URI:         ProjectsURI,
		Name:        "projects",
		Title:       "Projects",
		Description: "Current project list using the saved filters and sort. Updated after every activity burst.",
		MIMEType:    "application/json",
	}, func(ctx context.Context, _ *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
		resp, err := h.ListProjects(ctx, ListProjectsParams{})
		if err != nil {
			return nil, fmt.Errorf("listing projects: %w", err)
		}
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding projects: %w", err)
		}
		return &sdkmcp.ReadResourceResult{
			Contents: []*sdkmcp.ResourceContents{{
				URI:      ProjectsURI,
				MIMEType: "application/json",
				Text:     string(data),
			}},
		}, nil
	})
}

// ResourceNotifier tells subscribed clients that the project list changed.
// It implements activity.Notifier.
type ResourceNotifier struct {
	server *sdkmcp.Server
	logger *slog.Logger
}

// NewResourceNotifier creates a notifier for server.
func NewResourceNotifier(server *sdkmcp.Server, logger *slog.Logger) *ResourceNotifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ResourceNotifier{server: server, logger: logger}
}

// ProjectsUpdated sends notifications/resources/updated for ProjectsURI.
func (n *ResourceNotifier) ProjectsUpdated(ctx context.Context) {
	err := n.server.ResourceUpdated(ctx, &sdkmcp.ResourceUpdatedNotificationParams{URI: ProjectsURI})
	if err != nil {
		n.logger.Warn("failed to send projects update", "error", err)
	}
}
