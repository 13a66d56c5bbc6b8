package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// toolFunc adapts a handler method to the SDK's typed tool handler. The SDK
// fills Content and StructuredContent from the returned value.
func toolFunc[In, Out any](fn func(context.Context, In) (Out, error)) sdkmcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, Out, error) {
		out, err := fn(ctx, in)
		return nil, out, err
	}
}

func registerTools(server *sdkmcp.Server, h *Handler) {
	// Projects
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List projects under the watch directories with status (active, idle, stale), last activity and git hotness. Filters and sort default to the saved settings.",
	}, toolFunc(h.ListProjects))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_git_status",
		Description: "Get branch, staged/unstaged/untracked counts and upstream divergence for one project. is_git_repo is false when the directory is not a git work tree.",
	}, toolFunc(h.GetGitStatus))

	// Watch directories
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_watch_dirs",
		Description: "List the configured watch directories and the ones currently being watched.",
	}, toolFunc(h.ListWatchDirs))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_watch_dir",
		Description: "Add a watch directory. Its immediate subdirectories become projects. Watchers restart when the list changes.",
	}, toolFunc(h.AddWatchDir))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "remove_watch_dir",
		Description: "Remove a watch directory. Matching ignores case and separator style.",
	}, toolFunc(h.RemoveWatchDir))

	// Activity
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "List recorded activity bursts, newest first, optionally for one project.",
	}, toolFunc(h.GetRecentActivity))

	// Settings
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_settings",
		Description: "Get the saved watch directories, filters and sort preference.",
	}, toolFunc(h.GetSettings))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_filters",
		Description: "Replace the saved project list filters.",
	}, toolFunc(h.UpdateFilters))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_sort",
		Description: "Replace the saved sort mode and direction.",
	}, toolFunc(h.UpdateSort))
}
