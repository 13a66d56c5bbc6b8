package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `actmon watches directories of projects and tells you which ones are being worked on.

Model:
- Watch directory: a folder whose immediate, non-hidden subdirectories are projects.
- Activity: file changes inside a project are coalesced into bursts (one record per project per burst).
- Status: active (activity within 7 days), idle (within 30 days), stale (older or never).
- Hotness: 3 x commits in the last 7 days + commits in the last 30 days.

Typical use:
1) list_projects to see everything, or with filters/sort to narrow it down.
2) get_git_status for branch, uncommitted changes and ahead/behind of one project.
3) add_watch_dir / remove_watch_dir to change what is watched.
4) Subscribe to actmon://projects to be told when new activity was recorded.

Docs: actmon://docs/usage
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "actmon://docs/usage",
		Name:        "docs_usage",
		Title:       "actmon usage",
		Description: "Statuses, sort modes, filters and how activity is recorded.",
		Content: `# actmon

## Projects

Every immediate subdirectory of a watch directory is a project, except names
starting with "." and plain files. Paths are reported with forward slashes.

## Status

| status | last activity |
|--------|---------------|
| active | 7 days or less |
| idle   | 30 days or less |
| stale  | older, or never recorded |

The default order is stale, idle, active, then by name.

## Sort modes

- status: stale first, then idle, then active; ties by name
- name: alphabetical
- activity: most recent first; never-active projects last
- git-hot: highest hotness first
- git-changes: most uncommitted changes first

Descending reverses any mode.

## Filters

show_active, show_idle, show_stale hide whole tiers. git_repos_only keeps git
work trees. has_changes_only keeps git work trees with staged, unstaged or
untracked changes.

## Activity

File creates, writes, removes and renames below a project are recorded. Changes
directly inside a watch directory are not attributed to any project. Events
are coalesced: after 3 seconds without further changes, one record per touched
project is written, all with the same timestamp.

Ignored: dot-directories and files, node_modules, dist, build, out, vendor,
*.log, package-lock.json, yarn.lock. Directories more than 5 levels below a
watch directory are not watched.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
