package mcp

import (
	"github.com/rpggio/actmon/internal/domain/project"
	"github.com/rpggio/actmon/internal/gitprobe"
)

type FilterParams struct {
	ShowActive     *bool `json:"show_active,omitempty" jsonschema:"include active projects (default from settings)"`
	ShowIdle       *bool `json:"show_idle,omitempty" jsonschema:"include idle projects"`
	ShowStale      *bool `json:"show_stale,omitempty" jsonschema:"include stale projects"`
	GitReposOnly   *bool `json:"git_repos_only,omitempty" jsonschema:"only projects that are git work trees"`
	HasChangesOnly *bool `json:"has_changes_only,omitempty" jsonschema:"only git projects with uncommitted changes"`
}

type ListProjectsParams struct {
	Sort      string        `json:"sort,omitempty" jsonschema:"status, name, activity, git-hot or git-changes (default from settings)"`
	Ascending *bool         `json:"ascending,omitempty" jsonschema:"sort direction (default from settings)"`
	Filters   *FilterParams `json:"filters,omitempty" jsonschema:"overrides for the saved filters"`
}

type ListProjectsResponse struct {
	Projects []project.Project `json:"projects"`
	Summary  project.Summary   `json:"summary"`
}

type GetGitStatusParams struct {
	Path string `json:"path" jsonschema:"project directory, as returned by list_projects"`
}

type GitStatusResponse struct {
	Path      string           `json:"path"`
	IsGitRepo bool             `json:"is_git_repo"`
	Status    *gitprobe.Status `json:"status,omitempty"`
}

type EmptyParams struct{}

type WatchDirsResponse struct {
	WatchDirs []string `json:"watch_dirs"`
	Watching  []string `json:"watching"`
}

type WatchDirParams struct {
	Path string `json:"path" jsonschema:"directory whose immediate subdirectories are projects"`
}

type WatchDirChangeResponse struct {
	Changed   bool     `json:"changed"`
	WatchDirs []string `json:"watch_dirs"`
}

type GetRecentActivityParams struct {
	ProjectPath string `json:"project_path,omitempty" jsonschema:"only activity for this project"`
	Limit       int    `json:"limit,omitempty" jsonschema:"maximum number of entries (default 50)"`
	Offset      int    `json:"offset,omitempty" jsonschema:"entries to skip"`
}

type ActivityEntry struct {
	ProjectPath string `json:"project_path"`
	Timestamp   int64  `json:"timestamp"`
	Time        string `json:"time"`
}

type RecentActivityResponse struct {
	Entries []ActivityEntry `json:"entries"`
}

type SettingsResponse struct {
	WatchDirs     []string       `json:"watch_dirs"`
	Filters       project.Filter `json:"filters"`
	DefaultSort   string         `json:"default_sort"`
	SortAscending bool           `json:"sort_ascending"`
}

type UpdateFiltersParams struct {
	ShowActive     bool `json:"show_active"`
	ShowIdle       bool `json:"show_idle"`
	ShowStale      bool `json:"show_stale"`
	GitReposOnly   bool `json:"git_repos_only"`
	HasChangesOnly bool `json:"has_changes_only"`
}

type UpdateSortParams struct {
	Mode      string `json:"mode" jsonschema:"status, name, activity, git-hot or git-changes"`
	Ascending bool   `json:"ascending"`
}
