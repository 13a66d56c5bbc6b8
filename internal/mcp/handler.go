package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/rpggio/actmon/internal/domain/activity"
	"github.com/rpggio/actmon/internal/domain/project"
	"github.com/rpggio/actmon/internal/gitprobe"
	"github.com/rpggio/actmon/internal/monitor"
	"github.com/rpggio/actmon/internal/settings"
)

const defaultActivityLimit = 50

// Monitor defines the monitor operations needed by MCP.
type Monitor interface {
	ListProjects(ctx context.Context, opts monitor.ListOptions) (monitor.ListResult, error)
	GitStatus(ctx context.Context, projectPath string) (*gitprobe.Status, error)
	RecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Record, error)
	WatchedRoots() []string
	Settings() settings.Settings
	AddWatchDir(dir string) (settings.Settings, bool, error)
	RemoveWatchDir(dir string) (settings.Settings, bool, error)
	UpdateFilters(f project.Filter) (settings.Settings, error)
	UpdateSort(mode string, ascending bool) (settings.Settings, error)
}

// Handler implements the MCP tools on top of a Monitor.
type Handler struct {
	monitor Monitor
}

// NewHandler creates a new MCP handler.
func NewHandler(m Monitor) *Handler {
	return &Handler{monitor: m}
}

func (h *Handler) ListProjects(ctx context.Context, req ListProjectsParams) (ListProjectsResponse, error) {
	opts := monitor.ListOptions{Ascending: req.Ascending}
	if strings.TrimSpace(req.Sort) != "" {
		mode, err := project.ParseSortMode(req.Sort)
		if err != nil {
			return ListProjectsResponse{}, mapError(err)
		}
		opts.Sort = &mode
	}
	if req.Filters != nil {
		f := h.monitor.Settings().Filters
		overrideBool(&f.ShowActive, req.Filters.ShowActive)
		overrideBool(&f.ShowIdle, req.Filters.ShowIdle)
		overrideBool(&f.ShowStale, req.Filters.ShowStale)
		overrideBool(&f.GitReposOnly, req.Filters.GitReposOnly)
		overrideBool(&f.HasChangesOnly, req.Filters.HasChangesOnly)
		opts.Filter = &f
	}

	res, err := h.monitor.ListProjects(ctx, opts)
	if err != nil {
		return ListProjectsResponse{}, mapError(err)
	}
	projects := res.Projects
	if projects == nil {
		projects = []project.Project{}
	}
	return ListProjectsResponse{Projects: projects, Summary: res.Summary}, nil
}

func (h *Handler) GetGitStatus(ctx context.Context, req GetGitStatusParams) (GitStatusResponse, error) {
	st, err := h.monitor.GitStatus(ctx, req.Path)
	if err != nil {
		return GitStatusResponse{}, mapError(err)
	}
	return GitStatusResponse{Path: req.Path, IsGitRepo: st != nil, Status: st}, nil
}

func (h *Handler) ListWatchDirs(ctx context.Context, _ EmptyParams) (WatchDirsResponse, error) {
	return WatchDirsResponse{
		WatchDirs: nonNil(h.monitor.Settings().WatchDirs),
		Watching:  nonNil(h.monitor.WatchedRoots()),
	}, nil
}

func (h *Handler) AddWatchDir(ctx context.Context, req WatchDirParams) (WatchDirChangeResponse, error) {
	s, changed, err := h.monitor.AddWatchDir(req.Path)
	if err != nil {
		return WatchDirChangeResponse{}, mapError(err)
	}
	return WatchDirChangeResponse{Changed: changed, WatchDirs: nonNil(s.WatchDirs)}, nil
}

func (h *Handler) RemoveWatchDir(ctx context.Context, req WatchDirParams) (WatchDirChangeResponse, error) {
	s, changed, err := h.monitor.RemoveWatchDir(req.Path)
	if err != nil {
		return WatchDirChangeResponse{}, mapError(err)
	}
	return WatchDirChangeResponse{Changed: changed, WatchDirs: nonNil(s.WatchDirs)}, nil
}

func (h *Handler) GetRecentActivity(ctx context.Context, req GetRecentActivityParams) (RecentActivityResponse, error) {
	if req.Limit < 0 || req.Offset < 0 {
		return RecentActivityResponse{}, mapError(activity.ErrInvalidInput)
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultActivityLimit
	}
	records, err := h.monitor.RecentActivity(ctx, activity.ListOptions{
		ProjectPath: req.ProjectPath,
		Limit:       limit,
		Offset:      req.Offset,
	})
	if err != nil {
		return RecentActivityResponse{}, mapError(err)
	}
	entries := make([]ActivityEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, ActivityEntry{
			ProjectPath: rec.ProjectPath,
			Timestamp:   rec.Timestamp,
			Time:        rec.Time().UTC().Format(time.RFC3339),
		})
	}
	return RecentActivityResponse{Entries: entries}, nil
}

func (h *Handler) GetSettings(ctx context.Context, _ EmptyParams) (SettingsResponse, error) {
	return toSettingsResponse(h.monitor.Settings()), nil
}

func (h *Handler) UpdateFilters(ctx context.Context, req UpdateFiltersParams) (SettingsResponse, error) {
	s, err := h.monitor.UpdateFilters(project.Filter{
		ShowActive:     req.ShowActive,
		ShowIdle:       req.ShowIdle,
		ShowStale:      req.ShowStale,
		GitReposOnly:   req.GitReposOnly,
		HasChangesOnly: req.HasChangesOnly,
	})
	if err != nil {
		return SettingsResponse{}, mapError(err)
	}
	return toSettingsResponse(s), nil
}

func (h *Handler) UpdateSort(ctx context.Context, req UpdateSortParams) (SettingsResponse, error) {
	s, err := h.monitor.UpdateSort(req.Mode, req.Ascending)
	if err != nil {
		return SettingsResponse{}, mapError(err)
	}
	return toSettingsResponse(s), nil
}

func toSettingsResponse(s settings.Settings) SettingsResponse {
	return SettingsResponse{
		WatchDirs:     nonNil(s.WatchDirs),
		Filters:       s.Filters,
		DefaultSort:   string(s.DefaultSort),
		SortAscending: s.SortAscending,
	}
}

func overrideBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
