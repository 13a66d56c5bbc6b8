package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/actmon/internal/domain/activity"
	"github.com/rpggio/actmon/internal/domain/project"
	"github.com/rpggio/actmon/internal/gitprobe"
	"github.com/rpggio/actmon/internal/monitor"
	"github.com/rpggio/actmon/internal/settings"
	"github.com/stretchr/testify/require"
)

type monitorStub struct {
	listFn    func(context.Context, monitor.ListOptions) (monitor.ListResult, error)
	gitFn     func(context.Context, string) (*gitprobe.Status, error)
	recentFn  func(context.Context, activity.ListOptions) ([]activity.Record, error)
	roots     []string
	settings  settings.Settings
	addFn     func(string) (settings.Settings, bool, error)
	removeFn  func(string) (settings.Settings, bool, error)
	filtersFn func(project.Filter) (settings.Settings, error)
	sortFn    func(string, bool) (settings.Settings, error)
}

func (m *monitorStub) ListProjects(ctx context.Context, opts monitor.ListOptions) (monitor.ListResult, error) {
	return m.listFn(ctx, opts)
}
func (m *monitorStub) GitStatus(ctx context.Context, path string) (*gitprobe.Status, error) {
	return m.gitFn(ctx, path)
}
func (m *monitorStub) RecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Record, error) {
	return m.recentFn(ctx, opts)
}
func (m *monitorStub) WatchedRoots() []string { return m.roots }
func (m *monitorStub) Settings() settings.Settings { return m.settings }
func (m *monitorStub) AddWatchDir(dir string) (settings.Settings, bool, error) {
	return m.addFn(dir)
}
func (m *monitorStub) RemoveWatchDir(dir string) (settings.Settings, bool, error) {
	return m.removeFn(dir)
}
func (m *monitorStub) UpdateFilters(f project.Filter) (settings.Settings, error) {
	return m.filtersFn(f)
}
func (m *monitorStub) UpdateSort(mode string, asc bool) (settings.Settings, error) {
	return m.sortFn(mode, asc)
}

func boolPtr(b bool) *bool { return &b }

func TestHandler_ListProjects(t *testing.T) {
	ctx := context.Background()
	var got monitor.ListOptions
	stub := &monitorStub{
		settings: settings.Defaults(),
		listFn: func(_ context.Context, opts monitor.ListOptions) (monitor.ListResult, error) {
			got = opts
			return monitor.ListResult{Summary: project.Summary{Total: 0}}, nil
		},
	}
	h := NewHandler(stub)

	resp, err := h.ListProjects(ctx, ListProjectsParams{})
	require.NoError(t, err)
	require.NotNil(t, resp.Projects)
	require.Empty(t, resp.Projects)
	require.Nil(t, got.Sort)
	require.Nil(t, got.Filter)

	_, err = h.ListProjects(ctx, ListProjectsParams{
		Sort:      "git-hot",
		Ascending: boolPtr(false),
		Filters:   &FilterParams{ShowStale: boolPtr(false), GitReposOnly: boolPtr(true)},
	})
	require.NoError(t, err)
	require.NotNil(t, got.Sort)
	require.Equal(t, project.SortGitHot, *got.Sort)
	require.False(t, *got.Ascending)
	require.Equal(t, project.Filter{
		ShowActive:   true,
		ShowIdle:     true,
		ShowStale:    false,
		GitReposOnly: true,
	}, *got.Filter)

	_, err = h.ListProjects(ctx, ListProjectsParams{Sort: "size"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_INPUT", apiErr.Code)
}

func TestHandler_GetGitStatus(t *testing.T) {
	ctx := context.Background()
	stub := &monitorStub{
		gitFn: func(_ context.Context, path string) (*gitprobe.Status, error) {
			switch path {
			case "/work/repo":
				return &gitprobe.Status{IsRepository: true, Branch: "main", Unstaged: 2, Ahead: 1}, nil
			case "/work/plain":
				return nil, nil
			default:
				return nil, project.ErrProjectNotFound
			}
		},
	}
	h := NewHandler(stub)

	resp, err := h.GetGitStatus(ctx, GetGitStatusParams{Path: "/work/repo"})
	require.NoError(t, err)
	require.True(t, resp.IsGitRepo)
	require.Equal(t, "main", resp.Status.Branch)
	require.Equal(t, 2, resp.Status.Changes())

	resp, err = h.GetGitStatus(ctx, GetGitStatusParams{Path: "/work/plain"})
	require.NoError(t, err)
	require.False(t, resp.IsGitRepo)
	require.Nil(t, resp.Status)

	_, err = h.GetGitStatus(ctx, GetGitStatusParams{Path: "/missing"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "PROJECT_NOT_FOUND", apiErr.Code)
}

func TestHandler_WatchDirs(t *testing.T) {
	ctx := context.Background()
	current := settings.Defaults()
	stub := &monitorStub{
		roots: nil,
		addFn: func(dir string) (settings.Settings, bool, error) {
			current.WatchDirs = append(current.WatchDirs, dir)
			return current, true, nil
		},
		removeFn: func(dir string) (settings.Settings, bool, error) {
			return current, false, nil
		},
	}
	stub.settings = current
	h := NewHandler(stub)

	list, err := h.ListWatchDirs(ctx, EmptyParams{})
	require.NoError(t, err)
	require.NotNil(t, list.WatchDirs)
	require.NotNil(t, list.Watching)

	added, err := h.AddWatchDir(ctx, WatchDirParams{Path: "/work"})
	require.NoError(t, err)
	require.True(t, added.Changed)
	require.Equal(t, []string{"/work"}, added.WatchDirs)

	removed, err := h.RemoveWatchDir(ctx, WatchDirParams{Path: "/other"})
	require.NoError(t, err)
	require.False(t, removed.Changed)

	stub.addFn = func(string) (settings.Settings, bool, error) {
		return settings.Settings{}, false, settings.ErrInvalidInput
	}
	_, err = h.AddWatchDir(ctx, WatchDirParams{Path: " "})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_INPUT", apiErr.Code)
}

func TestHandler_GetRecentActivity(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	var got activity.ListOptions
	stub := &monitorStub{
		recentFn: func(_ context.Context, opts activity.ListOptions) ([]activity.Record, error) {
			got = opts
			return []activity.Record{{ProjectPath: "/work/a", Timestamp: ts}}, nil
		},
	}
	h := NewHandler(stub)

	resp, err := h.GetRecentActivity(ctx, GetRecentActivityParams{ProjectPath: "/work/a"})
	require.NoError(t, err)
	require.Equal(t, activity.ListOptions{ProjectPath: "/work/a", Limit: defaultActivityLimit}, got)
	require.Len(t, resp.Entries, 1)
	require.Equal(t, "2026-03-01T12:00:00Z", resp.Entries[0].Time)
	require.Equal(t, ts, resp.Entries[0].Timestamp)

	_, err = h.GetRecentActivity(ctx, GetRecentActivityParams{Limit: -1})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_INPUT", apiErr.Code)
}

func TestHandler_Settings(t *testing.T) {
	ctx := context.Background()
	stub := &monitorStub{
		settings: settings.Defaults(),
		filtersFn: func(f project.Filter) (settings.Settings, error) {
			s := settings.Defaults()
			s.Filters = f
			return s, nil
		},
		sortFn: func(mode string, asc bool) (settings.Settings, error) {
			parsed, err := project.ParseSortMode(mode)
			if err != nil {
				return settings.Settings{}, err
			}
			s := settings.Defaults()
			s.DefaultSort = parsed
			s.SortAscending = asc
			return s, nil
		},
	}
	h := NewHandler(stub)

	got, err := h.GetSettings(ctx, EmptyParams{})
	require.NoError(t, err)
	require.Equal(t, "status", got.DefaultSort)
	require.True(t, got.SortAscending)
	require.NotNil(t, got.WatchDirs)

	got, err = h.UpdateFilters(ctx, UpdateFiltersParams{ShowActive: true, HasChangesOnly: true})
	require.NoError(t, err)
	require.Equal(t, project.Filter{ShowActive: true, HasChangesOnly: true}, got.Filters)

	got, err = h.UpdateSort(ctx, UpdateSortParams{Mode: "activity", Ascending: false})
	require.NoError(t, err)
	require.Equal(t, "activity", got.DefaultSort)
	require.False(t, got.SortAscending)

	_, err = h.UpdateSort(ctx, UpdateSortParams{Mode: "bogus"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_INPUT", apiErr.Code)
}

func TestHandler_ErrorMapping(t *testing.T) {
	require.Nil(t, MapError(nil))
	require.Nil(t, MapError(errors.New("boom")))

	err := MapError(project.ErrProjectNotFound)
	require.Equal(t, "PROJECT_NOT_FOUND", err.Code)
	require.Contains(t, err.Error(), "list_projects")

	err = MapError(activity.ErrInvalidInput)
	require.Equal(t, "INVALID_INPUT", err.Code)

	unmapped := errors.New("disk on fire")
	require.Same(t, unmapped, mapError(unmapped))
}
