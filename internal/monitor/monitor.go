// Package monitor wires the settings, watchers, aggregator and discovery into
// one running activity monitor.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/actmon/internal/domain/activity"
	"github.com/rpggio/actmon/internal/domain/project"
	"github.com/rpggio/actmon/internal/gitprobe"
	"github.com/rpggio/actmon/internal/settings"
	"github.com/rpggio/actmon/internal/watch"
)

// ErrClosed is returned when starting a monitor that was shut down.
var ErrClosed = errors.New("monitor: shut down")

// Deps are the collaborators of a Monitor.
type Deps struct {
	Settings *settings.Provider
	Activity *activity.Service
	Projects *project.Service
}

// Options configures the watch pipeline.
type Options struct {
	Debounce time.Duration
	Watch    watch.Options
}

// Monitor is the long-running activity monitor.
type Monitor struct {
	settings   *settings.Provider
	activity   *activity.Service
	projects   *project.Service
	aggregator *activity.Aggregator
	supervisor *watch.Supervisor
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	runCtx  context.Context

	listenersMu sync.RWMutex
	listeners   []activity.Notifier
}

// New creates a monitor. No watcher runs until Start, so one-shot commands
// can use the query operations without watching anything.
func New(deps Deps, opts Options, logger *slog.Logger) (*Monitor, error) {
	if deps.Settings == nil || deps.Activity == nil || deps.Projects == nil {
		return nil, errors.New("monitor: settings, activity and projects are required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Monitor{
		settings: deps.Settings,
		activity: deps.Activity,
		projects: deps.Projects,
		logger:   logger,
	}
	m.aggregator = activity.NewAggregator(deps.Activity, m, opts.Debounce, logger.With("component", "aggregator"))
	sup, err := watch.New(m.aggregator, opts.Watch, logger.With("component", "watch"))
	if err != nil {
		return nil, fmt.Errorf("creating watch supervisor: %w", err)
	}
	m.supervisor = sup
	return m, nil
}

// Subscribe registers a notifier that is told every time new activity was
// persisted.
func (m *Monitor) Subscribe(n activity.Notifier) {
	if n == nil {
		return
	}
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = append(m.listeners, n)
}

// ProjectsUpdated implements activity.Notifier by fanning out to subscribers.
func (m *Monitor) ProjectsUpdated(ctx context.Context) {
	m.listenersMu.RLock()
	listeners := make(activity.Notifiers, len(m.listeners))
	copy(listeners, m.listeners)
	m.listenersMu.RUnlock()

	m.logger.Debug("projects updated", "listeners", len(listeners))
	listeners.ProjectsUpdated(ctx)
}

// Start begins watching the configured roots.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.running {
		return errors.New("monitor: already running")
	}

	s := m.settings.Load()
	m.runCtx = ctx
	m.running = true
	if err := m.supervisor.Start(ctx, s.WatchDirs); err != nil {
		m.logger.Warn("some watch directories could not be watched", "error", err)
	}
	return nil
}

// Shutdown stops the watchers and persists pending activity.
func (m *Monitor) Shutdown(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	m.closed = true
	m.supervisor.Stop()
	m.aggregator.Stop()
	if n := m.aggregator.Pending(); n > 0 {
		m.logger.Info("flushing pending activity", "projects", n)
	}
	m.aggregator.Flush(ctx)
}

// Running reports whether watchers are active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// WatchedRoots returns the roots with an active watcher.
func (m *Monitor) WatchedRoots() []string {
	return m.supervisor.Roots()
}

// PendingProjects returns the number of projects awaiting the next flush.
func (m *Monitor) PendingProjects() int {
	return m.aggregator.Pending()
}

// restart re-reads the watch roots and restarts the watchers if running.
func (m *Monitor) restart(dirs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	if err := m.supervisor.Start(m.runCtx, dirs); err != nil {
		m.logger.Warn("some watch directories could not be watched", "error", err)
	}
}

// ListOptions customizes a project listing. Nil fields fall back to the
// saved settings.
type ListOptions struct {
	Sort      *project.SortMode
	Ascending *bool
	Filter    *project.Filter
}

// ListResult is a listing plus the counts before filtering.
type ListResult struct {
	Projects []project.Project `json:"projects"`
	Summary  project.Summary   `json:"summary"`
}

// Discover runs discovery over the configured roots in default order.
func (m *Monitor) Discover(ctx context.Context) ([]project.Project, error) {
	s := m.settings.Load()
	return m.projects.Discover(ctx, s.WatchDirs)
}

// ListProjects discovers, filters and sorts projects.
func (m *Monitor) ListProjects(ctx context.Context, opts ListOptions) (ListResult, error) {
	s := m.settings.Load()
	all, err := m.projects.Discover(ctx, s.WatchDirs)
	if err != nil {
		return ListResult{}, err
	}

	filter := s.Filters
	if opts.Filter != nil {
		filter = *opts.Filter
	}
	mode := s.DefaultSort
	if opts.Sort != nil {
		mode = *opts.Sort
	}
	asc := s.SortAscending
	if opts.Ascending != nil {
		asc = *opts.Ascending
	}

	shown := filter.Apply(all)
	project.SortBy(shown, mode, asc)
	return ListResult{Projects: shown, Summary: project.Summarize(all)}, nil
}

// GitStatus returns detailed git status for a project.
func (m *Monitor) GitStatus(ctx context.Context, projectPath string) (*gitprobe.Status, error) {
	return m.projects.GitStatus(ctx, projectPath)
}

// RecentActivity lists persisted activity newest first.
func (m *Monitor) RecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Record, error) {
	return m.activity.Recent(ctx, opts)
}

// Settings returns the current settings.
func (m *Monitor) Settings() settings.Settings {
	return m.settings.Load()
}

// AddWatchDir adds a root and restarts the watchers when the set changed.
func (m *Monitor) AddWatchDir(dir string) (settings.Settings, bool, error) {
	s, changed, err := m.settings.AddWatchDir(dir)
	if err != nil {
		return s, false, fmt.Errorf("adding watch directory: %w", err)
	}
	if changed {
		m.logger.Info("watch directory added", "dir", dir)
		m.restart(s.WatchDirs)
	}
	return s, changed, nil
}

// RemoveWatchDir removes a root and restarts the watchers when the set changed.
func (m *Monitor) RemoveWatchDir(dir string) (settings.Settings, bool, error) {
	s, changed, err := m.settings.RemoveWatchDir(dir)
	if err != nil {
		return s, false, fmt.Errorf("removing watch directory: %w", err)
	}
	if changed {
		m.logger.Info("watch directory removed", "dir", dir)
		m.restart(s.WatchDirs)
	}
	return s, changed, nil
}

// UpdateFilters saves new list filters.
func (m *Monitor) UpdateFilters(f project.Filter) (settings.Settings, error) {
	return m.settings.UpdateFilters(f)
}

// UpdateSort saves the preferred sort.
func (m *Monitor) UpdateSort(mode string, ascending bool) (settings.Settings, error) {
	return m.settings.UpdateSort(mode, ascending)
}
