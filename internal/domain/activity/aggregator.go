package activity

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rpggio/actmon/internal/pathutil"
)

// DefaultDebounce is the quiet period after the last event before pending
// activity is written.
const DefaultDebounce = 3000 * time.Millisecond

// Appender persists a burst of activity records.
type Appender interface {
	Append(ctx context.Context, records []Record) error
}

type stopper interface {
	Stop() bool
}

// Aggregator coalesces filesystem activity into bursts. Every MarkActive call
// cancels and re-arms one shared timer; when the timer fires, each distinct
// project seen since the last flush gets exactly one record, all stamped with
// the flush time.
type Aggregator struct {
	appender Appender
	notifier Notifier
	delay    time.Duration
	logger   *slog.Logger

	now       func() time.Time
	afterFunc func(time.Duration, func()) stopper

	mu      sync.Mutex
	hot     map[string]struct{}
	timer   stopper
	gen     uint64
	stopped bool

	flushMu sync.Mutex
}

// NewAggregator creates an aggregator. A zero delay uses DefaultDebounce.
func NewAggregator(appender Appender, notifier Notifier, delay time.Duration, logger *slog.Logger) *Aggregator {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Aggregator{
		appender: appender,
		notifier: notifier,
		delay:    delay,
		logger:   logger,
		now:      time.Now,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
		hot: make(map[string]struct{}),
	}
}

// MarkActive records activity for a project and restarts the debounce timer.
func (a *Aggregator) MarkActive(projectPath string) {
	path := pathutil.Canonical(projectPath)
	if path == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}

	if _, seen := a.hot[path]; !seen {
		a.logger.Debug("detected activity in project", "project", path)
	}
	a.hot[path] = struct{}{}

	if a.timer != nil {
		a.timer.Stop()
	}
	a.gen++
	gen := a.gen
	a.timer = a.afterFunc(a.delay, func() { a.fire(gen) })
}

// fire runs on timer expiry. A timer that was superseded by a later event
// after it had already started firing is ignored.
func (a *Aggregator) fire(gen uint64) {
	a.mu.Lock()
	if gen != a.gen || a.stopped {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	a.mu.Unlock()

	a.Flush(context.Background())
}

// Flush writes pending activity immediately. It is a no-op when nothing is pending.
func (a *Aggregator) Flush(ctx context.Context) {
	a.flushMu.Lock()
	defer a.flushMu.Unlock()

	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if len(a.hot) == 0 {
		a.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(a.hot))
	for p := range a.hot {
		paths = append(paths, p)
	}
	a.hot = make(map[string]struct{})
	a.mu.Unlock()

	sort.Strings(paths)
	stamp := a.now()
	records := make([]Record, 0, len(paths))
	for _, p := range paths {
		records = append(records, NewRecord(p, stamp))
	}

	a.logger.Info("activity burst detected", "projects", len(records))
	if err := a.appender.Append(ctx, records); err != nil {
		// Already logged by the appender; the burst is dropped.
		return
	}
	if a.notifier != nil {
		a.notifier.ProjectsUpdated(ctx)
	}
}

// Pending returns the number of projects waiting for the next flush.
func (a *Aggregator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.hot)
}

// Stop cancels the timer and rejects further activity. Pending activity is
// kept so a final Flush can still persist it.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
