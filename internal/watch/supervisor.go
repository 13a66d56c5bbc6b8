// Package watch keeps one recursive filesystem watcher per watch root and
// reports every change to the project that owns it.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rpggio/actmon/internal/pathutil"
)

// DefaultDepth is how many directory levels below a root are watched.
const DefaultDepth = 5

// Sink receives the owning project of every relevant change.
type Sink interface {
	MarkActive(projectPath string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(projectPath string)

// MarkActive calls f.
func (f SinkFunc) MarkActive(projectPath string) { f(projectPath) }

// Options configures a Supervisor.
type Options struct {
	Depth  int
	Ignore []string
}

// Supervisor owns the set of root watchers. Start may be called repeatedly;
// each call replaces the previous watchers.
type Supervisor struct {
	sink    Sink
	depth   int
	ignorer *Ignorer
	logger  *slog.Logger

	mu       sync.Mutex
	watchers []*rootWatcher
	resolver *pathutil.Resolver
}

// New creates a supervisor. A zero depth uses DefaultDepth.
func New(sink Sink, opts Options, logger *slog.Logger) (*Supervisor, error) {
	if sink == nil {
		return nil, errors.New("watch: nil sink")
	}
	ignorer, err := NewIgnorer(opts.Ignore)
	if err != nil {
		return nil, err
	}
	depth := opts.Depth
	if depth <= 0 {
		depth = DefaultDepth
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Supervisor{
		sink:     sink,
		depth:    depth,
		ignorer:  ignorer,
		logger:   logger,
		resolver: pathutil.NewResolver(nil),
	}, nil
}

// Start tears down any running watchers, waits for them to exit, and starts
// one watcher per existing root. Missing roots are logged and skipped. The
// returned error joins per-root setup failures; the other roots still run.
func (s *Supervisor) Start(ctx context.Context, roots []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	abs := make([]string, 0, len(roots))
	for _, root := range roots {
		if strings.TrimSpace(root) == "" {
			continue
		}
		resolved, err := pathutil.Absolute(root)
		if err != nil {
			s.logger.Warn("cannot resolve watch directory", "dir", root, "error", err)
			continue
		}
		abs = append(abs, resolved)
	}
	s.resolver = pathutil.NewResolver(abs)

	var errs []error
	for _, root := range s.resolver.Roots() {
		host := pathutil.Host(root)
		info, err := os.Stat(host)
		if err != nil || !info.IsDir() {
			s.logger.Warn("watch directory does not exist", "dir", root)
			continue
		}

		rw, err := s.startRoot(ctx, root, host)
		if err != nil {
			s.logger.Error("failed to watch directory", "dir", root, "error", err)
			errs = append(errs, fmt.Errorf("watch %s: %w", root, err))
			continue
		}
		s.watchers = append(s.watchers, rw)
		s.logger.Info("watching for changes", "dir", root, "dirs", len(rw.fsw.WatchList()))
	}

	s.logger.Info("started watchers", "configured", len(roots), "active", len(s.watchers))
	return errors.Join(errs...)
}

// Stop closes every watcher and waits for their goroutines to exit.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Roots returns the roots with a running watcher.
func (s *Supervisor) Roots() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.watchers))
	for _, rw := range s.watchers {
		out = append(out, rw.root)
	}
	return out
}

// WatchedDirs returns the number of directories currently watched.
func (s *Supervisor) WatchedDirs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, rw := range s.watchers {
		n += len(rw.fsw.WatchList())
	}
	return n
}

func (s *Supervisor) stopLocked() {
	for _, rw := range s.watchers {
		rw.stop()
	}
	s.watchers = nil
}

func (s *Supervisor) startRoot(ctx context.Context, root, host string) (*rootWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	rw := &rootWatcher{
		root:     root,
		host:     host,
		fsw:      fsw,
		depth:    s.depth,
		ignorer:  s.ignorer,
		resolver: s.resolver,
		sink:     s.sink,
		logger:   s.logger.With("root", root),
		done:     make(chan struct{}),
	}
	if err := rw.addRecursive(host); err != nil {
		fsw.Close()
		return nil, err
	}
	rw.wg.Add(1)
	go rw.run(ctx)
	return rw, nil
}

type rootWatcher struct {
	root     string
	host     string
	fsw      *fsnotify.Watcher
	depth    int
	ignorer  *Ignorer
	resolver *pathutil.Resolver
	sink     Sink
	logger   *slog.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func (rw *rootWatcher) stop() {
	rw.stopOnce.Do(func() {
		close(rw.done)
		rw.fsw.Close()
	})
	rw.wg.Wait()
}

func (rw *rootWatcher) run(ctx context.Context) {
	defer rw.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-rw.done:
			return
		case event, ok := <-rw.fsw.Events:
			if !ok {
				return
			}
			rw.handle(event)
		case err, ok := <-rw.fsw.Errors:
			if !ok {
				return
			}
			rw.logger.Error("watcher error", "error", err)
		}
	}
}

func (rw *rootWatcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	rel, ok := rw.relative(event.Name)
	if !ok || rw.ignorer.Match(rel) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := rw.addRecursive(event.Name); err != nil {
				rw.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
			}
		}
	}

	project, ok := rw.resolver.OwningProject(event.Name)
	if !ok {
		return
	}
	rw.logger.Debug("detected activity", "project", project, "op", event.Op.String(), "path", event.Name)
	rw.sink.MarkActive(project)
}

// relative returns the slash-separated path of name below the root.
func (rw *rootWatcher) relative(name string) (string, bool) {
	rel, err := filepath.Rel(rw.host, name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

func segmentCount(rel string) int {
	if rel == "." || rel == "" {
		return 0
	}
	return strings.Count(rel, "/") + 1
}

// addRecursive watches dir and its subdirectories down to the depth limit,
// skipping ignored directories. Unreadable subtrees are skipped.
func (rw *rootWatcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, ok := rw.relative(p)
		if !ok {
			return filepath.SkipDir
		}
		if rw.ignorer.Match(rel) || segmentCount(rel) > rw.depth {
			return filepath.SkipDir
		}
		if err := rw.fsw.Add(p); err != nil {
			if p == dir {
				return err
			}
			rw.logger.Debug("failed to watch directory", "dir", p, "error", err)
		}
		return nil
	})
}
