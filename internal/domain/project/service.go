package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rpggio/actmon/internal/gitprobe"
	"github.com/rpggio/actmon/internal/pathutil"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of directories probed at once.
const DefaultConcurrency = 4

// Options tunes discovery.
type Options struct {
	Thresholds  Thresholds
	Concurrency int
}

// Service enumerates projects under watch roots and annotates them with
// activity and git metadata.
type Service struct {
	activity ActivitySource
	git      GitProbe
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new project service. Zero options use the defaults.
func NewService(activity ActivitySource, git GitProbe, opts Options, logger *slog.Logger) *Service {
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{activity: activity, git: git, opts: opts, logger: logger, now: time.Now}
}

type candidate struct {
	path string
	name string
}

// Discover lists every non-hidden immediate subdirectory of each root,
// classified and in default order. Missing or unreadable roots are logged and
// skipped; the only error is context cancellation.
func (s *Service) Discover(ctx context.Context, roots []string) ([]Project, error) {
	latest := s.activity.LatestActivity(ctx)
	now := s.now()

	var candidates []candidate
	for _, root := range roots {
		candidates = append(candidates, s.enumerate(root)...)
	}

	projects := make([]Project, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			proj := Project{Path: c.path, Name: c.name}
			if ts, ok := latest[c.path]; ok {
				proj.LastActivity = &ts
			}
			proj.Status = Classify(proj.LastActivity, now, s.opts.Thresholds)

			st := s.git.ProbeForDiscovery(gctx, pathutil.Host(c.path))
			proj.Hotness = st.Hotness
			proj.IsRepository = st.IsRepository
			proj.Changes = st.Changes()

			projects[i] = proj
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("discovering projects: %w", err)
	}

	SortDefault(projects)
	s.logger.Debug("discovered projects", "roots", len(roots), "projects", len(projects))
	return projects, nil
}

func (s *Service) enumerate(root string) []candidate {
	if strings.TrimSpace(root) == "" {
		return nil
	}
	canon := pathutil.Canonical(root)
	host := pathutil.Host(canon)

	if _, err := os.Stat(host); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("watch directory does not exist", "dir", root)
		} else {
			s.logger.Error("failed to stat watch directory", "dir", root, "error", err)
		}
		return nil
	}

	entries, err := os.ReadDir(host)
	if err != nil {
		s.logger.Error("failed to read watch directory", "dir", root, "error", err)
		return nil
	}

	out := make([]candidate, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, candidate{path: pathutil.Join(canon, e.Name()), name: e.Name()})
	}
	return out
}

// GitStatus returns detailed git status for a project directory, or nil when
// it is not inside a git work tree.
func (s *Service) GitStatus(ctx context.Context, projectPath string) (*gitprobe.Status, error) {
	if strings.TrimSpace(projectPath) == "" {
		return nil, ErrInvalidInput
	}
	host := pathutil.Host(pathutil.Canonical(projectPath))
	info, err := os.Stat(host)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectPath)
	}
	return s.git.ProbeForDetail(ctx, host), nil
}
