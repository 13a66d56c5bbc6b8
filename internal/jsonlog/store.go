// Package jsonlog stores the activity log as a single JSON array file, the
// format written by earlier releases. It is the portable alternative to the
// SQLite store and the source format for import-log.
package jsonlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/rpggio/actmon/internal/domain/activity"
	"github.com/rpggio/actmon/internal/pathutil"
	"github.com/rpggio/actmon/internal/repository"
)

// FileName is the conventional log file name inside the data directory.
const FileName = "activity-log.json"

var _ repository.ActivityRepository = (*Store)(nil)

// Store is a JSON-array activity log guarded by a mutex. It assumes a single
// owning process.
type Store struct {
	path   string
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// New creates a store backed by the file at path. The file is created on the
// first append.
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{path: path, logger: logger, now: time.Now}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Append adds records to the end of the log. A corrupt log is moved aside and
// replaced by one holding only the new records.
func (s *Store) Append(ctx context.Context, records []activity.Record) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read()
	if errors.Is(err, repository.ErrCorrupt) {
		backup, berr := s.moveAside()
		if berr != nil {
			return fmt.Errorf("failed to move corrupt log aside: %w", berr)
		}
		s.logger.Warn("activity log was corrupt, starting a new one", "path", s.path, "backup", backup, "error", err)
		existing = nil
	} else if err != nil {
		return err
	}

	for _, rec := range records {
		rec.ProjectPath = pathutil.Canonical(rec.ProjectPath)
		existing = append(existing, rec)
	}
	return s.write(existing)
}

// ReadAll returns the full log. A missing file is an empty log.
func (s *Store) ReadAll(ctx context.Context) ([]activity.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Latest scans the whole log for the newest timestamp per project.
func (s *Store) Latest(ctx context.Context) (map[string]int64, error) {
	records, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return activity.LatestByProject(records), nil
}

// List returns records newest first, matching the given filters.
func (s *Store) List(ctx context.Context, opts activity.ListOptions) ([]activity.Record, error) {
	records, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]activity.Record, 0, len(records))
	want := pathutil.Canonical(opts.ProjectPath)
	// Walk backwards so equal timestamps keep newest-appended first.
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		if opts.ProjectPath != "" && pathutil.Canonical(rec.ProjectPath) != want {
			continue
		}
		filtered = append(filtered, rec)
	}
	slices.SortStableFunc(filtered, func(a, b activity.Record) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		default:
			return 0
		}
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(filtered) {
			return []activity.Record{}, nil
		}
		filtered = filtered[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(filtered) {
		filtered = filtered[:opts.Limit]
	}
	return filtered, nil
}

// ListBefore returns the records DeleteBefore would remove for cutoff, in log
// order. The newest record of every project is never listed.
func (s *Store) ListBefore(ctx context.Context, cutoff time.Time) ([]activity.Record, error) {
	records, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	old, _ := partitionBefore(records, cutoff.UnixMilli())
	return old, nil
}

// DeleteBefore rewrites the log without records older than cutoff. Unlike the
// SQLite store it keeps no separate latest-activity index, so the newest
// record of every project is retained even when it is older than cutoff.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return 0, err
	}
	old, kept := partitionBefore(records, cutoff.UnixMilli())
	if len(old) == 0 {
		return 0, nil
	}
	if err := s.write(kept); err != nil {
		return 0, err
	}
	return int64(len(old)), nil
}

// partitionBefore splits records into those older than ms and those kept. The
// first record carrying a project's latest timestamp is always kept.
func partitionBefore(records []activity.Record, ms int64) (old, kept []activity.Record) {
	latest := activity.LatestByProject(records)
	keptLatest := make(map[string]bool, len(latest))
	old = []activity.Record{}
	kept = make([]activity.Record, 0, len(records))
	for _, rec := range records {
		path := pathutil.Canonical(rec.ProjectPath)
		if rec.Timestamp >= ms {
			kept = append(kept, rec)
			continue
		}
		if rec.Timestamp == latest[path] && !keptLatest[path] {
			keptLatest[path] = true
			kept = append(kept, rec)
			continue
		}
		old = append(old, rec)
	}
	return old, kept
}

func (s *Store) read() ([]activity.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []activity.Record{}, nil
		}
		return nil, fmt.Errorf("failed to read activity log: %w", err)
	}

	var records []activity.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", repository.ErrCorrupt, s.path, err)
	}
	if records == nil {
		records = []activity.Record{}
	}
	return records, nil
}

func (s *Store) write(records []activity.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode activity log: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".activity-log-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp log: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp log: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace activity log: %w", err)
	}
	return nil
}

func (s *Store) moveAside() (string, error) {
	backup := s.path + ".corrupt-" + strconv.FormatInt(s.now().UnixMilli(), 10)
	if err := os.Rename(s.path, backup); err != nil {
		return "", err
	}
	return backup, nil
}
