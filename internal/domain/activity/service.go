package activity

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/rpggio/actmon/internal/archive"
)

// Service is the fail-soft façade over the activity log. Read failures degrade
// to empty results; write failures are logged and leave the store unchanged.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Append adds records to the log. The error is returned for callers that care,
// but it has already been logged.
func (s *Service) Append(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	for _, rec := range records {
		if strings.TrimSpace(rec.ProjectPath) == "" {
			return ErrInvalidInput
		}
	}
	if err := s.repo.Append(ctx, records); err != nil {
		s.logger.Error("failed to write activity log", "records", len(records), "error", err)
		return fmt.Errorf("appending activity: %w", err)
	}
	s.logger.Debug("wrote activity records", "records", len(records))
	return nil
}

// ReadAll returns the full history, or an empty slice if the log is missing or unreadable.
func (s *Service) ReadAll(ctx context.Context) []Record {
	records, err := s.repo.ReadAll(ctx)
	if err != nil {
		s.logger.Error("failed to read activity log", "error", err)
		return []Record{}
	}
	if records == nil {
		return []Record{}
	}
	return records
}

// LatestActivity returns the latest timestamp per canonical project path.
func (s *Service) LatestActivity(ctx context.Context) map[string]int64 {
	latest, err := s.repo.Latest(ctx)
	if err != nil {
		s.logger.Error("failed to read latest activity", "error", err)
		return map[string]int64{}
	}
	if latest == nil {
		return map[string]int64{}
	}
	return latest
}

// Recent lists activity newest first.
func (s *Service) Recent(ctx context.Context, opts ListOptions) ([]Record, error) {
	records, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return records, nil
}

// CompactResult describes one compaction run.
type CompactResult struct {
	Archived    int64  `json:"archived"`
	ArchivePath string `json:"archive_path,omitempty"`
}

// Compact moves records older than before into a compressed archive under
// archiveDir and removes them from the live log. The per-project latest
// timestamp survives compaction.
func (s *Service) Compact(ctx context.Context, before time.Time, archiveDir string) (CompactResult, error) {
	c, ok := s.repo.(Compactor)
	if !ok {
		return CompactResult{}, ErrCompactionUnsupported
	}

	old, err := c.ListBefore(ctx, before)
	if err != nil {
		return CompactResult{}, fmt.Errorf("listing records to compact: %w", err)
	}
	if len(old) == 0 {
		return CompactResult{}, nil
	}

	name := fmt.Sprintf("activity-%d-%d.jsonl.zst", before.UnixMilli(), s.now().UnixMilli())
	path := filepath.Join(archiveDir, name)
	if err := archive.WriteJSONL(path, old); err != nil {
		return CompactResult{}, fmt.Errorf("archiving activity: %w", err)
	}

	n, err := c.DeleteBefore(ctx, before)
	if err != nil {
		return CompactResult{}, fmt.Errorf("deleting compacted activity: %w", err)
	}
	s.logger.Info("compacted activity log", "archived", n, "archive", path)
	return CompactResult{Archived: n, ArchivePath: path}, nil
}
