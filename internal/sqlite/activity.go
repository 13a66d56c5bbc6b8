package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/actmon/internal/domain/activity"
	"github.com/rpggio/actmon/internal/pathutil"
	"github.com/rpggio/actmon/internal/repository"
)

var _ repository.ActivityRepository = (*ActivityRepository)(nil)

// ActivityRepository implements repository.ActivityRepository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append inserts one burst of records and folds them into project_latest in
// the same transaction.
func (r *ActivityRepository) Append(ctx context.Context, records []activity.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	burstID := uuid.NewString()

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO activity_log (project_path, timestamp, burst_id)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare activity insert: %w", err)
	}
	defer insert.Close()

	upsert, err := tx.PrepareContext(ctx, `
		INSERT INTO project_latest (project_path, timestamp)
		VALUES (?, ?)
		ON CONFLICT(project_path) DO UPDATE SET timestamp = excluded.timestamp
		WHERE excluded.timestamp > project_latest.timestamp
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare latest upsert: %w", err)
	}
	defer upsert.Close()

	for _, rec := range records {
		path := pathutil.Canonical(rec.ProjectPath)
		if _, err := insert.ExecContext(ctx, path, rec.Timestamp, burstID); err != nil {
			return fmt.Errorf("failed to log activity: %w", err)
		}
		if _, err := upsert.ExecContext(ctx, path, rec.Timestamp); err != nil {
			return fmt.Errorf("failed to update latest activity: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activity: %w", err)
	}
	return nil
}

// ReadAll returns every live record in insertion order
func (r *ActivityRepository) ReadAll(ctx context.Context) ([]activity.Record, error) {
	return r.query(ctx, `
		SELECT project_path, timestamp
		FROM activity_log
		ORDER BY id ASC
	`)
}

// Latest returns the latest timestamp per project from the index table
func (r *ActivityRepository) Latest(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT project_path, timestamp FROM project_latest`)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest activity: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]int64)
	for rows.Next() {
		var path string
		var ts int64
		if err := rows.Scan(&path, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan latest activity: %w", err)
		}
		latest[path] = ts
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating latest activity rows: %w", err)
	}
	return latest, nil
}

// List returns records newest first, matching the given filters
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Record, error) {
	query := `
		SELECT project_path, timestamp
		FROM activity_log
	`
	args := []interface{}{}
	conditions := []string{}

	if opts.ProjectPath != "" {
		conditions = append(conditions, "project_path = ?")
		args = append(args, pathutil.Canonical(opts.ProjectPath))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY timestamp DESC, id DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	return r.query(ctx, query, args...)
}

// ListBefore returns records strictly older than cutoff in insertion order
func (r *ActivityRepository) ListBefore(ctx context.Context, cutoff time.Time) ([]activity.Record, error) {
	return r.query(ctx, `
		SELECT project_path, timestamp
		FROM activity_log
		WHERE timestamp < ?
		ORDER BY id ASC
	`, cutoff.UnixMilli())
}

// DeleteBefore removes records strictly older than cutoff. project_latest is
// left untouched.
func (r *ActivityRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM activity_log WHERE timestamp < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete activity: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// BurstCount returns the number of distinct bursts in the live log.
func (r *ActivityRepository) BurstCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT burst_id) FROM activity_log`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count bursts: %w", err)
	}
	return n, nil
}

func (r *ActivityRepository) query(ctx context.Context, query string, args ...interface{}) ([]activity.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	records := []activity.Record{}
	for rows.Next() {
		var rec activity.Record
		if err := rows.Scan(&rec.ProjectPath, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return records, nil
}
