package activity

import (
	"time"

	"github.com/rpggio/actmon/internal/pathutil"
)

// Record is one entry in the activity log: a project saw filesystem activity
// at Timestamp (milliseconds since the Unix epoch).
type Record struct {
	ProjectPath string `json:"projectPath"`
	Timestamp   int64  `json:"timestamp"`
}

// NewRecord stamps a canonicalized project path with t.
func NewRecord(projectPath string, t time.Time) Record {
	return Record{
		ProjectPath: pathutil.Canonical(projectPath),
		Timestamp:   t.UnixMilli(),
	}
}

// Time returns the record timestamp as a time.Time.
func (r Record) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// LatestByProject maps every canonical project path to its greatest timestamp.
// A later record only replaces an earlier one when strictly greater.
func LatestByProject(records []Record) map[string]int64 {
	latest := make(map[string]int64, len(records))
	for _, rec := range records {
		path := pathutil.Canonical(rec.ProjectPath)
		existing, ok := latest[path]
		if !ok || rec.Timestamp > existing {
			latest[path] = rec.Timestamp
		}
	}
	return latest
}
