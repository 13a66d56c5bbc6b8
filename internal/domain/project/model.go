package project

// Status is the recency tier of a project.
type Status string

const (
	StatusActive Status = "active"
	StatusIdle   Status = "idle"
	StatusStale  Status = "stale"
)

// Priority orders statuses for the default sort: stale < idle < active.
func (s Status) Priority() int {
	switch s {
	case StatusActive:
		return 2
	case StatusIdle:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the known tiers.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusIdle || s == StatusStale
}

// Project is one immediate subdirectory of a watch root.
type Project struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Status       Status `json:"status"`
	LastActivity *int64 `json:"last_activity"`
	Hotness      int    `json:"hotness"`
	IsRepository bool   `json:"is_git_repo"`
	Changes      int    `json:"changes"`
}

// Summary counts projects per status.
type Summary struct {
	Active int `json:"active"`
	Idle   int `json:"idle"`
	Stale  int `json:"stale"`
	Total  int `json:"total"`
}

// Summarize counts projects per status.
func Summarize(projects []Project) Summary {
	var s Summary
	for _, p := range projects {
		switch p.Status {
		case StatusActive:
			s.Active++
		case StatusIdle:
			s.Idle++
		default:
			s.Stale++
		}
	}
	s.Total = len(projects)
	return s
}
