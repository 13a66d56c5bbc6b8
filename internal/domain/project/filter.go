package project

// Filter hides projects from a list. The zero value hides everything; use
// DefaultFilter for the show-all filter.
type Filter struct {
	ShowActive     bool `json:"showActive"`
	ShowIdle       bool `json:"showIdle"`
	ShowStale      bool `json:"showStale"`
	GitReposOnly   bool `json:"gitReposOnly"`
	HasChangesOnly bool `json:"hasChangesOnly"`
}

// DefaultFilter shows every project.
func DefaultFilter() Filter {
	return Filter{ShowActive: true, ShowIdle: true, ShowStale: true}
}

// Match reports whether p passes the filter.
func (f Filter) Match(p Project) bool {
	switch p.Status {
	case StatusActive:
		if !f.ShowActive {
			return false
		}
	case StatusIdle:
		if !f.ShowIdle {
			return false
		}
	default:
		if !f.ShowStale {
			return false
		}
	}
	if f.GitReposOnly && !p.IsRepository {
		return false
	}
	if f.HasChangesOnly && (!p.IsRepository || p.Changes == 0) {
		return false
	}
	return true
}

// Apply returns the matching projects in their original order.
func (f Filter) Apply(projects []Project) []Project {
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
