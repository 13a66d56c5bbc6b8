package project

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortMode selects the ordering of a project list.
type SortMode string

const (
	SortStatus     SortMode = "status"
	SortName       SortMode = "name"
	SortActivity   SortMode = "activity"
	SortGitHot     SortMode = "git-hot"
	SortGitChanges SortMode = "git-changes"
)

// SortModes lists every accepted mode.
var SortModes = []SortMode{SortStatus, SortName, SortActivity, SortGitHot, SortGitChanges}

// ParseSortMode validates a mode name.
func ParseSortMode(s string) (SortMode, error) {
	m := SortMode(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortModes, m) {
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown sort mode %q", ErrInvalidInput, s)
}

// SortDefault orders projects by status priority (stale, idle, active) and
// then by name using locale collation.
func SortDefault(projects []Project) {
	SortBy(projects, SortStatus, true)
}

// SortBy orders projects in place. In ascending order, status sorts stale
// first, activity and git modes put the most recent or busiest first, and
// name is alphabetical. Descending reverses the comparison. The sort is stable.
func SortBy(projects []Project, mode SortMode, ascending bool) {
	// Collators are not safe for concurrent use.
	col := collate.New(language.Und)
	byName := func(a, b Project) int {
		return col.CompareString(a.Name, b.Name)
	}

	var cmp func(a, b Project) int
	switch mode {
	case SortName:
		cmp = byName
	case SortActivity:
		cmp = func(a, b Project) int {
			return compareInt64(lastOrZero(b), lastOrZero(a))
		}
	case SortGitHot:
		cmp = func(a, b Project) int {
			return b.Hotness - a.Hotness
		}
	case SortGitChanges:
		cmp = func(a, b Project) int {
			return b.Changes - a.Changes
		}
	default:
		cmp = func(a, b Project) int {
			if d := a.Status.Priority() - b.Status.Priority(); d != 0 {
				return d
			}
			return byName(a, b)
		}
	}

	slices.SortStableFunc(projects, func(a, b Project) int {
		if ascending {
			return cmp(a, b)
		}
		return -cmp(a, b)
	})
}

func lastOrZero(p Project) int64 {
	if p.LastActivity == nil {
		return 0
	}
	return *p.LastActivity
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
