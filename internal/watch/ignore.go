package watch

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Ignorer matches root-relative, slash-separated paths against glob patterns.
// A pattern matches when it matches the whole relative path or any single
// segment of it, so "node_modules" excludes that directory at every depth.
type Ignorer struct {
	patterns []string
}

// NewIgnorer validates the patterns.
func NewIgnorer(patterns []string) (*Ignorer, error) {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
		out = append(out, p)
	}
	return &Ignorer{patterns: out}, nil
}

// Match reports whether rel should be ignored. "." and "" are never ignored.
func (i *Ignorer) Match(rel string) bool {
	rel = path.Clean(strings.ReplaceAll(rel, `\`, "/"))
	if rel == "." || rel == "" {
		return false
	}
	segments := strings.Split(rel, "/")
	for _, p := range i.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		for _, seg := range segments {
			if ok, _ := doublestar.Match(p, seg); ok {
				return true
			}
		}
	}
	return false
}
