// Package pathutil normalizes watch-root and project paths so that paths coming
// from settings, filesystem events and the activity log compare equal.
package pathutil

import (
	"path/filepath"
	"strings"
)

// Canonical converts a path to the form stored in the activity log: forward
// slashes, no trailing separator (except for a bare root such as "/" or "C:/").
func Canonical(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	for len(p) > 1 && strings.HasSuffix(p, "/") && !isVolumeRoot(p) {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// Host converts a canonical path to the separator used by the host OS.
func Host(p string) string {
	return filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
}

// Equal reports whether two paths name the same location, ignoring case and
// separator style.
func Equal(a, b string) bool {
	return strings.EqualFold(Canonical(a), Canonical(b))
}

// Join appends a single child name to a canonical parent.
func Join(parent, name string) string {
	parent = Canonical(parent)
	if strings.HasSuffix(parent, "/") {
		return parent + name
	}
	return parent + "/" + name
}

// Absolute canonicalizes p and resolves it against the working directory
// when it is relative. Drive-letter paths count as absolute on every OS.
func Absolute(p string) (string, error) {
	c := Canonical(p)
	if isAbs(c) {
		return c, nil
	}
	abs, err := filepath.Abs(Host(c))
	if err != nil {
		return "", err
	}
	return Canonical(abs), nil
}

func isAbs(c string) bool {
	if strings.HasPrefix(c, "/") {
		return true
	}
	// "C:" or "C:/..."
	return len(c) >= 2 && c[1] == ':' && (len(c) == 2 || c[2] == '/')
}

func isVolumeRoot(p string) bool {
	// "C:/"
	return len(p) == 3 && p[1] == ':' && p[2] == '/'
}

// Resolver maps changed file paths to the project directory that owns them.
type Resolver struct {
	roots []string
}

// NewResolver builds a resolver over the given watch roots. Roots keep the
// casing they were configured with; matching is case-insensitive.
func NewResolver(roots []string) *Resolver {
	canon := make([]string, 0, len(roots))
	for _, r := range roots {
		if strings.TrimSpace(r) == "" {
			continue
		}
		canon = append(canon, Canonical(r))
	}
	return &Resolver{roots: canon}
}

// Roots returns the canonical roots in configuration order.
func (r *Resolver) Roots() []string {
	out := make([]string, len(r.roots))
	copy(out, r.roots)
	return out
}

// OwningProject returns the first path segment strictly below the first
// matching root, joined to that root. Paths directly inside a root, or outside
// every root, have no owner.
func (r *Resolver) OwningProject(path string) (string, bool) {
	p := Canonical(path)
	for _, root := range r.roots {
		if len(p) < len(root) || !strings.EqualFold(p[:len(root)], root) {
			continue
		}
		rest := p[len(root):]
		if !strings.HasSuffix(root, "/") {
			if rest != "" && rest[0] != '/' {
				// "/work" must not match "/workspace/x".
				continue
			}
		}
		segments := splitSegments(rest)
		if len(segments) < 2 {
			// The root itself, or an entry directly inside it.
			continue
		}
		return Join(root, segments[0]), true
	}
	return "", false
}

func splitSegments(rest string) []string {
	var out []string
	for _, s := range strings.Split(rest, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
