// Package settings persists the user-editable watch configuration: watch
// roots, list filters and the preferred sort.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/muhammadmuzzammil1998/jsonc"
	"github.com/rpggio/actmon/internal/domain/project"
	"github.com/rpggio/actmon/internal/pathutil"
)

// FileName is the settings file name inside the data directory.
const FileName = "settings.json"

// ErrInvalidInput is returned for blank directories or unknown sort modes.
var ErrInvalidInput = errors.New("invalid settings input")

// Settings is the persisted document.
type Settings struct {
	WatchDirs     []string         `json:"watchDirs"`
	Filters       project.Filter   `json:"filters"`
	DefaultSort   project.SortMode `json:"defaultSort"`
	SortAscending bool             `json:"sortAscending"`
}

// Defaults returns a fresh default document: no watch roots, every status
// shown, status sort ascending.
func Defaults() Settings {
	return Settings{
		WatchDirs:     []string{},
		Filters:       project.DefaultFilter(),
		DefaultSort:   project.SortStatus,
		SortAscending: true,
	}
}

// partial mirrors Settings with optional fields so missing keys keep their defaults.
type partial struct {
	WatchDirs *[]string `json:"watchDirs"`
	Filters   *struct {
		ShowActive     *bool `json:"showActive"`
		ShowIdle       *bool `json:"showIdle"`
		ShowStale      *bool `json:"showStale"`
		GitReposOnly   *bool `json:"gitReposOnly"`
		HasChangesOnly *bool `json:"hasChangesOnly"`
	} `json:"filters"`
	DefaultSort   *project.SortMode `json:"defaultSort"`
	SortAscending *bool             `json:"sortAscending"`
}

func (p partial) mergeInto(s *Settings) {
	if p.WatchDirs != nil {
		s.WatchDirs = *p.WatchDirs
	}
	if f := p.Filters; f != nil {
		setBool(&s.Filters.ShowActive, f.ShowActive)
		setBool(&s.Filters.ShowIdle, f.ShowIdle)
		setBool(&s.Filters.ShowStale, f.ShowStale)
		setBool(&s.Filters.GitReposOnly, f.GitReposOnly)
		setBool(&s.Filters.HasChangesOnly, f.HasChangesOnly)
	}
	if p.DefaultSort != nil {
		s.DefaultSort = *p.DefaultSort
	}
	setBool(&s.SortAscending, p.SortAscending)
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// Provider loads and saves the settings file. Mutations are serialized.
type Provider struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

// NewProvider creates a provider for the file at path.
func NewProvider(path string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Provider{path: path, logger: logger}
}

// Path returns the settings file path.
func (p *Provider) Path() string {
	return p.path
}

// Load returns the current settings. A missing file is created with the
// defaults; an unreadable or invalid file yields the defaults and is left
// in place.
func (p *Provider) Load() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load()
}

func (p *Provider) load() Settings {
	defaults := Defaults()

	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := p.save(defaults); err != nil {
				p.logger.Error("failed to write default settings", "path", p.path, "error", err)
			}
			return defaults
		}
		p.logger.Error("failed to read settings", "path", p.path, "error", err)
		return defaults
	}

	s, err := Decode(data)
	if err != nil {
		p.logger.Error("failed to load settings", "path", p.path, "error", err)
		return defaults
	}
	return s
}

// Decode parses a JSONC settings document, validates it and merges it over
// the defaults.
func Decode(data []byte) (Settings, error) {
	clean := jsonc.ToJSON(data)
	if err := validate(clean); err != nil {
		return Settings{}, err
	}
	var raw partial
	if err := json.Unmarshal(clean, &raw); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	s := Defaults()
	raw.mergeInto(&s)
	if s.WatchDirs == nil {
		s.WatchDirs = []string{}
	}
	return s, nil
}

// Save writes the settings atomically.
func (p *Provider) Save(s Settings) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.save(s)
}

func (p *Provider) save(s Settings) error {
	if s.WatchDirs == nil {
		s.WatchDirs = []string{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp settings: %w", err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	p.logger.Debug("settings saved", "path", p.path)
	return nil
}

// update applies fn to the current settings and saves when fn reports a change.
func (p *Provider) update(fn func(*Settings) (bool, error)) (Settings, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.load()
	changed, err := fn(&s)
	if err != nil || !changed {
		return s, false, err
	}
	if err := p.save(s); err != nil {
		return s, false, err
	}
	return s, true, nil
}

// AddWatchDir adds a watch root unless an equal one (ignoring case and
// separator style) is already configured. It reports whether the list changed.
func (p *Provider) AddWatchDir(dir string) (Settings, bool, error) {
	dir, err := absWatchDir(dir)
	if err != nil {
		return Settings{}, false, err
	}
	return p.update(func(s *Settings) (bool, error) {
		for _, existing := range s.WatchDirs {
			if sameWatchDir(existing, dir) {
				return false, nil
			}
		}
		s.WatchDirs = append(s.WatchDirs, dir)
		return true, nil
	})
}

// RemoveWatchDir removes every watch root equal to dir. It reports whether
// the list changed.
func (p *Provider) RemoveWatchDir(dir string) (Settings, bool, error) {
	dir, err := absWatchDir(dir)
	if err != nil {
		return Settings{}, false, err
	}
	return p.update(func(s *Settings) (bool, error) {
		kept := make([]string, 0, len(s.WatchDirs))
		for _, existing := range s.WatchDirs {
			if !sameWatchDir(existing, dir) {
				kept = append(kept, existing)
			}
		}
		if len(kept) == len(s.WatchDirs) {
			return false, nil
		}
		s.WatchDirs = kept
		return true, nil
	})
}

// absWatchDir resolves a relative dir against the working directory of the
// caller so the stored root means the same thing to every process.
func absWatchDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", ErrInvalidInput
	}
	abs, err := pathutil.Absolute(dir)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %q: %v", ErrInvalidInput, dir, err)
	}
	return abs, nil
}

// sameWatchDir compares a stored root with an absolute one. Roots stored
// relative by older versions are resolved first.
func sameWatchDir(existing, abs string) bool {
	if resolved, err := pathutil.Absolute(existing); err == nil {
		existing = resolved
	}
	return pathutil.Equal(existing, abs)
}

// UpdateFilters replaces the list filters.
func (p *Provider) UpdateFilters(f project.Filter) (Settings, error) {
	s, _, err := p.update(func(s *Settings) (bool, error) {
		s.Filters = f
		return true, nil
	})
	return s, err
}

// UpdateSort replaces the preferred sort.
func (p *Provider) UpdateSort(mode string, ascending bool) (Settings, error) {
	m, err := project.ParseSortMode(mode)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	s, _, err := p.update(func(s *Settings) (bool, error) {
		s.DefaultSort = m
		s.SortAscending = ascending
		return true, nil
	})
	return s, err
}
