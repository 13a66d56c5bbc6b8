// Package gitprobe answers a few questions about a directory by shelling out to
// git and parsing its plain-text output. Every sub-query fails soft.
package gitprobe

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// UnknownBranch is reported when the branch name cannot be determined.
const UnknownBranch = "unknown"

// Status is the git metadata for one directory.
type Status struct {
	IsRepository bool   `json:"is_git_repo"`
	Branch       string `json:"branch,omitempty"`
	Staged       int    `json:"staged"`
	Unstaged     int    `json:"unstaged"`
	Untracked    int    `json:"untracked"`
	Ahead        int    `json:"ahead"`
	Behind       int    `json:"behind"`
	Hotness      int    `json:"hotness,omitempty"`
}

// Changes is the total number of changed entries in the work tree.
func (s Status) Changes() int {
	return s.Staged + s.Unstaged + s.Untracked
}

// Probe queries git for repository metadata.
type Probe struct {
	runner Runner
	logger *slog.Logger
	now    func() time.Time
}

// New creates a probe. A nil runner uses an ExecRunner with the default timeout.
func New(runner Runner, logger *slog.Logger) *Probe {
	if runner == nil {
		runner = NewExecRunner(DefaultTimeout)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Probe{runner: runner, logger: logger, now: time.Now}
}

// ProbeForDiscovery returns the work-tree change counts and hotness of dir.
// Non-repositories yield the zero Status.
func (p *Probe) ProbeForDiscovery(ctx context.Context, dir string) Status {
	if !p.isWorkTree(ctx, dir) {
		return Status{}
	}
	st := Status{IsRepository: true}
	st.Staged, st.Unstaged, st.Untracked = p.changes(ctx, dir)
	st.Hotness = p.Hotness(ctx, dir)
	return st
}

// ProbeForDetail returns branch, change counts and upstream divergence for
// dir, or nil when dir is not inside a git work tree. Hotness is not computed.
func (p *Probe) ProbeForDetail(ctx context.Context, dir string) *Status {
	if !p.isWorkTree(ctx, dir) {
		return nil
	}
	st := &Status{IsRepository: true}
	st.Branch = p.branch(ctx, dir)
	st.Staged, st.Unstaged, st.Untracked = p.changes(ctx, dir)
	st.Ahead, st.Behind = p.aheadBehind(ctx, dir)
	return st
}

// Hotness scores recent commit activity as 3×commits(7 days) + commits(30 days).
// Any failure scores 0.
func (p *Probe) Hotness(ctx context.Context, dir string) int {
	now := p.now()
	week, err := p.commitsSince(ctx, dir, now.Add(-7*24*time.Hour))
	if err != nil {
		return 0
	}
	month, err := p.commitsSince(ctx, dir, now.Add(-30*24*time.Hour))
	if err != nil {
		return 0
	}
	return week*3 + month
}

func (p *Probe) isWorkTree(ctx context.Context, dir string) bool {
	_, err := p.runner.Run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	return err == nil
}

func (p *Probe) branch(ctx context.Context, dir string) string {
	out, err := p.runner.Run(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		p.logger.Debug("git branch query failed", "dir", dir, "error", err)
		return UnknownBranch
	}
	if b := strings.TrimSpace(out); b != "" {
		return b
	}
	return UnknownBranch
}

func (p *Probe) changes(ctx context.Context, dir string) (staged, unstaged, untracked int) {
	out, err := p.runner.Run(ctx, dir, "status", "--porcelain")
	if err != nil {
		p.logger.Debug("git status query failed", "dir", dir, "error", err)
		return 0, 0, 0
	}
	return ParsePorcelain(out)
}

func (p *Probe) aheadBehind(ctx context.Context, dir string) (int, int) {
	out, err := p.runner.Run(ctx, dir, "rev-list", "--left-right", "--count", "HEAD...@{upstream}")
	if err != nil {
		// No upstream is the common case.
		return 0, 0
	}
	return ParseAheadBehind(out)
}

func (p *Probe) commitsSince(ctx context.Context, dir string, since time.Time) (int, error) {
	arg := "--since=" + since.UTC().Format("2006-01-02")
	out, err := p.runner.Run(ctx, dir, "log", arg, "--oneline")
	if err != nil {
		return 0, err
	}
	return countLines(out), nil
}

// ParsePorcelain counts entries of `git status --porcelain` output. "??" lines
// are untracked; otherwise a non-blank index column counts as staged and a
// non-blank work-tree column as unstaged, so one entry may count twice.
func ParsePorcelain(out string) (staged, unstaged, untracked int) {
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" || len(line) < 2 {
			continue
		}
		x, y := line[0], line[1]
		if x == '?' && y == '?' {
			untracked++
		} else if x != ' ' && x != '?' {
			staged++
		}
		if y != ' ' && y != '?' {
			unstaged++
		}
	}
	return staged, unstaged, untracked
}

// ParseAheadBehind parses the tab-separated output of
// `git rev-list --left-right --count`. Unparseable fields are 0.
func ParseAheadBehind(out string) (ahead, behind int) {
	fields := strings.Split(strings.TrimSpace(out), "\t")
	if len(fields) > 0 {
		ahead, _ = strconv.Atoi(strings.TrimSpace(fields[0]))
	}
	if len(fields) > 1 {
		behind, _ = strconv.Atoi(strings.TrimSpace(fields[1]))
	}
	return ahead, behind
}

func countLines(out string) int {
	n := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
