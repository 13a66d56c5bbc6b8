package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/actmon/internal/config"
	"github.com/rpggio/actmon/internal/domain/activity"
	"github.com/rpggio/actmon/internal/domain/project"
	"github.com/rpggio/actmon/internal/gitprobe"
	"github.com/rpggio/actmon/internal/jsonlog"
	"github.com/rpggio/actmon/internal/monitor"
	"github.com/rpggio/actmon/internal/repository"
	"github.com/rpggio/actmon/internal/settings"
	"github.com/rpggio/actmon/internal/sqlite"
	"github.com/rpggio/actmon/internal/watch"
)

// app holds the wired services for one command invocation.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	store    repository.ActivityRepository
	activity *activity.Service
	projects *project.Service
	settings *settings.Provider
	monitor  *monitor.Monitor

	closers []io.Closer
}

// newApp loads configuration and wires the services. logWriter receives the
// structured log; ACTMON_LOG_PATH redirects it to a size-capped file.
func newApp(opts *rootOptions, logWriter io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	a := &app{cfg: cfg}

	if logPath := os.Getenv("ACTMON_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			a.closers = append(a.closers, file)
			logWriter = fileWriter
		}
	}
	a.logger = slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		a.Close()
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	store, err := a.openStore()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store

	a.activity = activity.NewService(store, a.logger.With("component", "activity"))
	git := gitprobe.New(gitprobe.NewExecRunner(cfg.Git.Timeout), a.logger.With("component", "git"))
	a.projects = project.NewService(a.activity, git, project.Options{
		Thresholds: project.Thresholds{
			ActiveDays: cfg.Status.ActiveDays,
			IdleDays:   cfg.Status.IdleDays,
		},
		Concurrency: cfg.Git.Concurrency,
	}, a.logger.With("component", "discovery"))
	a.settings = settings.NewProvider(cfg.SettingsPath(), a.logger.With("component", "settings"))

	mon, err := monitor.New(monitor.Deps{
		Settings: a.settings,
		Activity: a.activity,
		Projects: a.projects,
	}, monitor.Options{
		Debounce: cfg.Watch.Debounce,
		Watch: watch.Options{
			Depth:  cfg.Watch.Depth,
			Ignore: cfg.Watch.Ignore,
		},
	}, a.logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.monitor = mon
	return a, nil
}

func (a *app) openStore() (repository.ActivityRepository, error) {
	if a.cfg.UsesJSONStore() {
		a.logger.Debug("using json activity log", "path", a.cfg.JSONLogPath())
		return jsonlog.New(a.cfg.JSONLogPath(), a.logger.With("component", "jsonlog")), nil
	}

	dbPath := a.cfg.DBPath()
	if err := ensureDBDir(dbPath); err != nil {
		return nil, fmt.Errorf("failed to prepare database path: %w", err)
	}
	db, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	a.closers = append(a.closers, db)
	a.logger.Debug("using sqlite activity log", "path", dbPath)
	return sqlite.NewActivityRepository(db), nil
}

// Close releases the database and log file, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
