package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	StoreSQLite = "sqlite"
	StoreJSON   = "json"
)

// Config defines daemon configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport string          `yaml:"transport"`
	DataDir   string          `yaml:"data_dir"`
	DB        DBConfig        `yaml:"db"`
	Store     string          `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
	Watch     WatchConfig     `yaml:"watch"`
	Status    StatusConfig    `yaml:"status"`
	Git       GitConfig       `yaml:"git"`
	Retention RetentionConfig `yaml:"retention"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// AuthToken, when set, is required as a bearer token on /mcp in http mode.
	AuthToken string `yaml:"auth_token"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Depth    int           `yaml:"depth"`
	Ignore   []string      `yaml:"ignore"`
}

type StatusConfig struct {
	ActiveDays float64 `yaml:"active_days"`
	IdleDays   float64 `yaml:"idle_days"`
}

type GitConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
}

type RetentionConfig struct {
	// Days of raw activity kept in the live log; 0 disables compaction at startup.
	Days       int    `yaml:"days"`
	ArchiveDir string `yaml:"archive_dir"`
}

// DefaultIgnore lists the names never watched below a root.
var DefaultIgnore = []string{
	".*",
	"node_modules",
	"dist",
	"build",
	"out",
	"vendor",
	"*.log",
	"package-lock.json",
	"yarn.lock",
}

// Default returns the built-in configuration.
func Default() Config {
	dataDir := "actmon"
	if dir, err := os.UserConfigDir(); err == nil {
		dataDir = filepath.Join(dir, "actmon")
	}
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 7420,
		},
		Transport: TransportStdio,
		DataDir:   dataDir,
		Store:     StoreSQLite,
		Log: LogConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			Debounce: 3000 * time.Millisecond,
			Depth:    5,
			Ignore:   append([]string(nil), DefaultIgnore...),
		},
		Status: StatusConfig{
			ActiveDays: 7,
			IdleDays:   30,
		},
		Git: GitConfig{
			Timeout:     10 * time.Second,
			Concurrency: 4,
		},
	}
}

// Load reads configuration from an optional YAML file and environment
// variables. An empty path falls back to ACTMON_CONFIG_PATH.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("ACTMON_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("ACTMON_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("ACTMON_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ACTMON_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if token := os.Getenv("ACTMON_AUTH_TOKEN"); token != "" {
		cfg.Server.AuthToken = token
	}
	if transport := os.Getenv("ACTMON_TRANSPORT"); transport != "" {
		cfg.Transport = transport
	}
	if dataDir := os.Getenv("ACTMON_DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if dbPath := os.Getenv("ACTMON_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if store := os.Getenv("ACTMON_STORE"); store != "" {
		cfg.Store = store
	}
	if level := os.Getenv("ACTMON_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated values and numeric ranges.
func (c Config) Validate() error {
	c.Transport = strings.ToLower(c.Transport)
	if c.Transport != TransportStdio && c.Transport != TransportHTTP {
		return fmt.Errorf("invalid transport %q: want %s or %s", c.Transport, TransportStdio, TransportHTTP)
	}
	store := strings.ToLower(c.Store)
	if store != StoreSQLite && store != StoreJSON {
		return fmt.Errorf("invalid store %q: want %s or %s", c.Store, StoreSQLite, StoreJSON)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Status.ActiveDays <= 0 || c.Status.IdleDays < c.Status.ActiveDays {
		return fmt.Errorf("invalid status thresholds: active_days=%v idle_days=%v", c.Status.ActiveDays, c.Status.IdleDays)
	}
	if c.Watch.Depth < 0 {
		return fmt.Errorf("invalid watch depth %d", c.Watch.Depth)
	}
	if c.Retention.Days < 0 {
		return fmt.Errorf("invalid retention days %d", c.Retention.Days)
	}
	return nil
}

// DBPath is the SQLite database path, defaulting to activity.db in the data dir.
func (c Config) DBPath() string {
	if c.DB.Path != "" {
		return c.DB.Path
	}
	return filepath.Join(c.DataDir, "activity.db")
}

// SettingsPath is the settings document in the data dir.
func (c Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.json")
}

// JSONLogPath is the JSON activity log in the data dir.
func (c Config) JSONLogPath() string {
	return filepath.Join(c.DataDir, "activity-log.json")
}

// ArchiveDir is where compacted activity is written.
func (c Config) ArchiveDir() string {
	if c.Retention.ArchiveDir != "" {
		return c.Retention.ArchiveDir
	}
	return filepath.Join(c.DataDir, "archive")
}

// UsesJSONStore reports whether the JSON log backend is selected.
func (c Config) UsesJSONStore() bool {
	return strings.EqualFold(c.Store, StoreJSON)
}

// UsesHTTP reports whether the MCP server should listen on HTTP.
func (c Config) UsesHTTP() bool {
	return strings.EqualFold(c.Transport, TransportHTTP)
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
