package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ACTMON_CONFIG_PATH", "")
	t.Setenv("ACTMON_DATA_DIR", "/tmp/actmon-data")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, TransportStdio, cfg.Transport)
	require.Equal(t, StoreSQLite, cfg.Store)
	require.Equal(t, 3*time.Second, cfg.Watch.Debounce)
	require.Equal(t, 5, cfg.Watch.Depth)
	require.Equal(t, DefaultIgnore, cfg.Watch.Ignore)
	require.Equal(t, 7.0, cfg.Status.ActiveDays)
	require.Equal(t, 30.0, cfg.Status.IdleDays)
	require.Equal(t, 10*time.Second, cfg.Git.Timeout)
	require.Equal(t, filepath.Join("/tmp/actmon-data", "activity.db"), cfg.DBPath())
	require.Equal(t, filepath.Join("/tmp/actmon-data", "settings.json"), cfg.SettingsPath())
	require.Equal(t, filepath.Join("/tmp/actmon-data", "archive"), cfg.ArchiveDir())
	require.False(t, cfg.UsesHTTP())
	require.False(t, cfg.UsesJSONStore())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actmon.yaml")
	doc := `
server:
  port: 9000
transport: http
store: json
watch:
  debounce: 500ms
  ignore: ["target"]
status:
  active_days: 3
  idle_days: 14
git:
  timeout: 2s
  concurrency: 8
retention:
  days: 90
  archive_dir: /var/archive
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	t.Setenv("ACTMON_SERVER_PORT", "9100")
	t.Setenv("ACTMON_LOG_LEVEL", "debug")
	t.Setenv("ACTMON_DB_PATH", "/data/a.db")
	t.Setenv("ACTMON_AUTH_TOKEN", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.True(t, cfg.UsesHTTP())
	require.True(t, cfg.UsesJSONStore())
	require.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	require.Equal(t, 5, cfg.Watch.Depth)
	require.Equal(t, []string{"target"}, cfg.Watch.Ignore)
	require.Equal(t, 3.0, cfg.Status.ActiveDays)
	require.Equal(t, 2*time.Second, cfg.Git.Timeout)
	require.Equal(t, 8, cfg.Git.Concurrency)
	require.Equal(t, 90, cfg.Retention.Days)
	require.Equal(t, "/var/archive", cfg.ArchiveDir())
	require.Equal(t, "/data/a.db", cfg.DBPath())
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "s3cret", cfg.Server.AuthToken)
}

func TestLoad_EnvConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /srv/actmon\n"), 0o644))
	t.Setenv("ACTMON_CONFIG_PATH", path)
	t.Setenv("ACTMON_DATA_DIR", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/srv/actmon", cfg.DataDir)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("ACTMON_CONFIG_PATH", "")

	t.Setenv("ACTMON_SERVER_PORT", "abc")
	_, err := Load("")
	require.Error(t, err)

	t.Setenv("ACTMON_SERVER_PORT", "")
	t.Setenv("ACTMON_TRANSPORT", "carrier-pigeon")
	_, err = Load("")
	require.ErrorContains(t, err, "invalid transport")

	t.Setenv("ACTMON_TRANSPORT", "")
	t.Setenv("ACTMON_STORE", "mongo")
	_, err = Load("")
	require.ErrorContains(t, err, "invalid store")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate_Thresholds(t *testing.T) {
	cfg := Default()
	cfg.Status.IdleDays = 2
	require.ErrorContains(t, cfg.Validate(), "thresholds")
}
