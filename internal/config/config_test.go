package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fentz26/mcphub/internal/health"
	"github.com/fentz26/mcphub/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, logging.LevelInfo, cfg.Level())
	assert.Equal(t, health.ModeHandshake, cfg.HealthMode())
	assert.Equal(t, 5*time.Second, cfg.HealthTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounce())
	assert.Equal(t, time.Minute, cfg.RefreshInterval())
	assert.Equal(t, time.Hour, cfg.PruneInterval())
}

func TestLoadConfig_Missing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yml := `log_level: debug
keep_backups: 5
health:
  mode: version
  timeout: 2s
scheduler:
  health_interval: ""
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(yml), 0o600))

	cfg, err := LoadConfigFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, logging.LevelDebug, cfg.Level())
	assert.Equal(t, 5, cfg.KeepBackups)
	assert.Equal(t, health.ModeVersion, cfg.HealthMode())
	assert.Equal(t, 2*time.Second, cfg.HealthTimeout())
	assert.Equal(t, 4, cfg.Health.Concurrency, "unset fields keep defaults")
	assert.Zero(t, cfg.HealthInterval())
	assert.True(t, cfg.Watch.Enabled)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"level":    "log_level: loud\n",
		"mode":     "health:\n  mode: ping\n",
		"duration": "watch:\n  debounce: soon\n",
		"negative": "keep_backups: -1\n",
		"yaml":     "log_level: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	cfg := DefaultConfig()
	cfg.KeepBackups = 3
	cfg.Watch.ResyncOnDrift = true

	require.NoError(t, SaveConfig(path, cfg))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	assert.Error(t, SaveConfig(path, nil))
}

func TestSaveConfig_RejectsInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "loud"
	assert.Error(t, SaveConfig(filepath.Join(t.TempDir(), FileName), cfg))
	assert.Error(t, SaveConfig(filepath.Join(t.TempDir(), FileName), nil))
}
