// Package config loads the process configuration of mcphub from YAML.
//
// Product settings (discovery, backups) live in the store. This file only
// tunes how the process runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fentz26/mcphub/internal/health"
	"github.com/fentz26/mcphub/internal/logging"
	"gopkg.in/yaml.v3"
)

// FileName is the config file name inside the app data directory.
const FileName = "config.yaml"

// Config holds process configuration.
type Config struct {
	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
	// DatabasePath overrides the default database location.
	DatabasePath string `yaml:"database_path,omitempty"`
	// BackupDir overrides the default backup directory.
	BackupDir string `yaml:"backup_dir,omitempty"`
	// KeepBackups prunes all but this many backups per instance on sync.
	// Zero keeps every backup.
	KeepBackups int `yaml:"keep_backups"`

	Health    HealthConfig    `yaml:"health"`
	Watch     WatchConfig     `yaml:"watch"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// HealthConfig tunes server health checks.
type HealthConfig struct {
	Timeout     string `yaml:"timeout"`
	Mode        string `yaml:"mode"`
	Concurrency int    `yaml:"concurrency"`
}

// WatchConfig tunes drift detection on client config files.
type WatchConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Debounce      string `yaml:"debounce"`
	ResyncOnDrift bool   `yaml:"resync_on_drift"`
}

// SchedulerConfig sets the daemon's job intervals. An empty interval
// disables the job.
type SchedulerConfig struct {
	RefreshInterval string `yaml:"refresh_interval"`
	PruneInterval   string `yaml:"prune_interval"`
	HealthInterval  string `yaml:"health_interval"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:    "info",
		KeepBackups: 0,
		Health: HealthConfig{
			Timeout:     "5s",
			Mode:        string(health.ModeHandshake),
			Concurrency: 4,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: "500ms",
		},
		Scheduler: SchedulerConfig{
			RefreshInterval: "1m",
			PruneInterval:   "1h",
			HealthInterval:  "15m",
		},
	}
}

// LoadConfig reads path. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadConfigFromDir loads <dir>/config.yaml.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, FileName))
}

// SaveConfig writes cfg to path, creating parent directories if needed.
func SaveConfig(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.KeepBackups < 0 {
		return fmt.Errorf("keep_backups must not be negative")
	}
	if _, err := health.ParseMode(c.Health.Mode); err != nil {
		return err
	}
	if c.Health.Concurrency < 0 {
		return fmt.Errorf("health.concurrency must not be negative")
	}

	durations := map[string]string{
		"health.timeout":             c.Health.Timeout,
		"watch.debounce":             c.Watch.Debounce,
		"scheduler.refresh_interval": c.Scheduler.RefreshInterval,
		"scheduler.prune_interval":   c.Scheduler.PruneInterval,
		"scheduler.health_interval":  c.Scheduler.HealthInterval,
	}
	for field, value := range durations {
		if _, err := parseDuration(value); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	return nil
}

// Level is the parsed log level.
func (c *Config) Level() logging.Level {
	lvl, _ := logging.ParseLevel(c.LogLevel)
	return lvl
}

// HealthMode is the parsed health check mode.
func (c *Config) HealthMode() health.Mode {
	m, _ := health.ParseMode(c.Health.Mode)
	return m
}

// HealthTimeout is the per-check timeout; unset means the default.
func (c *Config) HealthTimeout() time.Duration {
	d, _ := parseDuration(c.Health.Timeout)
	if d == 0 {
		return health.DefaultTimeout
	}
	return d
}

// WatchDebounce is the per-file debounce window.
func (c *Config) WatchDebounce() time.Duration {
	d, _ := parseDuration(c.Watch.Debounce)
	return d
}

// RefreshInterval, PruneInterval and HealthInterval are the scheduler job
// intervals. Zero disables the job.
func (c *Config) RefreshInterval() time.Duration {
	d, _ := parseDuration(c.Scheduler.RefreshInterval)
	return d
}

func (c *Config) PruneInterval() time.Duration {
	d, _ := parseDuration(c.Scheduler.PruneInterval)
	return d
}

func (c *Config) HealthInterval() time.Duration {
	d, _ := parseDuration(c.Scheduler.HealthInterval)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", s)
	}
	return d, nil
}
