package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fentz26/mcphub/internal/backup"
	"github.com/fentz26/mcphub/internal/health"
	"github.com/fentz26/mcphub/internal/logging"
	"github.com/fentz26/mcphub/internal/models"
)

// Job names.
const (
	JobRefresh      = "refresh"
	JobPruneBackups = "prune-backups"
	JobHealth       = "health"
)

// Refresher re-seeds discovery from the store.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Store is the persistence the maintenance jobs use.
type Store interface {
	ListServers() ([]models.Server, error)
	LoadAppSettings() (models.AppSettings, error)
	BackupsOlderThan(cutoff time.Time) ([]models.ConfigBackup, error)
	DeleteBackup(id string) error
}

// Maintenance holds the daemon's periodic jobs and their shared state.
type Maintenance struct {
	store     Store
	refresher Refresher
	backups   *backup.Manager
	checker   *health.Checker
	cfg       *Config

	mu         sync.RWMutex
	lastHealth []models.ServerHealth

	now func() time.Time
}

// NewMaintenance wires the maintenance jobs. A nil cfg uses the defaults.
func NewMaintenance(s Store, r Refresher, backups *backup.Manager, checker *health.Checker, cfg *Config) *Maintenance {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Maintenance{store: s, refresher: r, backups: backups, checker: checker, cfg: cfg, now: time.Now}
}

// Jobs returns the jobs to hand to New.
func (m *Maintenance) Jobs() []Job {
	return []Job{
		{Name: JobRefresh, Interval: m.cfg.RefreshInterval, Run: m.refresher.Refresh},
		{Name: JobPruneBackups, Interval: m.cfg.PruneInterval, Run: m.PruneBackups},
		{Name: JobHealth, Interval: m.cfg.HealthInterval, Run: m.CheckHealth},
	}
}

// PruneBackups deletes backups older than the configured retention. The
// newest backup of each instance is always kept.
func (m *Maintenance) PruneBackups(ctx context.Context) error {
	settings, err := m.store.LoadAppSettings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if settings.BackupRetentionDays == 0 {
		return nil
	}

	cutoff := m.now().Add(-time.Duration(settings.BackupRetentionDays) * 24 * time.Hour)
	old, err := m.store.BackupsOlderThan(cutoff)
	if err != nil {
		return err
	}

	var paths []string
	for _, b := range old {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.store.DeleteBackup(b.ID); err != nil {
			return err
		}
		paths = append(paths, b.BackupPath)
	}
	if err := m.backups.Remove(paths...); err != nil {
		logging.Warn("Scheduler", "Some expired backups could not be removed: %v", err)
	}
	if len(paths) > 0 {
		logging.Info("Scheduler", "Pruned %d backups older than %d days", len(paths), settings.BackupRetentionDays)
	}
	return nil
}

// CheckHealth checks every server and keeps the results for LastHealth.
func (m *Maintenance) CheckHealth(ctx context.Context) error {
	servers, err := m.store.ListServers()
	if err != nil {
		return err
	}
	results := m.checker.CheckAll(ctx, servers, m.cfg.HealthConcurrency)

	m.mu.Lock()
	m.lastHealth = results
	m.mu.Unlock()

	unhealthy := 0
	for _, r := range results {
		if r.Status != models.HealthHealthy {
			unhealthy++
		}
	}
	logging.Info("Scheduler", "Health sweep: %d servers, %d not healthy", len(results), unhealthy)
	return nil
}

// LastHealth returns the results of the latest health sweep.
func (m *Maintenance) LastHealth() []models.ServerHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.ServerHealth(nil), m.lastHealth...)
}
