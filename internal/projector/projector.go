// Package projector writes each instance's enabled servers into its
// client's config file.
package projector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fentz26/mcphub/internal/audit"
	"github.com/fentz26/mcphub/internal/backup"
	"github.com/fentz26/mcphub/internal/clients"
	"github.com/fentz26/mcphub/internal/codec"
	"github.com/fentz26/mcphub/internal/logging"
	"github.com/fentz26/mcphub/internal/models"
	"github.com/fentz26/mcphub/internal/naming"
)

// ErrNoConfigPath indicates an instance has no config file to write.
var ErrNoConfigPath = errors.New("instance has no config path")

// Store is the persistence the projector reads from and stamps.
type Store interface {
	GetInstance(id string) (*models.ClientInstance, error)
	ListInstances() ([]models.ClientInstance, error)
	ListServers() ([]models.Server, error)
	CreateBackup(b *models.ConfigBackup) error
	PruneBackups(instanceID string, keep int) ([]models.ConfigBackup, error)
	MarkSynced(id string, at time.Time) error
}

// Options tunes a Projector.
type Options struct {
	// KeepBackups prunes all but this many backups per instance after each
	// backup. Zero keeps everything.
	KeepBackups int
	// BeforeWrite is called with the config path right before it is written.
	BeforeWrite func(path string)
}

// Projector syncs instances from the store to disk.
type Projector struct {
	store   Store
	journal *audit.Journal
	opts    Options
	now     func() time.Time
}

// New creates a Projector.
func New(s Store, journal *audit.Journal, opts Options) *Projector {
	return &Projector{store: s, journal: journal, opts: opts, now: time.Now}
}

// SyncInstance writes the instance's enabled servers to its config file.
// When backupDir is non-empty and the file exists, it is copied aside first
// and a failed backup leaves the file untouched. It returns the backup path,
// if one was taken.
func (p *Projector) SyncInstance(ctx context.Context, instanceID, backupDir string) (string, error) {
	backupPath, count, err := p.syncInstance(ctx, instanceID, backupDir)

	outcome, details := audit.OutcomeSuccess, fmt.Sprintf("wrote %d servers", count)
	if err != nil {
		outcome, details = audit.OutcomeFailure, err.Error()
	} else if backupPath != "" {
		details += ", backup " + backupPath
	}
	p.journal.Record(audit.ActionSync, map[string]string{"instance": instanceID, "backup_dir": backupDir}, outcome, instanceID, details)

	return backupPath, err
}

func (p *Projector) syncInstance(ctx context.Context, instanceID, backupDir string) (string, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	inst, err := p.store.GetInstance(instanceID)
	if err != nil {
		return "", 0, err
	}
	if inst.ConfigPath == "" {
		return "", 0, fmt.Errorf("%s: %w", inst.Name, ErrNoConfigPath)
	}
	servers, err := p.store.ListServers()
	if err != nil {
		return "", 0, err
	}

	var backupPath string
	if backupDir != "" {
		if _, statErr := os.Stat(inst.ConfigPath); statErr == nil {
			backupPath, err = p.backup(inst, backupDir)
			if err != nil {
				return "", 0, err
			}
		}
	}

	entries := BuildEntries(servers, inst.EnabledServers)

	if p.opts.BeforeWrite != nil {
		p.opts.BeforeWrite(inst.ConfigPath)
	}
	if clients.UsesMerge(inst.ClientKind) {
		err = codec.WritePreserving(inst.ConfigPath, entries)
	} else {
		err = codec.WriteFull(inst.ConfigPath, entries)
	}
	if err != nil {
		return backupPath, 0, fmt.Errorf("write %s: %w", inst.ConfigPath, err)
	}

	if err := p.store.MarkSynced(inst.ID, p.now().UTC()); err != nil {
		return backupPath, len(entries), err
	}

	logging.Info("Projector", "Synced %d servers to %s (%s)", len(entries), inst.Name, inst.ConfigPath)
	return backupPath, len(entries), nil
}

func (p *Projector) backup(inst *models.ClientInstance, backupDir string) (string, error) {
	mgr := backup.NewManager(backupDir)
	path, err := mgr.Backup(inst.ConfigPath)
	if err != nil {
		return "", fmt.Errorf("backup %s: %w", inst.ConfigPath, err)
	}
	if err := p.store.CreateBackup(&models.ConfigBackup{InstanceID: inst.ID, BackupPath: path}); err != nil {
		return "", fmt.Errorf("record backup: %w", err)
	}

	if p.opts.KeepBackups > 0 {
		removed, err := p.store.PruneBackups(inst.ID, p.opts.KeepBackups)
		if err != nil {
			logging.Error("Projector", err, "Failed to prune backups of %s", inst.Name)
			return path, nil
		}
		paths := make([]string, 0, len(removed))
		for _, b := range removed {
			paths = append(paths, b.BackupPath)
		}
		if err := mgr.Remove(paths...); err != nil {
			logging.Warn("Projector", "Some pruned backups of %s could not be removed: %v", inst.Name, err)
		}
	}
	return path, nil
}

// SyncAll syncs every instance, continuing past failures. It returns the IDs
// of the instances that synced.
func (p *Projector) SyncAll(ctx context.Context, backupDir string) ([]string, error) {
	instances, err := p.store.ListInstances()
	if err != nil {
		return nil, err
	}

	synced := []string{}
	for _, inst := range instances {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if _, err := p.SyncInstance(ctx, inst.ID, backupDir); err != nil {
			logging.Error("Projector", err, "Failed to sync instance %s (%s)", inst.Name, inst.ID)
			continue
		}
		synced = append(synced, inst.ID)
	}
	return synced, nil
}

// BuildEntries maps sanitized server names to on-disk entries for the
// enabled servers. When two names sanitize to the same key, the first
// server in list order wins.
func BuildEntries(servers []models.Server, enabled []string) map[string]codec.Entry {
	want := make(map[string]bool, len(enabled))
	for _, id := range enabled {
		want[id] = true
	}

	entries := make(map[string]codec.Entry)
	for _, srv := range servers {
		if !want[srv.ID] {
			continue
		}
		key := naming.Sanitize(srv.Name)
		if _, taken := entries[key]; taken {
			logging.Warn("Projector", "Server %q collides with another server as %q, skipping", srv.Name, key)
			continue
		}
		entries[key] = codec.EntryFromServer(srv)
	}
	return entries
}
