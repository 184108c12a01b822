package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fentz26/mcphub/internal/audit"
	"github.com/fentz26/mcphub/internal/codec"
	"github.com/fentz26/mcphub/internal/logging"
	"github.com/fentz26/mcphub/internal/models"
	"gopkg.in/yaml.v3"
)

// --- Sync ---

// SyncInstance writes one instance's enabled servers to its config file.
// It returns the path of the backup taken, if any.
func (s *Service) SyncInstance(ctx context.Context, instanceID string) (string, error) {
	dir, err := s.syncBackupDir()
	if err != nil {
		return "", err
	}
	backupPath, err := s.projector.SyncInstance(ctx, instanceID, dir)
	if err != nil {
		return "", fmt.Errorf("sync instance: %w", notFound(err, ErrInstanceNotFound, instanceID))
	}
	return backupPath, nil
}

// SyncAll syncs every instance and returns the IDs of those that synced.
func (s *Service) SyncAll(ctx context.Context) ([]string, error) {
	dir, err := s.syncBackupDir()
	if err != nil {
		return nil, err
	}
	synced, err := s.projector.SyncAll(ctx, dir)
	if err != nil {
		return synced, fmt.Errorf("sync all: %w", err)
	}
	return synced, nil
}

// syncBackupDir is the backup directory, or empty when backups are off.
func (s *Service) syncBackupDir() (string, error) {
	settings, err := s.store.LoadAppSettings()
	if err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}
	if !settings.CreateBackups {
		return "", nil
	}
	return s.backupDir, nil
}

// --- Import ---

// ImportFromFile reads an existing client config and adds one server per
// entry.
func (s *Service) ImportFromFile(ctx context.Context, path string) ([]models.Server, error) {
	servers, err := codec.ImportFrom(path)
	if err != nil {
		s.record(audit.ActionServerImport, map[string]string{"path": path}, "", err)
		return nil, fmt.Errorf("import: %w", err)
	}
	return s.persistImported(ctx, map[string]string{"path": path}, servers)
}

// RegistryServer is one entry of a registry listing.
type RegistryServer struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Command     string            `json:"command" yaml:"command"`
	Args        []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env         map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Tags        []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	Repository  string            `json:"repository,omitempty" yaml:"repository,omitempty"`
	Homepage    string            `json:"homepage,omitempty" yaml:"homepage,omitempty"`
}

type registryFile struct {
	Servers []RegistryServer `json:"servers" yaml:"servers"`
}

// LoadRegistryFile reads registry entries from a YAML or JSON file. The file
// holds either a list of entries or a mapping with a "servers" list.
func LoadRegistryFile(path string) ([]RegistryServer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}

	// YAML is a superset of JSON, so one decoder covers both.
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse registry file %s: %w", filepath.Base(path), err)
	}
	if len(node.Content) == 0 {
		return []RegistryServer{}, nil
	}

	root := node.Content[0]
	var entries []RegistryServer
	switch root.Kind {
	case yaml.SequenceNode:
		err = root.Decode(&entries)
	case yaml.MappingNode:
		var f registryFile
		err = root.Decode(&f)
		entries = f.Servers
	default:
		return nil, fmt.Errorf("%w: registry file must hold a list of servers", ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("parse registry file %s: %w", filepath.Base(path), err)
	}
	if entries == nil {
		entries = []RegistryServer{}
	}
	return entries, nil
}

// ImportFromRegistry adds registry entries as servers sourced from
// sourceURL. Entries without a name or command are skipped.
func (s *Service) ImportFromRegistry(ctx context.Context, sourceURL string, entries []RegistryServer) ([]models.Server, error) {
	servers := make([]models.Server, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Name) == "" || strings.TrimSpace(e.Command) == "" {
			logging.Warn("Service", "Skipping registry entry without name or command: %q", e.Name)
			continue
		}
		srv := models.Server{
			Name:        e.Name,
			Description: e.Description,
			Command:     e.Command,
			Args:        e.Args,
			Env:         e.Env,
			Tags:        e.Tags,
			Source:      &models.ServerSource{Kind: models.SourceRegistry, URL: sourceURL},
		}
		servers = append(servers, srv)
	}
	return s.persistImported(ctx, map[string]string{"registry": sourceURL}, servers)
}

func (s *Service) persistImported(ctx context.Context, inputs map[string]string, servers []models.Server) ([]models.Server, error) {
	created := make([]models.Server, 0, len(servers))
	for i := range servers {
		srv := servers[i]
		if err := s.store.CreateServer(&srv); err != nil {
			err = fmt.Errorf("import %s: %w", srv.Name, err)
			s.record(audit.ActionServerImport, inputs, "", err)
			if len(created) > 0 {
				s.refreshDiscovery(ctx)
			}
			return created, err
		}
		created = append(created, srv)
	}
	s.journal.Record(audit.ActionServerImport, inputs, audit.OutcomeSuccess, "", fmt.Sprintf("imported %d servers", len(created)))
	logging.Info("Service", "Imported %d servers", len(created))
	if len(created) > 0 {
		s.refreshDiscovery(ctx)
	}
	return created, nil
}

// --- Detection & Backups ---

// DetectClients lists the clients that look installed on this machine.
func (s *Service) DetectClients() []models.DetectedClient {
	return s.resolver.DetectInstalled()
}

// ListBackups returns an instance's backups, newest first.
func (s *Service) ListBackups(instanceID string) ([]models.ConfigBackup, error) {
	if _, err := s.GetInstance(instanceID); err != nil {
		return nil, err
	}
	backups, err := s.store.BackupsFor(instanceID)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	return backups, nil
}

// RestoreBackup is reserved and always fails with ErrRestoreNotImplemented.
func (s *Service) RestoreBackup(id string) error {
	logging.Debug("Service", "Restore requested for backup %s", id)
	return ErrRestoreNotImplemented
}
