package service

import (
	"context"
	"fmt"

	"github.com/fentz26/mcphub/internal/audit"
	"github.com/fentz26/mcphub/internal/codec"
	"github.com/fentz26/mcphub/internal/credentials"
	"github.com/fentz26/mcphub/internal/discovery"
	"github.com/fentz26/mcphub/internal/lifecycle"
	"github.com/fentz26/mcphub/internal/models"
)

// --- Settings ---

// GetSettings returns the persisted application settings.
func (s *Service) GetSettings() (models.AppSettings, error) {
	settings, err := s.store.LoadAppSettings()
	if err != nil {
		return models.AppSettings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// SaveSettings persists settings and then reconciles discovery from the
// previous discovery settings to the new ones. The settings stay saved even
// when reconciliation fails.
func (s *Service) SaveSettings(ctx context.Context, next models.AppSettings) error {
	if next.Discovery.HTTPServerPort == 0 {
		return fmt.Errorf("%w: discovery port must be between 1 and 65535", ErrInvalidInput)
	}
	prev, err := s.GetSettings()
	if err != nil {
		return err
	}

	err = s.store.SaveAppSettings(next)
	s.record(audit.ActionSettingsSave, next, "", err)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	if s.lifecycle == nil {
		return nil
	}
	if err := s.lifecycle.ApplySettings(ctx, prev.Discovery, next.Discovery); err != nil {
		return fmt.Errorf("apply discovery settings: %w", err)
	}
	return nil
}

// --- Discovery ---

// GetDiscoverySettings returns the persisted discovery settings.
func (s *Service) GetDiscoverySettings() (models.DiscoverySettings, error) {
	settings, err := s.GetSettings()
	if err != nil {
		return models.DiscoverySettings{}, err
	}
	return settings.Discovery, nil
}

// UpdateDiscoverySettings replaces the discovery settings and reconciles
// the mirror and endpoint.
func (s *Service) UpdateDiscoverySettings(ctx context.Context, next models.DiscoverySettings) error {
	settings, err := s.GetSettings()
	if err != nil {
		return err
	}
	settings.Discovery = next
	return s.SaveSettings(ctx, settings)
}

// RefreshDiscovery rewrites the mirror and reseeds the endpoint.
func (s *Service) RefreshDiscovery(ctx context.Context) error {
	if s.lifecycle == nil {
		return nil
	}
	if err := s.lifecycle.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh discovery: %w", err)
	}
	return nil
}

// DiscoveryStatus reports what the mirror and endpoint are doing.
func (s *Service) DiscoveryStatus() lifecycle.Status {
	if s.lifecycle == nil {
		return lifecycle.Status{}
	}
	return s.lifecycle.Status()
}

// CheckPortAvailable reports whether the loopback port can be bound.
func (s *Service) CheckPortAvailable(port uint16) bool {
	return discovery.IsPortAvailable(port)
}

// --- Health ---

// CheckServerHealth checks one server. A server that does not exist yields
// an error status rather than a failure.
func (s *Service) CheckServerHealth(ctx context.Context, id string) models.ServerHealth {
	srv, err := s.GetServer(id)
	if err != nil {
		return models.ServerHealth{
			ServerID:     id,
			Status:       models.HealthError,
			ErrorMessage: err.Error(),
			LastChecked:  s.now().UTC(),
		}
	}
	return s.checker.Check(ctx, *srv)
}

// CheckAllHealth checks every server concurrently, in list order.
func (s *Service) CheckAllHealth(ctx context.Context) ([]models.ServerHealth, error) {
	servers, err := s.ListServers()
	if err != nil {
		return nil, err
	}
	return s.checker.CheckAll(ctx, servers, s.healthConcurrency), nil
}

// --- Credentials ---

// StoreCredential saves a secret env value for a server.
func (s *Service) StoreCredential(serverID, envVar, value string) error {
	if envVar == "" {
		return fmt.Errorf("%w: variable name cannot be empty", ErrInvalidInput)
	}
	if _, err := s.GetServer(serverID); err != nil {
		return err
	}
	if err := s.credentials.Store(credentials.Key(serverID, envVar), value); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// GetCredential returns a stored secret and whether it exists.
func (s *Service) GetCredential(serverID, envVar string) (string, bool, error) {
	value, ok, err := s.credentials.Get(credentials.Key(serverID, envVar))
	if err != nil {
		return "", false, fmt.Errorf("get credential: %w", err)
	}
	return value, ok, nil
}

// DeleteCredential removes a stored secret. Removing a missing one succeeds.
func (s *Service) DeleteCredential(serverID, envVar string) error {
	if err := s.credentials.Delete(credentials.Key(serverID, envVar)); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// CredentialsAvailable reports whether the OS credential store works.
func (s *Service) CredentialsAvailable() bool {
	return s.credentials != nil && s.credentials.Available()
}

// --- Misc ---

// AppDataDir is where the database and backups live.
func (s *Service) AppDataDir() string {
	return s.resolver.AppDataDir()
}

// DefaultConfigPath is the config file a client kind uses by default.
func (s *Service) DefaultConfigPath(kind models.ClientKind) (string, error) {
	return s.resolver.Path(kind)
}

// ReadConfigFile returns the server entries of a client config file.
func (s *Service) ReadConfigFile(path string) (map[string]codec.Entry, error) {
	entries, err := codec.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return entries, nil
}

// History returns the most recent audit entries, newest first.
func (s *Service) History(limit int) ([]models.AuditEntry, error) {
	entries, err := s.store.ListAudit(limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return entries, nil
}
