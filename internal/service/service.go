// Package service is the command surface of MCP Hub. Every method returns a
// value or an error whose message can be shown to the user as is.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fentz26/mcphub/internal/audit"
	"github.com/fentz26/mcphub/internal/clients"
	"github.com/fentz26/mcphub/internal/credentials"
	"github.com/fentz26/mcphub/internal/health"
	"github.com/fentz26/mcphub/internal/lifecycle"
	"github.com/fentz26/mcphub/internal/logging"
	"github.com/fentz26/mcphub/internal/models"
	"github.com/fentz26/mcphub/internal/projector"
	"github.com/fentz26/mcphub/internal/store"
)

// Deps are the collaborators a Service drives.
type Deps struct {
	Store       *store.Store
	Resolver    *clients.Resolver
	Projector   *projector.Projector
	Lifecycle   *lifecycle.Controller
	Health      *health.Checker
	Credentials credentials.Store
	Journal     *audit.Journal

	// BackupDir receives config backups when backups are enabled.
	BackupDir string
	// HealthConcurrency bounds CheckAllHealth.
	HealthConcurrency int
}

// Service provides the MCP Hub business logic.
type Service struct {
	store       *store.Store
	resolver    *clients.Resolver
	projector   *projector.Projector
	lifecycle   *lifecycle.Controller
	checker     *health.Checker
	credentials credentials.Store
	journal     *audit.Journal

	backupDir         string
	healthConcurrency int
	now               func() time.Time
}

// New creates a Service.
func New(d Deps) *Service {
	return &Service{
		store:             d.Store,
		resolver:          d.Resolver,
		projector:         d.Projector,
		lifecycle:         d.Lifecycle,
		checker:           d.Health,
		credentials:       d.Credentials,
		journal:           d.Journal,
		backupDir:         d.BackupDir,
		healthConcurrency: d.HealthConcurrency,
		now:               time.Now,
	}
}

// --- Server Operations ---

// ServerInput holds the user-editable fields of a server.
type ServerInput struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Command     string            `json:"command" yaml:"command"`
	Args        []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env         map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Tags        []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func (in ServerInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: server name cannot be empty", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Command) == "" {
		return fmt.Errorf("%w: server command cannot be empty", ErrInvalidInput)
	}
	return nil
}

// ListServers returns every server ordered by name.
func (s *Service) ListServers() ([]models.Server, error) {
	servers, err := s.store.ListServers()
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	return servers, nil
}

// GetServer returns one server.
func (s *Service) GetServer(id string) (*models.Server, error) {
	srv, err := s.store.GetServer(id)
	if err != nil {
		return nil, notFound(err, ErrServerNotFound, id)
	}
	return srv, nil
}

// CreateServer adds a manually defined server.
func (s *Service) CreateServer(ctx context.Context, in ServerInput) (*models.Server, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	srv := &models.Server{
		Name:        in.Name,
		Description: in.Description,
		Command:     in.Command,
		Args:        in.Args,
		Env:         in.Env,
		Tags:        in.Tags,
		Source:      &models.ServerSource{Kind: models.SourceManual},
	}
	if err := s.store.CreateServer(srv); err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}
	s.refreshDiscovery(ctx)
	return srv, nil
}

// UpdateServer replaces the editable fields of a server.
func (s *Service) UpdateServer(ctx context.Context, id string, in ServerInput) (*models.Server, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	srv, err := s.GetServer(id)
	if err != nil {
		return nil, err
	}
	srv.Name = in.Name
	srv.Description = in.Description
	srv.Command = in.Command
	srv.Args = in.Args
	srv.Env = in.Env
	srv.Tags = in.Tags
	srv.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateServer(srv); err != nil {
		return nil, fmt.Errorf("update server: %w", notFound(err, ErrServerNotFound, id))
	}
	s.refreshDiscovery(ctx)
	return srv, nil
}

// DeleteServer removes a server and its enablements.
func (s *Service) DeleteServer(ctx context.Context, id string) error {
	err := s.store.DeleteServer(id)
	s.record(audit.ActionServerDelete, map[string]string{"server": id}, id, err)
	if err != nil {
		return fmt.Errorf("delete server: %w", notFound(err, ErrServerNotFound, id))
	}
	s.refreshDiscovery(ctx)
	return nil
}

// --- Instance Operations ---

// ListInstances returns every instance, default first.
func (s *Service) ListInstances() ([]models.ClientInstance, error) {
	instances, err := s.store.ListInstances()
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	return instances, nil
}

// GetInstance returns one instance with its enabled servers.
func (s *Service) GetInstance(id string) (*models.ClientInstance, error) {
	inst, err := s.store.GetInstance(id)
	if err != nil {
		return nil, notFound(err, ErrInstanceNotFound, id)
	}
	return inst, nil
}

// CreateInstance adds an instance. An empty path resolves to the client's
// default config file; custom clients must supply one. The first instance
// becomes the default.
func (s *Service) CreateInstance(name string, kind models.ClientKind, path string) (*models.ClientInstance, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: instance name cannot be empty", ErrInvalidInput)
	}
	if path == "" {
		resolved, err := s.resolver.Path(kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %s has no known config location, pass a path", ErrPathRequired, kind.DisplayName())
		}
		path = resolved
	}

	existing, err := s.store.ListInstances()
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	inst := &models.ClientInstance{
		Name:       name,
		ClientKind: kind,
		ConfigPath: path,
		IsDefault:  len(existing) == 0,
	}
	if err := s.store.CreateInstance(inst); err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	logging.Info("Service", "Created instance %s for %s at %s", inst.Name, kind.DisplayName(), inst.ConfigPath)
	return inst, nil
}

// UpdateInstance renames an instance or points it at another file. Empty
// fields are left unchanged.
func (s *Service) UpdateInstance(id, name, path string) (*models.ClientInstance, error) {
	inst, err := s.GetInstance(id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		inst.Name = name
	}
	if path != "" {
		inst.ConfigPath = path
	}
	if err := s.store.UpdateInstance(inst); err != nil {
		return nil, fmt.Errorf("update instance: %w", notFound(err, ErrInstanceNotFound, id))
	}
	return inst, nil
}

// DeleteInstance removes an instance with its enablements and backup rows.
// The client's config file is left as it is.
func (s *Service) DeleteInstance(id string) error {
	err := s.store.DeleteInstance(id)
	s.record(audit.ActionInstanceDelete, map[string]string{"instance": id}, id, err)
	if err != nil {
		return fmt.Errorf("delete instance: %w", notFound(err, ErrInstanceNotFound, id))
	}
	return nil
}

// SetDefaultInstance marks one instance as the default.
func (s *Service) SetDefaultInstance(id string) error {
	if err := s.store.SetDefaultInstance(id); err != nil {
		return fmt.Errorf("set default instance: %w", notFound(err, ErrInstanceNotFound, id))
	}
	return nil
}

// --- Enablement ---

// SetServerEnabled enables or disables a server on an instance.
func (s *Service) SetServerEnabled(instanceID, serverID string, enabled bool) error {
	if _, err := s.GetInstance(instanceID); err != nil {
		return err
	}
	if _, err := s.GetServer(serverID); err != nil {
		return err
	}
	if err := s.store.SetEnablement(instanceID, serverID, enabled); err != nil {
		return fmt.Errorf("set enablement: %w", err)
	}
	return nil
}

// GetEnabledServers returns the IDs of the servers enabled on an instance.
func (s *Service) GetEnabledServers(instanceID string) ([]string, error) {
	if _, err := s.GetInstance(instanceID); err != nil {
		return nil, err
	}
	ids, err := s.store.EnabledServersFor(instanceID)
	if err != nil {
		return nil, fmt.Errorf("enabled servers: %w", err)
	}
	return ids, nil
}

// --- helpers ---

// refreshDiscovery pushes registry changes to the mirror and endpoint.
// Failures are logged; the change itself already succeeded.
func (s *Service) refreshDiscovery(ctx context.Context) {
	if s.lifecycle == nil {
		return
	}
	if err := s.lifecycle.Refresh(ctx); err != nil {
		logging.Error("Service", err, "Failed to refresh discovery")
	}
}

func (s *Service) record(action string, inputs any, subjectID string, err error) {
	outcome, details := audit.OutcomeSuccess, ""
	if err != nil {
		outcome, details = audit.OutcomeFailure, err.Error()
	}
	s.journal.Record(action, inputs, outcome, subjectID, details)
}

// notFound rewrites a store miss as the given sentinel.
func notFound(err, sentinel error, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", sentinel, id)
	}
	return err
}
