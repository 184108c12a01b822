package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fentz26/mcphub/internal/audit"
	"github.com/fentz26/mcphub/internal/clients"
	"github.com/fentz26/mcphub/internal/config"
	"github.com/fentz26/mcphub/internal/credentials"
	"github.com/fentz26/mcphub/internal/health"
	"github.com/fentz26/mcphub/internal/lifecycle"
	"github.com/fentz26/mcphub/internal/logging"
	"github.com/fentz26/mcphub/internal/mirror"
	"github.com/fentz26/mcphub/internal/models"
	"github.com/fentz26/mcphub/internal/projector"
	"github.com/fentz26/mcphub/internal/service"
	"github.com/fentz26/mcphub/internal/store"
)

// app holds the wired components of one process.
type app struct {
	cfg       *config.Config
	resolver  *clients.Resolver
	store     *store.Store
	mirror    *mirror.Mirror
	lifecycle *lifecycle.Controller
	checker   *health.Checker
	svc       *service.Service
	dbPath    string
	backupDir string
}

// appOptions selects the process role.
type appOptions struct {
	// ownEndpoint lets this process bind the discovery endpoint.
	ownEndpoint bool
	// beforeWrite is called before a client config file is written.
	beforeWrite func(path string)
}

func loadConfig() (*config.Config, error) {
	dir := configDir
	if dir == "" {
		dir = clients.NewResolver().AppDataDir()
	}
	cfg, err := config.LoadConfigFromDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func openApp(opts appOptions) (*app, error) {
	cfg := appConfig
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	resolver := clients.NewResolver()

	path := dbPath
	if path == "" {
		path = cfg.DatabasePath
	}
	if path == "" {
		path = resolver.DatabasePath()
	}
	backupDir := cfg.BackupDir
	if backupDir == "" {
		backupDir = resolver.BackupDir()
	}

	s, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	m, err := mirror.NewForUser()
	if err != nil {
		s.Close()
		return nil, err
	}

	var lc *lifecycle.Controller
	if opts.ownEndpoint {
		lc = lifecycle.New(s, m)
	} else {
		lc = lifecycle.NewMirrorOnly(s, m)
	}

	creds := credentials.NewKeyring()
	checker := health.NewChecker(cfg.HealthMode(), cfg.HealthTimeout(), creds)
	journal := audit.NewJournal(s)
	proj := projector.New(s, journal, projector.Options{
		KeepBackups: cfg.KeepBackups,
		BeforeWrite: opts.beforeWrite,
	})

	svc := service.New(service.Deps{
		Store:             s,
		Resolver:          resolver,
		Projector:         proj,
		Lifecycle:         lc,
		Health:            checker,
		Credentials:       creds,
		Journal:           journal,
		BackupDir:         backupDir,
		HealthConcurrency: cfg.Health.Concurrency,
	})

	logging.Debug("CLI", "Opened database %s", path)
	return &app{
		cfg:       cfg,
		resolver:  resolver,
		store:     s,
		mirror:    m,
		lifecycle: lc,
		checker:   checker,
		svc:       svc,
		dbPath:    path,
		backupDir: backupDir,
	}, nil
}

// Close stops the endpoint, if this process owns one, and closes the store.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.lifecycle.Shutdown(ctx); err != nil {
		logging.Error("CLI", err, "Discovery shutdown failed")
	}
	if err := a.store.Close(); err != nil {
		logging.Error("CLI", err, "Database close failed")
	}
}

// withApp opens a one-shot app, runs fn and closes the app.
func withApp(fn func(a *app) error) error {
	a, err := openApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// findServer resolves a server by ID or exact name.
func (a *app) findServer(ref string) (*models.Server, error) {
	if srv, err := a.svc.GetServer(ref); err == nil {
		return srv, nil
	}
	servers, err := a.svc.ListServers()
	if err != nil {
		return nil, err
	}
	for i := range servers {
		if servers[i].Name == ref {
			return &servers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", service.ErrServerNotFound, ref)
}

// findInstance resolves an instance by ID or exact name.
func (a *app) findInstance(ref string) (*models.ClientInstance, error) {
	if inst, err := a.svc.GetInstance(ref); err == nil {
		return inst, nil
	}
	instances, err := a.svc.ListInstances()
	if err != nil {
		return nil, err
	}
	for i := range instances {
		if instances[i].Name == ref {
			return &instances[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", service.ErrInstanceNotFound, ref)
}

func configFilePath() string {
	dir := configDir
	if dir == "" {
		dir = clients.NewResolver().AppDataDir()
	}
	return filepath.Join(dir, config.FileName)
}
