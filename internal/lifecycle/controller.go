// Package lifecycle keeps the Markdown mirror and the discovery endpoint in
// the state the persisted discovery settings ask for.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fentz26/mcphub/internal/discovery"
	"github.com/fentz26/mcphub/internal/logging"
	"github.com/fentz26/mcphub/internal/mirror"
	"github.com/fentz26/mcphub/internal/models"
	"golang.org/x/sync/singleflight"
)

// Store is what the controller reads from.
type Store interface {
	ListServers() ([]models.Server, error)
	LoadAppSettings() (models.AppSettings, error)
}

// Status is a point-in-time view of discovery.
type Status struct {
	MCPDirectoryEnabled bool   `json:"mcpDirectoryEnabled"`
	MirrorDir           string `json:"mirrorDir"`
	HTTPServerRunning   bool   `json:"httpServerRunning"`
	Port                uint16 `json:"port,omitempty"`
}

// Controller supervises the mirror and the endpoint.
type Controller struct {
	store  Store
	mirror *mirror.Mirror
	start  func(port uint16, servers []models.Server) (*discovery.Handle, error)

	// endpoint is false for processes that only maintain the mirror.
	endpoint bool

	// reconcile serializes ApplySettings, Refresh and Startup.
	reconcile sync.Mutex

	mu     sync.RWMutex
	handle *discovery.Handle

	refresh singleflight.Group
}

// New creates a Controller that owns both the mirror and the endpoint.
func New(s Store, m *mirror.Mirror) *Controller {
	return &Controller{store: s, mirror: m, start: discovery.Start, endpoint: true}
}

// NewMirrorOnly creates a Controller that keeps the mirror current and never
// binds the endpoint. One-shot CLI commands use it so that the endpoint stays
// with the daemon.
func NewMirrorOnly(s Store, m *mirror.Mirror) *Controller {
	return &Controller{store: s, mirror: m, start: discovery.Start}
}

// ApplySettings reconciles the mirror and endpoint after discovery settings
// change from prev to next. The next settings must already be persisted.
func (c *Controller) ApplySettings(ctx context.Context, prev, next models.DiscoverySettings) error {
	servers, err := c.store.ListServers()
	if err != nil {
		return fmt.Errorf("load servers: %w", err)
	}

	c.reconcile.Lock()
	defer c.reconcile.Unlock()

	var errs []error
	switch {
	case next.MCPDirectoryEnabled:
		if err := c.mirror.WriteAll(servers); err != nil {
			errs = append(errs, fmt.Errorf("write mirror: %w", err))
		}
	case prev.MCPDirectoryEnabled:
		if err := c.mirror.Clear(); err != nil {
			errs = append(errs, fmt.Errorf("clear mirror: %w", err))
		}
	}

	errs = append(errs, c.reconcileEndpoint(ctx, next, servers))
	return errors.Join(errs...)
}

// reconcileEndpoint makes the running endpoint match d. A running endpoint
// on the right port gets the new server list.
func (c *Controller) reconcileEndpoint(ctx context.Context, d models.DiscoverySettings, servers []models.Server) error {
	if !c.endpoint {
		return nil
	}
	running := c.current()
	switch {
	case !d.HTTPServerEnabled:
		if running != nil {
			return c.stop(ctx)
		}
	case running == nil:
		return c.launch(d.HTTPServerPort, servers)
	case running.Port() != d.HTTPServerPort:
		if err := c.stop(ctx); err != nil {
			return err
		}
		return c.launch(d.HTTPServerPort, servers)
	default:
		running.UpdateServers(servers)
	}
	return nil
}

// Refresh rewrites the mirror when it is enabled and brings the endpoint in
// line with the persisted settings: it is started, stopped or moved as
// needed, and otherwise given the current server list. Concurrent calls
// share one refresh.
func (c *Controller) Refresh(ctx context.Context) error {
	_, err, _ := c.refresh.Do("refresh", func() (any, error) {
		return nil, c.doRefresh(ctx)
	})
	return err
}

func (c *Controller) doRefresh(ctx context.Context) error {
	settings, err := c.store.LoadAppSettings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	servers, err := c.store.ListServers()
	if err != nil {
		return fmt.Errorf("load servers: %w", err)
	}

	c.reconcile.Lock()
	defer c.reconcile.Unlock()

	var errs []error
	if settings.Discovery.MCPDirectoryEnabled {
		if err := c.mirror.WriteAll(servers); err != nil {
			errs = append(errs, fmt.Errorf("write mirror: %w", err))
		}
	}

	errs = append(errs, c.reconcileEndpoint(ctx, settings.Discovery, servers))
	return errors.Join(errs...)
}

// Startup brings discovery up from persisted settings. A failure to start
// the endpoint is logged and does not fail startup.
func (c *Controller) Startup(ctx context.Context) error {
	settings, err := c.store.LoadAppSettings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	d := settings.Discovery
	if !d.MCPDirectoryEnabled && !d.HTTPServerEnabled {
		return nil
	}

	servers, err := c.store.ListServers()
	if err != nil {
		return fmt.Errorf("load servers: %w", err)
	}

	c.reconcile.Lock()
	defer c.reconcile.Unlock()

	if d.MCPDirectoryEnabled {
		if err := c.mirror.WriteAll(servers); err != nil {
			return fmt.Errorf("write mirror: %w", err)
		}
	}
	if c.endpoint && d.HTTPServerEnabled && c.current() == nil {
		if err := c.launch(d.HTTPServerPort, servers); err != nil {
			logging.Error("Lifecycle", err, "Discovery server not started, will retry on next refresh")
		}
	}
	return nil
}

// Status reports the mirror setting and whether the endpoint is running.
func (c *Controller) Status() Status {
	st := Status{MirrorDir: c.mirror.Dir}
	if settings, err := c.store.LoadAppSettings(); err != nil {
		logging.Error("Lifecycle", err, "Failed to load settings for status")
	} else {
		st.MCPDirectoryEnabled = settings.Discovery.MCPDirectoryEnabled
	}
	if h := c.current(); h != nil {
		st.HTTPServerRunning = true
		st.Port = h.Port()
	}
	return st
}

// Shutdown stops the endpoint if it is running.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.reconcile.Lock()
	defer c.reconcile.Unlock()
	if c.current() == nil {
		return nil
	}
	return c.stop(ctx)
}

func (c *Controller) current() *discovery.Handle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handle
}

// launch binds a new endpoint and stores its handle. The slot lock is not
// held during the bind.
func (c *Controller) launch(port uint16, servers []models.Server) error {
	h, err := c.start(port, servers)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.handle = h
	c.mu.Unlock()
	return nil
}

// stop clears the slot, then shuts the old endpoint down outside the lock.
func (c *Controller) stop(ctx context.Context) error {
	c.mu.Lock()
	h := c.handle
	c.handle = nil
	c.mu.Unlock()

	if h == nil {
		return nil
	}
	if err := h.Shutdown(ctx); err != nil {
		return fmt.Errorf("stop discovery server: %w", err)
	}
	return nil
}
