// Package health checks whether a server's command can be launched.
package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/fentz26/mcphub/internal/credentials"
	"github.com/fentz26/mcphub/internal/logging"
	"github.com/fentz26/mcphub/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds one health check.
const DefaultTimeout = 5 * time.Second

// TimeoutMessage is reported when a check runs out of time.
const TimeoutMessage = "Health check timed out"

// Mode selects how a server is probed.
type Mode string

const (
	// ModeHandshake launches the server and performs an MCP initialize.
	ModeHandshake Mode = "handshake"
	// ModeVersion runs "<command> --version".
	ModeVersion Mode = "version"
)

// ParseMode maps a config string to a Mode. Empty means handshake.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeHandshake:
		return ModeHandshake, nil
	case ModeVersion:
		return ModeVersion, nil
	default:
		return "", fmt.Errorf("unknown health mode %q", s)
	}
}

// ClientVersion is reported to servers during the handshake.
var ClientVersion = "dev"

// Checker runs health checks.
type Checker struct {
	Timeout     time.Duration
	Mode        Mode
	Credentials credentials.Store

	now func() time.Time
}

// NewChecker returns a Checker. A zero timeout means DefaultTimeout.
func NewChecker(mode Mode, timeout time.Duration, creds credentials.Store) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if mode == "" {
		mode = ModeHandshake
	}
	return &Checker{Timeout: timeout, Mode: mode, Credentials: creds, now: time.Now}
}

// Check probes one server. Failures are reported in the result, never as an
// error.
func (c *Checker) Check(ctx context.Context, srv models.Server) models.ServerHealth {
	result := models.ServerHealth{ServerID: srv.ID, LastChecked: c.now().UTC()}

	path, err := exec.LookPath(srv.Command)
	if err != nil {
		result.Status = models.HealthError
		result.ErrorMessage = fmt.Sprintf("Failed to execute command: %v", err)
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	env := c.environ(srv)
	if c.Mode == ModeVersion {
		c.probeVersion(ctx, path, env, &result)
	} else {
		c.handshake(ctx, path, srv.Args, env, &result)
	}

	logging.Debug("Health", "%s: %s %s", srv.Name, result.Status, result.ErrorMessage)
	return result
}

func (c *Checker) handshake(ctx context.Context, path string, args, env []string, result *models.ServerHealth) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = env

	client := mcp.NewClient(&mcp.Implementation{Name: "mcp-hub-health", Version: ClientVersion}, nil)
	session, err := client.Connect(ctx, mcp.NewCommandTransport(cmd))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.Status = models.HealthError
			result.ErrorMessage = TimeoutMessage
			return
		}
		result.Status = models.HealthUnknown
		result.ErrorMessage = fmt.Sprintf("Handshake failed: %v", err)
		return
	}
	session.Close()
	result.Status = models.HealthHealthy
}

func (c *Checker) probeVersion(ctx context.Context, path string, env []string, result *models.ServerHealth) {
	cmd := exec.CommandContext(ctx, path, "--version")
	cmd.Env = env

	err := cmd.Run()
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.Status = models.HealthError
		result.ErrorMessage = TimeoutMessage
	case err == nil:
		result.Status = models.HealthHealthy
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.Status = models.HealthUnknown
			result.ErrorMessage = fmt.Sprintf("Command exited with code %d", exitErr.ExitCode())
			return
		}
		result.Status = models.HealthError
		result.ErrorMessage = fmt.Sprintf("Failed to execute command: %v", err)
	}
}

// environ is the process environment plus the server's env. Empty values
// are looked up in the credential store.
func (c *Checker) environ(srv models.Server) []string {
	env := os.Environ()
	for name, value := range srv.Env {
		if value == "" && c.Credentials != nil && c.Credentials.Available() {
			secret, ok, err := c.Credentials.Get(credentials.Key(srv.ID, name))
			if err != nil {
				logging.Warn("Health", "Credential lookup for %s of %s failed: %v", name, srv.Name, err)
			} else if ok {
				value = secret
			}
		}
		env = append(env, name+"="+value)
	}
	return env
}

// CheckAll checks servers with at most limit checks in flight. Results are
// in input order.
func (c *Checker) CheckAll(ctx context.Context, servers []models.Server, limit int) []models.ServerHealth {
	results := make([]models.ServerHealth, len(servers))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, srv := range servers {
		g.Go(func() error {
			results[i] = c.Check(gctx, srv)
			return nil
		})
	}
	g.Wait()
	return results
}
