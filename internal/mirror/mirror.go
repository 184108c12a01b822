// Package mirror keeps $HOME/.mcp in step with the server registry, one
// Markdown file per server.
//
// The mirror owns only regular files named mcp-hub-*.md. Anything else in
// the directory is never read, moved or removed.
package mirror

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fentz26/mcphub/internal/logging"
	"github.com/fentz26/mcphub/internal/models"
	"github.com/fentz26/mcphub/internal/naming"
)

const (
	// DirName is the mirror directory under the user's home.
	DirName = ".mcp"

	ownedPrefix = "mcp-hub-"
	ownedSuffix = ".md"
)

// Mirror writes server documents into Dir.
type Mirror struct {
	Dir string
}

// New returns a Mirror rooted at <home>/.mcp.
func New(home string) *Mirror {
	return &Mirror{Dir: filepath.Join(home, DirName)}
}

// NewForUser returns a Mirror under the current user's home directory.
func NewForUser() (*Mirror, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return New(home), nil
}

// FileName is the mirror file name for a server name.
func FileName(serverName string) string {
	return ownedPrefix + naming.Sanitize(serverName) + ownedSuffix
}

func isOwned(name string) bool {
	return strings.HasPrefix(name, ownedPrefix) && strings.HasSuffix(name, ownedSuffix)
}

// WriteAll writes one document per server, then removes owned files that no
// longer correspond to a server. Stale files are only removed once every
// write has succeeded.
func (m *Mirror) WriteAll(servers []models.Server) error {
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return fmt.Errorf("create mirror directory: %w", err)
	}

	expected := make(map[string]bool, len(servers))
	for _, srv := range servers {
		name := FileName(srv.Name)
		if expected[name] {
			logging.Warn("Mirror", "Server %q collides with another server as %s, skipping", srv.Name, name)
			continue
		}
		expected[name] = true

		doc, err := Render(srv)
		if err != nil {
			return fmt.Errorf("render %s: %w", srv.Name, err)
		}
		if err := os.WriteFile(filepath.Join(m.Dir, name), doc, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	removed, err := m.removeOwned(func(name string) bool { return !expected[name] })
	if err != nil {
		return err
	}
	logging.Info("Mirror", "Wrote %d servers to %s (%d stale removed)", len(expected), m.Dir, removed)
	return nil
}

// Clear removes every owned file. The directory itself is left in place.
func (m *Mirror) Clear() error {
	removed, err := m.removeOwned(func(string) bool { return true })
	if err != nil {
		return err
	}
	if removed > 0 {
		logging.Info("Mirror", "Cleared %d files from %s", removed, m.Dir)
	}
	return nil
}

// Files lists the owned files currently in the directory.
func (m *Mirror) Files() ([]string, error) {
	entries, err := os.ReadDir(m.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mirror directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && isOwned(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (m *Mirror) removeOwned(match func(name string) bool) (int, error) {
	names, err := m.Files()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range names {
		if !match(name) {
			continue
		}
		if err := os.Remove(filepath.Join(m.Dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}
