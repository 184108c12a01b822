// Package backup copies client config files aside before they are rewritten.
package backup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrSourceMissing indicates the file to back up is not a regular file.
var ErrSourceMissing = errors.New("backup source does not exist")

const stampLayout = "20060102_150405"

// Manager writes timestamped copies into Dir.
type Manager struct {
	Dir string
	now func() time.Time
}

// NewManager returns a Manager writing into dir.
func NewManager(dir string) *Manager {
	return &Manager{Dir: dir, now: time.Now}
}

// Backup copies path to <Dir>/<basename>_<UTC yyyymmdd_HHMMSS>.backup and
// returns the path of the copy.
func (m *Manager) Backup(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s: %w", path, ErrSourceMissing)
	}
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	base := fmt.Sprintf("%s_%s", filepath.Base(path), m.now().UTC().Format(stampLayout))
	dst, dstPath, err := m.create(base)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return "", fmt.Errorf("copy backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dstPath)
		return "", fmt.Errorf("close backup: %w", err)
	}
	return dstPath, nil
}

// create opens a new backup file, adding a counter when two backups of the
// same file land in the same second.
func (m *Manager) create(base string) (*os.File, string, error) {
	for i := 0; i < 1000; i++ {
		name := base + ".backup"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.backup", base, i)
		}
		p := filepath.Join(m.Dir, name)
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("create backup file: %w", err)
		}
		return f, p, nil
	}
	return nil, "", fmt.Errorf("create backup file: too many backups named %s", base)
}

// Remove deletes backup files. Missing files are ignored; only files inside
// Dir are removed.
func (m *Manager) Remove(paths ...string) error {
	var errs []error
	dir := filepath.Clean(m.Dir) + string(filepath.Separator)
	for _, p := range paths {
		if !strings.HasPrefix(filepath.Clean(p), dir) {
			errs = append(errs, fmt.Errorf("refusing to remove %s outside %s", p, m.Dir))
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
