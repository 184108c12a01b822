// Package codec reads and writes the mcpServers JSON document that client
// applications load their server list from.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fentz26/mcphub/internal/models"
	"github.com/google/uuid"
)

// ServersKey is the top-level key holding the server map.
const ServersKey = "mcpServers"

var (
	// ErrParse indicates the file is not valid JSON of the expected shape.
	ErrParse = errors.New("invalid config file")

	// ErrNotAnObject indicates the file's root JSON value is not an object.
	ErrNotAnObject = errors.New("config root is not a JSON object")
)

// Entry is the on-disk form of one server.
type Entry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

// File is the canonical document written for dedicated config files.
type File struct {
	MCPServers map[string]Entry `json:"mcpServers"`
}

// EntryFromServer converts a server to its on-disk entry.
func EntryFromServer(s models.Server) Entry {
	args := s.Args
	if args == nil {
		args = []string{}
	}
	e := Entry{Command: s.Command, Args: append([]string(nil), args...)}
	if len(s.Env) > 0 {
		e.Env = make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			e.Env[k] = v
		}
	}
	return e
}

// WriteFull replaces the whole file with {"mcpServers": servers}.
func WriteFull(path string, servers map[string]Entry) error {
	if servers == nil {
		servers = map[string]Entry{}
	}
	data, err := marshal(File{MCPServers: servers})
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// WritePreserving replaces only the mcpServers key of an existing JSON
// object, leaving every other top-level value byte-for-byte intact.
func WritePreserving(path string, servers map[string]Entry) error {
	root := map[string]json.RawMessage{}

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(existing)) > 0 {
		if err := decodeObject(existing, &root); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	if servers == nil {
		servers = map[string]Entry{}
	}
	encoded, err := encode(servers, "")
	if err != nil {
		return fmt.Errorf("encode servers: %w", err)
	}
	root[ServersKey] = bytes.TrimRight(encoded, "\n")

	data, err := marshal(root)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// Read returns the server map of a config file. Absent or empty files and
// files without the key yield an empty map.
func Read(path string) (map[string]Entry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]Entry{}, nil
	}

	root := map[string]json.RawMessage{}
	if err := decodeObject(data, &root); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	servers := map[string]Entry{}
	raw, ok := root[ServersKey]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return servers, nil
	}
	if err := json.Unmarshal(raw, &servers); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrParse, err)
	}
	return servers, nil
}

// ImportFrom reads a config file and builds one fresh server per entry,
// marked as imported from path. Entries are returned in key order.
func ImportFrom(path string) ([]models.Server, error) {
	entries, err := Read(path)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	servers := make([]models.Server, 0, len(names))
	for _, name := range names {
		e := entries[name]
		srv := models.Server{
			ID:      uuid.New().String(),
			Name:    name,
			Command: e.Command,
			Args:    e.Args,
			Env:     e.Env,
			Tags:    []string{},
			Source:  &models.ServerSource{Kind: models.SourceImported, URL: path},
		}
		if srv.Args == nil {
			srv.Args = []string{}
		}
		if srv.Env == nil {
			srv.Env = map[string]string{}
		}
		servers = append(servers, srv)
	}
	return servers, nil
}

func decodeObject(data []byte, root *map[string]json.RawMessage) error {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	if _, ok := probe.(map[string]any); !ok {
		return ErrNotAnObject
	}
	if err := json.Unmarshal(data, root); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nil
}

func marshal(v any) ([]byte, error) {
	data, err := encode(v, "  ")
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// encode writes v as JSON without HTML escaping, so '<', '>' and '&' in
// args and preserved values stay as written. The result ends in a newline.
func encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFile writes through a temp file and rename so readers never see a
// partially written config.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
