// Package models defines the core domain types for MCP Hub.
package models

import "time"

// SourceKind records where a server definition came from.
type SourceKind string

const (
	SourceManual   SourceKind = "manual"
	SourceImported SourceKind = "imported"
	SourceRegistry SourceKind = "registry"
)

// ServerSource is the optional origin record of a server.
type ServerSource struct {
	Kind SourceKind `json:"sourceType"`
	URL  string     `json:"url,omitempty"`
}

// Server is a named command definition that clients launch as a tool process.
type Server struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Command     string            `json:"command"`
	Args        []string          `json:"args"`
	Env         map[string]string `json:"env"`
	Tags        []string          `json:"tags"`
	Source      *ServerSource     `json:"source,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Clone returns a deep copy of the server.
func (s Server) Clone() Server {
	c := s
	c.Args = append([]string(nil), s.Args...)
	c.Tags = append([]string(nil), s.Tags...)
	if s.Env != nil {
		c.Env = make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			c.Env[k] = v
		}
	}
	if s.Source != nil {
		src := *s.Source
		c.Source = &src
	}
	return c
}

// ClientInstance binds a subset of servers to one client's config file.
type ClientInstance struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	ClientKind     ClientKind `json:"clientType"`
	ConfigPath     string     `json:"configPath"`
	IsDefault      bool       `json:"isDefault"`
	EnabledServers []string   `json:"enabledServers"`
	LastSynced     *time.Time `json:"lastSynced,omitempty"`
	LastModified   *time.Time `json:"lastModified,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// ConfigBackup records a copy of a client config taken before a write.
type ConfigBackup struct {
	ID         string    `json:"id"`
	InstanceID string    `json:"instanceId"`
	BackupPath string    `json:"backupPath"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DetectedClient is a client application found on this machine.
type DetectedClient struct {
	ClientKind  ClientKind `json:"clientType"`
	DisplayName string     `json:"displayName"`
	ConfigPath  string     `json:"configPath"`
	HasConfig   bool       `json:"hasConfig"`
}

// HealthStatus is the outcome of a server health check.
type HealthStatus string

const (
	HealthHealthy HealthStatus = "healthy"
	HealthError   HealthStatus = "error"
	HealthUnknown HealthStatus = "unknown"
)

// ServerHealth is the result of checking one server.
type ServerHealth struct {
	ServerID     string       `json:"serverId"`
	Status       HealthStatus `json:"status"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	LastChecked  time.Time    `json:"lastChecked"`
}

// AuditEntry is one record of the action journal.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	SubjectID  string    `json:"subject_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
