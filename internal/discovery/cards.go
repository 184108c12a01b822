package discovery

import (
	"time"

	"github.com/fentz26/mcphub/internal/models"
)

const (
	SchemaVersion    = "1.0"
	Provider         = "MCP Hub"
	IndexDescription = "MCP servers managed by MCP Hub"
)

// Transport tells a consumer how to launch a server.
type Transport struct {
	Type    string            `json:"type"`
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

// Card describes one server in the discovery index.
type Card struct {
	SchemaVersion string    `json:"schemaVersion"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Homepage      string    `json:"homepage,omitempty"`
	Icon          string    `json:"icon,omitempty"`
	Transport     Transport `json:"transport"`
	Tags          []string  `json:"tags"`
}

// Index is the document served at /.well-known/mcp.json.
type Index struct {
	SchemaVersion string `json:"schemaVersion"`
	Provider      string `json:"provider"`
	Description   string `json:"description,omitempty"`
	Servers       []Card `json:"servers"`
	UpdatedAt     string `json:"updatedAt"`
}

// CardFor builds the card for a server. Env values never leave the store,
// so the transport env is always empty.
func CardFor(srv models.Server) Card {
	args := srv.Args
	if args == nil {
		args = []string{}
	}
	tags := srv.Tags
	if tags == nil {
		tags = []string{}
	}
	return Card{
		SchemaVersion: SchemaVersion,
		Name:          srv.Name,
		Description:   srv.Description,
		Transport: Transport{
			Type:    "stdio",
			Command: srv.Command,
			Args:    args,
			Env:     map[string]string{},
		},
		Tags: tags,
	}
}

// BuildIndex builds the discovery index stamped with at.
func BuildIndex(servers []models.Server, at time.Time) Index {
	cards := make([]Card, 0, len(servers))
	for _, srv := range servers {
		cards = append(cards, CardFor(srv))
	}
	return Index{
		SchemaVersion: SchemaVersion,
		Provider:      Provider,
		Description:   IndexDescription,
		Servers:       cards,
		UpdatedAt:     at.UTC().Format(time.RFC3339),
	}
}
