package tui

import (
	"context"

	"github.com/fentz26/mcphub/internal/models"
)

// Backend is the part of the command surface the dashboard drives.
// *service.Service satisfies it.
type Backend interface {
	ListServers() ([]models.Server, error)
	ListInstances() ([]models.ClientInstance, error)
	DetectClients() []models.DetectedClient
	SetServerEnabled(instanceID, serverID string, enabled bool) error
	SyncInstance(ctx context.Context, instanceID string) (string, error)
	SyncAll(ctx context.Context) ([]string, error)
	CheckAllHealth(ctx context.Context) ([]models.ServerHealth, error)
	RefreshDiscovery(ctx context.Context) error
}

// Prober reports whether a discovery endpoint answers.
// *discovery.Client satisfies it.
type Prober interface {
	Health(ctx context.Context) error
	BaseURL() string
}

// Mode selects the dashboard panel.
type Mode int

const (
	ModeServers Mode = iota
	ModeInstances
	ModeClients
)

var modeNames = []string{"SERVERS", "INSTANCES", "CLIENTS"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "?"
	}
	return modeNames[m]
}

// next cycles servers -> instances -> clients -> servers.
func (m Mode) next() Mode {
	return (m + 1) % Mode(len(modeNames))
}

type dataLoadedMsg struct {
	servers   []models.Server
	instances []models.ClientInstance
}

type clientsDetectedMsg struct {
	clients []models.DetectedClient
}

type endpointStatusMsg struct {
	online bool
}

type healthCheckedMsg struct {
	results []models.ServerHealth
}

type commandResultMsg struct {
	message string
}

type errMsg struct {
	err error
}
