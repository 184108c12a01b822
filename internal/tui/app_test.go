package tui

import (
	"context"
	"errors"
	"slices"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fentz26/mcphub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toggleCall struct {
	instanceID string
	serverID   string
	enabled    bool
}

type fakeBackend struct {
	servers   []models.Server
	instances []models.ClientInstance
	clients   []models.DetectedClient

	toggles   []toggleCall
	synced    []string
	syncedAll bool
	refreshed bool
	syncErr   error
}

func (f *fakeBackend) ListServers() ([]models.Server, error) { return f.servers, nil }

func (f *fakeBackend) ListInstances() ([]models.ClientInstance, error) {
	out := make([]models.ClientInstance, len(f.instances))
	for i, inst := range f.instances {
		inst.EnabledServers = slices.Clone(inst.EnabledServers)
		out[i] = inst
	}
	return out, nil
}

func (f *fakeBackend) DetectClients() []models.DetectedClient { return f.clients }

func (f *fakeBackend) SetServerEnabled(instanceID, serverID string, enabled bool) error {
	f.toggles = append(f.toggles, toggleCall{instanceID, serverID, enabled})
	for i := range f.instances {
		if f.instances[i].ID != instanceID {
			continue
		}
		ids := slices.DeleteFunc(f.instances[i].EnabledServers, func(id string) bool { return id == serverID })
		if enabled {
			ids = append(ids, serverID)
		}
		f.instances[i].EnabledServers = ids
	}
	return nil
}

func (f *fakeBackend) SyncInstance(ctx context.Context, instanceID string) (string, error) {
	if f.syncErr != nil {
		return "", f.syncErr
	}
	f.synced = append(f.synced, instanceID)
	return "/tmp/" + instanceID + ".json", nil
}

func (f *fakeBackend) SyncAll(ctx context.Context) ([]string, error) {
	f.syncedAll = true
	return []string{"/tmp/a.json", "/tmp/b.json"}, nil
}

func (f *fakeBackend) CheckAllHealth(ctx context.Context) ([]models.ServerHealth, error) {
	out := make([]models.ServerHealth, len(f.servers))
	for i, s := range f.servers {
		out[i] = models.ServerHealth{ServerID: s.ID, Status: models.HealthHealthy}
	}
	return out, nil
}

func (f *fakeBackend) RefreshDiscovery(ctx context.Context) error {
	f.refreshed = true
	return nil
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		servers: []models.Server{
			{ID: "s1", Name: "github", Command: "npx", Args: []string{"-y", "server-github"}},
			{ID: "s2", Name: "filesystem", Command: "npx"},
		},
		instances: []models.ClientInstance{
			{ID: "i1", Name: "Work Cursor", ClientKind: models.ClientKind("cursor")},
			{ID: "i2", Name: "Claude", ClientKind: models.ClientKind("claude-desktop"), IsDefault: true},
		},
		clients: []models.DetectedClient{
			{ClientKind: models.ClientKind("cursor"), DisplayName: "Cursor", ConfigPath: "/home/u/.cursor/mcp.json", HasConfig: true},
		},
	}
}

// runCmd executes a command synchronously, flattening batches.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// deliver runs cmd and feeds every resulting message back into the app
// until no more work is produced.
func deliver(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	queue := runCmd(cmd)
	for i := 0; len(queue) > 0; i++ {
		require.Less(t, i, 50, "message loop did not settle")
		msg := queue[0]
		queue = queue[1:]
		_, next := a.Update(msg)
		queue = append(queue, runCmd(next)...)
	}
}

func loadedApp(t *testing.T, backend *fakeBackend) *App {
	t.Helper()
	a := New(backend, nil)
	deliver(t, a, a.Init())
	return a
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, a *App, k string) {
	t.Helper()
	_, cmd := a.Update(key(k))
	deliver(t, a, cmd)
}

func TestApp_LoadFocusesDefaultInstance(t *testing.T) {
	a := loadedApp(t, newFakeBackend())

	assert.Len(t, a.servers, 2)
	require.NotNil(t, a.focusedInstance())
	assert.Equal(t, "i2", a.focusedInstance().ID)
	assert.Equal(t, 1, a.instanceIdx)
}

func TestApp_TabCyclesModesAndDetects(t *testing.T) {
	a := loadedApp(t, newFakeBackend())
	require.Equal(t, ModeServers, a.mode)

	press(t, a, "tab")
	assert.Equal(t, ModeInstances, a.mode)

	press(t, a, "tab")
	assert.Equal(t, ModeClients, a.mode)
	assert.Len(t, a.clients, 1)

	press(t, a, "tab")
	assert.Equal(t, ModeServers, a.mode)
}

func TestApp_SpaceTogglesOnFocusedInstance(t *testing.T) {
	backend := newFakeBackend()
	a := loadedApp(t, backend)

	press(t, a, "space")
	require.Len(t, backend.toggles, 1)
	assert.Equal(t, toggleCall{"i2", "s1", true}, backend.toggles[0])
	assert.Contains(t, a.message, "Enabled github on Claude")
	assert.Equal(t, []string{"s1"}, a.focusedInstance().EnabledServers)

	press(t, a, "space")
	require.Len(t, backend.toggles, 2)
	assert.Equal(t, toggleCall{"i2", "s1", false}, backend.toggles[1])
}

func TestApp_MovingInInstancesChangesFocus(t *testing.T) {
	backend := newFakeBackend()
	a := loadedApp(t, backend)

	press(t, a, "tab")
	press(t, a, "k")
	assert.Equal(t, "i1", a.focusedID)

	press(t, a, "s")
	assert.Equal(t, []string{"i1"}, backend.synced)
	assert.Contains(t, a.message, "Synced Work Cursor")
}

func TestApp_SyncErrorShown(t *testing.T) {
	backend := newFakeBackend()
	backend.syncErr = errors.New("disk full")
	a := loadedApp(t, backend)

	press(t, a, "s")
	assert.Equal(t, "Error: disk full", a.message)
}

func TestApp_ToggleWithoutInstance(t *testing.T) {
	backend := newFakeBackend()
	backend.instances = nil
	a := loadedApp(t, backend)

	press(t, a, "space")
	assert.Empty(t, backend.toggles)
	assert.Contains(t, a.message, "no client instance")
}

func TestApp_CommandBar(t *testing.T) {
	backend := newFakeBackend()
	a := loadedApp(t, backend)

	a.cmdbar.Focus()
	a.cmdbar.SetValue("enable filesystem")
	press(t, a, "enter")
	assert.False(t, a.cmdbar.Focused())
	require.Len(t, backend.toggles, 1)
	assert.Equal(t, toggleCall{"i2", "s2", true}, backend.toggles[0])

	a.cmdbar.Focus()
	a.cmdbar.SetValue("sync all")
	press(t, a, "enter")
	assert.True(t, backend.syncedAll)
	assert.Contains(t, a.message, "Synced 2 instances")

	a.cmdbar.Focus()
	a.cmdbar.SetValue("health")
	press(t, a, "enter")
	assert.Equal(t, models.HealthHealthy, a.health["s1"].Status)
	assert.Contains(t, a.message, "2 of 2 servers healthy")

	a.cmdbar.Focus()
	a.cmdbar.SetValue("refresh")
	press(t, a, "enter")
	assert.True(t, backend.refreshed)
}

func TestApp_CommandBarErrors(t *testing.T) {
	backend := newFakeBackend()
	a := loadedApp(t, backend)

	a.cmdbar.Focus()
	a.cmdbar.SetValue("enable nope")
	press(t, a, "enter")
	assert.Empty(t, backend.toggles)
	assert.Contains(t, a.message, `no server named "nope"`)

	a.cmdbar.Focus()
	a.cmdbar.SetValue("launch")
	press(t, a, "enter")
	assert.Contains(t, a.message, "unknown command")
}

func TestApp_CommandBarTabCompletes(t *testing.T) {
	a := loadedApp(t, newFakeBackend())

	a.cmdbar.Focus()
	a.cmdbar.SetValue("dis")
	a.suggestions.Update(a.cmdbar.Value())
	press(t, a, "tab")
	assert.Equal(t, "disable ", a.cmdbar.Value())
	assert.Equal(t, ModeServers, a.mode)

	press(t, a, "esc")
	assert.False(t, a.cmdbar.Focused())
	assert.False(t, a.suggestions.IsVisible())
}

func TestApp_ViewRenders(t *testing.T) {
	a := loadedApp(t, newFakeBackend())
	_, _ = a.Update(tea.WindowSizeMsg{Width: 120, Height: 30})

	out := a.View()
	assert.Contains(t, out, "MCP HUB")
	assert.Contains(t, out, "github")
	assert.Contains(t, out, "▸ Claude")
}
