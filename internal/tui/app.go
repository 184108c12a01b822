// Package tui provides the interactive terminal dashboard for MCP Hub.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/mcphub/internal/models"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	successColor   = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	fgColor        = lipgloss.Color("#F9FAFB")
	cyanColor      = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	itemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	tabStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(fgColor).
			Background(secondaryColor).
			Bold(true).
			Padding(0, 1)

	onlineStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	offlineStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

// probeInterval is how often the header re-probes the discovery endpoint.
const probeInterval = 5 * time.Second

// App is the dashboard model.
type App struct {
	backend Backend
	prober  Prober

	servers   []models.Server
	instances []models.ClientInstance
	clients   []models.DetectedClient
	health    map[string]models.ServerHealth

	mode        Mode
	serverIdx   int
	instanceIdx int
	clientIdx   int
	// focusedID is the instance that toggles and syncs apply to.
	focusedID string

	cmdbar      *CmdBarModel
	suggestions *Suggestions
	viewport    viewport.Model
	width       int
	height      int

	message        string
	loading        bool
	endpointOnline bool
}

// New creates the dashboard. prober may be nil, in which case the header
// does not show the endpoint state.
func New(backend Backend, prober Prober) *App {
	return &App{
		backend:     backend,
		prober:      prober,
		health:      make(map[string]models.ServerHealth),
		mode:        ModeServers,
		cmdbar:      NewCmdBarModel(),
		suggestions: NewSuggestions(),
		viewport:    viewport.New(80, 20),
		width:       80,
		height:      24,
	}
}

// Run starts the dashboard and blocks until it quits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.loadData(),
		a.probeEndpoint(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.cmdbar.Focused() {
			cmds = append(cmds, a.handleCmdBarKey(msg))
		} else {
			cmds = append(cmds, a.handleKey(msg))
		}
		a.syncViewport()
		return a, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.cmdbar.SetWidth(msg.Width)
		a.viewport.Width = msg.Width
		a.viewport.Height = max(3, msg.Height-9)

	case dataLoadedMsg:
		a.loading = false
		a.servers = msg.servers
		a.instances = msg.instances
		a.ensureFocus()
		a.clampSelection()
		names := make([]string, len(a.servers))
		for i, s := range a.servers {
			names[i] = s.Name
		}
		a.suggestions.SetServers(names)

	case clientsDetectedMsg:
		a.clients = msg.clients
		a.clampSelection()
		a.message = fmt.Sprintf("✓ Found %d installed clients", len(a.clients))

	case healthCheckedMsg:
		healthy := 0
		for _, h := range msg.results {
			a.health[h.ServerID] = h
			if h.Status == models.HealthHealthy {
				healthy++
			}
		}
		a.message = fmt.Sprintf("✓ %d of %d servers healthy", healthy, len(msg.results))

	case endpointStatusMsg:
		a.endpointOnline = msg.online
		// Schedule the next probe only after the current one is complete.
		cmds = append(cmds, a.tickCmd())

	case tickMsg:
		cmds = append(cmds, a.probeEndpoint())

	case commandResultMsg:
		a.message = msg.message
		cmds = append(cmds, a.loadData())

	case errMsg:
		a.loading = false
		a.message = "Error: " + msg.err.Error()
	}

	if a.cmdbar.Focused() {
		cmds = append(cmds, a.cmdbar.Update(msg))
	}
	a.syncViewport()
	return a, tea.Batch(cmds...)
}

// handleKey handles keys while the command bar is not focused.
func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "q":
		return tea.Quit

	case ":", "/":
		a.message = ""
		return tea.Batch(a.cmdbar.Focus(), textinput.Blink)

	case "esc":
		a.message = ""

	case "up", "k":
		a.moveSelection(-1)

	case "down", "j":
		a.moveSelection(1)

	case "tab":
		a.mode = a.mode.next()
		if a.mode == ModeClients && a.clients == nil {
			return a.detectClients()
		}

	case " ", "space":
		if a.mode == ModeServers {
			return a.toggleSelected()
		}

	case "s":
		return a.syncFocused()

	case "r":
		return a.refresh()
	}
	return nil
}

// handleCmdBarKey handles keys while the command bar is focused.
func (a *App) handleCmdBarKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit

	case "esc":
		a.cmdbar.Blur()
		a.suggestions.Update("")
		return nil

	case "up":
		a.suggestions.Prev()
		return nil

	case "down":
		a.suggestions.Next()
		return nil

	case "tab":
		if selected := a.suggestions.Selected(); selected != nil {
			value := selected.Text
			if value == "enable" || value == "disable" {
				value += " "
			}
			a.cmdbar.SetValue(value)
			a.suggestions.Update(value)
		}
		return nil

	case "enter":
		line := a.cmdbar.Submit()
		a.suggestions.Update("")
		if line == "" {
			return nil
		}
		c, err := parseCommand(line)
		if err != nil {
			a.message = "Error: " + err.Error()
			return nil
		}
		return a.runCommand(c)
	}

	cmd := a.cmdbar.Update(msg)
	a.suggestions.Update(a.cmdbar.Value())
	return cmd
}

func (a *App) runCommand(c command) tea.Cmd {
	switch c.kind {
	case cmdSync:
		return a.syncFocused()
	case cmdSyncAll:
		return a.syncAll()
	case cmdEnable, cmdDisable:
		srv := a.findServer(c.server)
		if srv == nil {
			a.message = fmt.Sprintf("Error: no server named %q", c.server)
			return nil
		}
		return a.setEnabled(*srv, c.kind == cmdEnable)
	case cmdHealth:
		return a.checkHealth()
	case cmdRefresh:
		return a.refresh()
	case cmdDetect:
		a.mode = ModeClients
		return a.detectClients()
	case cmdQuit:
		return tea.Quit
	}
	return nil
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.renderHeader() + "\n")
	b.WriteString(strings.Repeat("─", max(1, a.width)) + "\n")
	b.WriteString(a.renderTabs() + "\n")
	b.WriteString(a.viewport.View() + "\n")

	// Message bar
	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString(msgStyle.Render(a.message))
	}
	b.WriteString("\n")

	b.WriteString(a.cmdbar.View())
	if a.suggestions.IsVisible() {
		b.WriteString("\n")
		b.WriteString(a.suggestions.Render(a.width))
	}
	b.WriteString("\n")

	b.WriteString(statusBarStyle.Width(a.width).Render(a.statusLine()))
	return b.String()
}

func (a *App) renderHeader() string {
	header := titleStyle.Render("MCP HUB")
	if a.prober != nil {
		endpoint := offlineStyle.Render("○ ENDPOINT")
		if a.endpointOnline {
			endpoint = onlineStyle.Render("● ENDPOINT " + a.prober.BaseURL())
		}
		header += "  " + endpoint
	}
	counts := fmt.Sprintf("[%d servers · %d instances]", len(a.servers), len(a.instances))
	header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(counts)
	if inst := a.focusedInstance(); inst != nil {
		header += "  " + lipgloss.NewStyle().Foreground(warningColor).Render("▸ "+inst.Name)
	}
	return header
}

func (a *App) renderTabs() string {
	tabs := make([]string, 0, len(modeNames))
	for i, name := range modeNames {
		if Mode(i) == a.mode {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, tabStyle.Render(name))
		}
	}
	return " " + strings.Join(tabs, " ")
}

func (a *App) statusLine() string {
	if a.cmdbar.Focused() {
		return " Enter:run | Tab:complete | ↑↓:choose | Esc:cancel"
	}
	switch a.mode {
	case ModeServers:
		return fmt.Sprintf(" Servers: %d | ↑↓:nav | Space:toggle | s:sync | r:refresh | Tab:instances | ::command | q:quit", len(a.servers))
	case ModeInstances:
		return fmt.Sprintf(" Instances: %d | ↑↓:focus | s:sync | r:refresh | Tab:clients | ::command | q:quit", len(a.instances))
	default:
		return fmt.Sprintf(" Clients: %d | ↑↓:nav | r:refresh | Tab:servers | ::command | q:quit", len(a.clients))
	}
}

// syncViewport renders the active panel into the viewport and keeps the
// selected row visible.
func (a *App) syncViewport() {
	lines, selected := a.renderPanel()
	a.viewport.SetContent(strings.Join(lines, "\n"))
	if selected < 0 {
		a.viewport.GotoTop()
		return
	}
	if selected < a.viewport.YOffset {
		a.viewport.SetYOffset(selected)
	} else if selected >= a.viewport.YOffset+a.viewport.Height {
		a.viewport.SetYOffset(selected - a.viewport.Height + 1)
	}
}

func (a *App) moveSelection(delta int) {
	switch a.mode {
	case ModeServers:
		a.serverIdx = clamp(a.serverIdx+delta, len(a.servers))
	case ModeInstances:
		a.instanceIdx = clamp(a.instanceIdx+delta, len(a.instances))
		if len(a.instances) > 0 {
			a.focusedID = a.instances[a.instanceIdx].ID
		}
	case ModeClients:
		a.clientIdx = clamp(a.clientIdx+delta, len(a.clients))
	}
}

func (a *App) clampSelection() {
	a.serverIdx = clamp(a.serverIdx, len(a.servers))
	a.instanceIdx = clamp(a.instanceIdx, len(a.instances))
	a.clientIdx = clamp(a.clientIdx, len(a.clients))
}

// ensureFocus keeps the focused instance valid, preferring the default
// instance when the previous focus is gone.
func (a *App) ensureFocus() {
	for i, inst := range a.instances {
		if inst.ID == a.focusedID {
			a.instanceIdx = i
			return
		}
	}
	a.focusedID = ""
	for i, inst := range a.instances {
		if inst.IsDefault {
			a.focusedID = inst.ID
			a.instanceIdx = i
			return
		}
	}
	if len(a.instances) > 0 {
		a.focusedID = a.instances[0].ID
		a.instanceIdx = 0
	}
}

func (a *App) focusedInstance() *models.ClientInstance {
	for i := range a.instances {
		if a.instances[i].ID == a.focusedID {
			return &a.instances[i]
		}
	}
	return nil
}

// findServer resolves a server by exact ID, then by case-insensitive name.
func (a *App) findServer(ref string) *models.Server {
	for i := range a.servers {
		if a.servers[i].ID == ref {
			return &a.servers[i]
		}
	}
	for i := range a.servers {
		if strings.EqualFold(a.servers[i].Name, ref) {
			return &a.servers[i]
		}
	}
	return nil
}

func (a *App) loadData() tea.Cmd {
	a.loading = true
	backend := a.backend
	return func() tea.Msg {
		servers, err := backend.ListServers()
		if err != nil {
			return errMsg{err}
		}
		instances, err := backend.ListInstances()
		if err != nil {
			return errMsg{err}
		}
		return dataLoadedMsg{servers: servers, instances: instances}
	}
}

func (a *App) detectClients() tea.Cmd {
	backend := a.backend
	return func() tea.Msg {
		return clientsDetectedMsg{clients: backend.DetectClients()}
	}
}

func (a *App) probeEndpoint() tea.Cmd {
	if a.prober == nil {
		return nil
	}
	prober := a.prober
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return endpointStatusMsg{online: prober.Health(ctx) == nil}
	}
}

type tickMsg time.Time

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(probeInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// toggleSelected flips the selected server on the focused instance.
func (a *App) toggleSelected() tea.Cmd {
	if len(a.servers) == 0 {
		return nil
	}
	inst := a.focusedInstance()
	if inst == nil {
		a.message = "Error: no client instance to toggle on (add one with: mcphub instance add)"
		return nil
	}
	srv := a.servers[a.serverIdx]
	return a.setEnabled(srv, !slices.Contains(inst.EnabledServers, srv.ID))
}

func (a *App) setEnabled(srv models.Server, enabled bool) tea.Cmd {
	inst := a.focusedInstance()
	if inst == nil {
		a.message = "Error: no client instance is focused"
		return nil
	}
	backend := a.backend
	instID, instName := inst.ID, inst.Name
	return func() tea.Msg {
		if err := backend.SetServerEnabled(instID, srv.ID, enabled); err != nil {
			return errMsg{err}
		}
		verb := "Disabled"
		if enabled {
			verb = "Enabled"
		}
		return commandResultMsg{fmt.Sprintf("✓ %s %s on %s (press s to sync)", verb, srv.Name, instName)}
	}
}

func (a *App) syncFocused() tea.Cmd {
	inst := a.focusedInstance()
	if inst == nil {
		a.message = "Error: no client instance to sync"
		return nil
	}
	backend := a.backend
	instID, instName := inst.ID, inst.Name
	return func() tea.Msg {
		backupPath, err := backend.SyncInstance(context.Background(), instID)
		if err != nil {
			return errMsg{err}
		}
		if backupPath != "" {
			return commandResultMsg{fmt.Sprintf("✓ Synced %s (backup: %s)", instName, backupPath)}
		}
		return commandResultMsg{fmt.Sprintf("✓ Synced %s", instName)}
	}
}

func (a *App) syncAll() tea.Cmd {
	backend := a.backend
	return func() tea.Msg {
		paths, err := backend.SyncAll(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return commandResultMsg{fmt.Sprintf("✓ Synced %d instances", len(paths))}
	}
}

func (a *App) checkHealth() tea.Cmd {
	backend := a.backend
	a.message = "Checking servers..."
	return func() tea.Msg {
		results, err := backend.CheckAllHealth(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return healthCheckedMsg{results: results}
	}
}

// refresh rewrites discovery, then reloads the data and re-probes the endpoint.
func (a *App) refresh() tea.Cmd {
	backend := a.backend
	return tea.Batch(
		func() tea.Msg {
			if err := backend.RefreshDiscovery(context.Background()); err != nil {
				return errMsg{err}
			}
			return commandResultMsg{"✓ Refreshed"}
		},
		a.probeEndpoint(),
	)
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
