package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	cmdBarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)
)

// CmdBarModel manages the command input bar
type CmdBarModel struct {
	input   textinput.Model
	focused bool
}

// NewCmdBarModel creates a new command bar
func NewCmdBarModel() *CmdBarModel {
	ti := textinput.New()
	ti.Placeholder = "sync | sync all | enable <server> | disable <server> | health | refresh | detect | quit"
	ti.CharLimit = 256
	ti.Width = 80
	ti.Prompt = ""
	return &CmdBarModel{input: ti}
}

// Focused reports whether keys go to the command bar.
func (m *CmdBarModel) Focused() bool { return m.focused }

// Focus focuses the command bar
func (m *CmdBarModel) Focus() tea.Cmd {
	m.focused = true
	return m.input.Focus()
}

// Blur unfocuses the command bar and clears it
func (m *CmdBarModel) Blur() {
	m.focused = false
	m.input.Blur()
	m.input.SetValue("")
}

// Submit returns the current input and blurs
func (m *CmdBarModel) Submit() string {
	val := strings.TrimSpace(m.input.Value())
	m.Blur()
	return val
}

// Value returns the text typed so far.
func (m *CmdBarModel) Value() string { return m.input.Value() }

// SetValue replaces the input, keeping the cursor at the end.
func (m *CmdBarModel) SetValue(v string) {
	m.input.SetValue(v)
	m.input.CursorEnd()
}

// SetWidth sizes the input to the terminal.
func (m *CmdBarModel) SetWidth(w int) {
	if w > 8 {
		m.input.Width = w - 8
	}
}

// Update forwards a message to the input.
func (m *CmdBarModel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// View renders the command bar
func (m *CmdBarModel) View() string {
	if m.focused {
		return cmdBarStyle.Render(promptStyle.Render(": ") + m.input.View())
	}
	return cmdBarStyle.BorderForeground(mutedColor).Render(helpStyle.Render("Press : to enter a command"))
}

type commandKind int

const (
	cmdSync commandKind = iota
	cmdSyncAll
	cmdEnable
	cmdDisable
	cmdHealth
	cmdRefresh
	cmdDetect
	cmdQuit
)

// command is a parsed command bar line.
type command struct {
	kind   commandKind
	server string
}

// parseCommand parses one command bar line.
func parseCommand(input string) (command, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return command{}, fmt.Errorf("empty command")
	}
	verb, args := strings.ToLower(parts[0]), parts[1:]

	switch verb {
	case "sync":
		if len(args) == 0 {
			return command{kind: cmdSync}, nil
		}
		if len(args) == 1 && strings.EqualFold(args[0], "all") {
			return command{kind: cmdSyncAll}, nil
		}
		return command{}, fmt.Errorf("usage: sync [all]")
	case "enable", "disable":
		if len(args) == 0 {
			return command{}, fmt.Errorf("usage: %s <server>", verb)
		}
		kind := cmdEnable
		if verb == "disable" {
			kind = cmdDisable
		}
		return command{kind: kind, server: strings.Join(args, " ")}, nil
	case "health":
		return command{kind: cmdHealth}, nil
	case "refresh":
		return command{kind: cmdRefresh}, nil
	case "detect":
		return command{kind: cmdDetect}, nil
	case "q", "quit", "exit":
		return command{kind: cmdQuit}, nil
	default:
		return command{}, fmt.Errorf("unknown command: %s (try: sync, enable, health, refresh, detect)", verb)
	}
}
