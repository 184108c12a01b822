package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Suggestions provides prefix completion for the command bar
type Suggestions struct {
	commands    []SuggestionItem
	servers     []string
	filtered    []SuggestionItem
	selectedIdx int
	visible     bool
}

// SuggestionItem represents a single completion
type SuggestionItem struct {
	Text        string
	Description string
	Type        string // "command" or "server"
}

var commandSuggestions = []SuggestionItem{
	{Text: "sync", Description: "Sync the focused instance", Type: "command"},
	{Text: "sync all", Description: "Sync every instance", Type: "command"},
	{Text: "enable", Description: "Enable a server on the focused instance", Type: "command"},
	{Text: "disable", Description: "Disable a server on the focused instance", Type: "command"},
	{Text: "health", Description: "Check every server", Type: "command"},
	{Text: "refresh", Description: "Reload data and rewrite discovery", Type: "command"},
	{Text: "detect", Description: "Scan for installed clients", Type: "command"},
	{Text: "quit", Description: "Leave the dashboard", Type: "command"},
}

// NewSuggestions creates a new suggestions handler
func NewSuggestions() *Suggestions {
	return &Suggestions{commands: commandSuggestions}
}

// SetServers sets the names offered after enable and disable.
func (s *Suggestions) SetServers(names []string) {
	s.servers = names
}

// Update recomputes the matches for the current input.
func (s *Suggestions) Update(input string) {
	if strings.TrimSpace(input) == "" {
		s.visible = false
		s.filtered = nil
		s.selectedIdx = 0
		return
	}

	lower := strings.ToLower(strings.TrimLeft(input, " "))
	var items []SuggestionItem

	if verb, rest, ok := strings.Cut(lower, " "); ok && (verb == "enable" || verb == "disable") {
		for _, name := range s.servers {
			if strings.HasPrefix(strings.ToLower(name), rest) {
				items = append(items, SuggestionItem{
					Text:        verb + " " + name,
					Description: "Server",
					Type:        "server",
				})
			}
		}
	} else {
		for _, item := range s.commands {
			if strings.HasPrefix(item.Text, lower) && item.Text != lower {
				items = append(items, item)
			}
		}
	}

	s.filtered = items
	s.visible = len(items) > 0
	if s.selectedIdx >= len(items) {
		s.selectedIdx = 0
	}
}

// Next moves to the next suggestion
func (s *Suggestions) Next() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx = (s.selectedIdx + 1) % len(s.filtered)
}

// Prev moves to the previous suggestion
func (s *Suggestions) Prev() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx--
	if s.selectedIdx < 0 {
		s.selectedIdx = len(s.filtered) - 1
	}
}

// Selected returns the currently selected suggestion
func (s *Suggestions) Selected() *SuggestionItem {
	if !s.visible || len(s.filtered) == 0 || s.selectedIdx >= len(s.filtered) {
		return nil
	}
	return &s.filtered[s.selectedIdx]
}

// IsVisible returns whether suggestions are currently visible
func (s *Suggestions) IsVisible() bool {
	return s.visible && len(s.filtered) > 0
}

// Render renders the suggestions dropdown
func (s *Suggestions) Render(width int) string {
	if !s.IsVisible() {
		return ""
	}

	var b strings.Builder

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(secondaryColor).
		Padding(0, 1)
	if width > 4 {
		boxStyle = boxStyle.Width(width - 4)
	}

	itemStyle := lipgloss.NewStyle().Foreground(fgColor)
	descStyle := lipgloss.NewStyle().Foreground(mutedColor).Italic(true)

	maxVisible := 5
	for i, item := range s.filtered {
		if i >= maxVisible {
			b.WriteString(descStyle.Render(fmt.Sprintf("  ... and %d more", len(s.filtered)-maxVisible)))
			break
		}
		var line string
		if i == s.selectedIdx {
			line = selectedStyle.Render("▶ "+item.Text) + " " + selectedStyle.Render(item.Description)
		} else {
			line = itemStyle.Render("  "+item.Text) + " " + descStyle.Render(item.Description)
		}
		b.WriteString(line + "\n")
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
