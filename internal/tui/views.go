package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/mcphub/internal/models"
)

var (
	enabledStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
)

// renderPanel returns the lines of the active panel and the index of the
// selected line, or -1 when nothing is selectable.
func (a *App) renderPanel() ([]string, int) {
	if a.loading && a.servers == nil && a.instances == nil {
		return []string{"", "  Loading..."}, -1
	}
	switch a.mode {
	case ModeInstances:
		return a.renderInstances()
	case ModeClients:
		return a.renderClients()
	default:
		return a.renderServers()
	}
}

func (a *App) renderServers() ([]string, int) {
	if len(a.servers) == 0 {
		return []string{
			"",
			"  No servers yet.",
			"  " + helpStyle.Render("Add one with: mcphub server add <name> -- <command> [args...]"),
		}, -1
	}

	var enabled []string
	if inst := a.focusedInstance(); inst != nil {
		enabled = inst.EnabledServers
	}

	lines := make([]string, 0, len(a.servers))
	for i, srv := range a.servers {
		check := mutedStyle.Render("[ ]")
		plainCheck := "[ ]"
		if slices.Contains(enabled, srv.ID) {
			check = enabledStyle.Render("[x]")
			plainCheck = "[x]"
		}
		command := strings.TrimSpace(srv.Command + " " + strings.Join(srv.Args, " "))
		if len(command) > 48 {
			command = command[:45] + "..."
		}

		if i == a.serverIdx {
			lines = append(lines, selectedStyle.Render(fmt.Sprintf("▶ %s %s %-24s %s", plainCheck, healthIcon(a.health[srv.ID].Status, false), srv.Name, command)))
		} else {
			lines = append(lines, itemStyle.Render(fmt.Sprintf("%s %s %-24s %s", check, healthIcon(a.health[srv.ID].Status, true), srv.Name, mutedStyle.Render(command))))
		}
	}

	sel := a.servers[a.serverIdx]
	if sel.Description != "" {
		lines = append(lines, "", "  "+helpStyle.Render(sel.Description))
	}
	if h, ok := a.health[sel.ID]; ok && h.ErrorMessage != "" {
		lines = append(lines, "  "+lipgloss.NewStyle().Foreground(errorColor).Render(h.ErrorMessage))
	}
	return lines, a.serverIdx
}

func (a *App) renderInstances() ([]string, int) {
	if len(a.instances) == 0 {
		return []string{
			"",
			"  No client instances yet.",
			"  " + helpStyle.Render("Add one with: mcphub instance add <name> <client>"),
		}, -1
	}

	lines := make([]string, 0, len(a.instances)+2)
	for _, inst := range a.instances {
		star := " "
		if inst.IsDefault {
			star = "★"
		}
		synced := "never synced"
		if inst.LastSynced != nil {
			synced = "synced " + inst.LastSynced.Local().Format("2006-01-02 15:04")
		}
		row := fmt.Sprintf("%s %-20s %-18s %2d enabled  %s",
			star, inst.Name, inst.ClientKind.DisplayName(), len(inst.EnabledServers), synced)

		if inst.ID == a.focusedID {
			lines = append(lines, selectedStyle.Render("▶ "+row))
		} else {
			lines = append(lines, itemStyle.Render(row))
		}
	}

	if inst := a.focusedInstance(); inst != nil {
		lines = append(lines, "", "  "+mutedStyle.Render("Config: "+inst.ConfigPath))
	}
	return lines, a.instanceIdx
}

func (a *App) renderClients() ([]string, int) {
	if len(a.clients) == 0 {
		return []string{
			"",
			"  No installed clients detected.",
			"  " + helpStyle.Render("Type: detect to scan again"),
		}, -1
	}

	kinds := make(map[models.ClientKind]bool, len(a.instances))
	for _, inst := range a.instances {
		kinds[inst.ClientKind] = true
	}

	lines := make([]string, 0, len(a.clients)+2)
	for i, c := range a.clients {
		icon := mutedStyle.Render("○")
		if c.HasConfig {
			icon = onlineStyle.Render("●")
		}
		tracked := ""
		if kinds[c.ClientKind] {
			tracked = " (tracked)"
		}

		if i == a.clientIdx {
			lines = append(lines, selectedStyle.Render(fmt.Sprintf("▶ %s%s", c.DisplayName, tracked)))
			lines = append(lines, "      "+mutedStyle.Render(c.ConfigPath))
		} else {
			lines = append(lines, itemStyle.Render(fmt.Sprintf("%s %s%s", icon, c.DisplayName, mutedStyle.Render(tracked))))
		}
	}
	return lines, a.clientIdx
}

func healthIcon(s models.HealthStatus, styled bool) string {
	icon := "·"
	style := mutedStyle
	switch s {
	case models.HealthHealthy:
		icon, style = "●", onlineStyle
	case models.HealthError:
		icon, style = "✗", offlineStyle
	case models.HealthUnknown:
		icon, style = "?", lipgloss.NewStyle().Foreground(warningColor)
	}
	if !styled {
		return icon
	}
	return style.Render(icon)
}
