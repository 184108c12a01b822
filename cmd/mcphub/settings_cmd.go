package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fentz26/mcphub/internal/discovery"
	"github.com/fentz26/mcphub/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change application settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings",
	Example: `  mcphub settings set --create-backups=false
  mcphub settings set --retention-days 7 --theme dark`,
	RunE: runSettingsSet,
}

var discoveryCmd = &cobra.Command{
	Use:   "discovery",
	Short: "Manage the ~/.mcp mirror and the HTTP discovery endpoint",
}

var discoveryStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show discovery status",
	RunE:  runDiscoveryStatus,
}

var discoveryEnableCmd = &cobra.Command{
	Use:       "enable <mirror|http>",
	Short:     "Enable the Markdown mirror or the HTTP endpoint",
	Args:      cobra.ExactValidArgs(1),
	ValidArgs: []string{"mirror", "http"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDiscovery(cmd, args[0], true)
	},
}

var discoveryDisableCmd = &cobra.Command{
	Use:       "disable <mirror|http>",
	Short:     "Disable the Markdown mirror or the HTTP endpoint",
	Args:      cobra.ExactValidArgs(1),
	ValidArgs: []string{"mirror", "http"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDiscovery(cmd, args[0], false)
	},
}

var discoveryPortCmd = &cobra.Command{
	Use:   "port <port>",
	Short: "Set the HTTP endpoint port",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiscoveryPort,
}

var discoveryRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rewrite the mirror from the registry",
	RunE:  runDiscoveryRefresh,
}

var discoveryCheckPortCmd = &cobra.Command{
	Use:   "check-port <port>",
	Short: "Check whether a loopback port is free",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiscoveryCheckPort,
}

var (
	settingsTheme     string
	settingsAutoStart bool
	settingsBackups   bool
	settingsRetention uint32
)

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	settingsShowCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	settingsSetCmd.Flags().StringVar(&settingsTheme, "theme", "", "Theme: light, dark or system")
	settingsSetCmd.Flags().BoolVar(&settingsAutoStart, "auto-start", false, "Start with the system")
	settingsSetCmd.Flags().BoolVar(&settingsBackups, "create-backups", true, "Back up client config files before each sync")
	settingsSetCmd.Flags().Uint32Var(&settingsRetention, "retention-days", 30, "Days to keep backups (0 keeps them forever)")

	discoveryCmd.AddCommand(discoveryStatusCmd, discoveryEnableCmd, discoveryDisableCmd, discoveryPortCmd, discoveryRefreshCmd, discoveryCheckPortCmd)
	discoveryStatusCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		s, err := a.svc.GetSettings()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(s)
		}
		t := newTable("SETTING", "VALUE")
		t.AppendRow(table.Row{"theme", string(s.Theme)})
		t.AppendRow(table.Row{"auto-start", yesNo(s.AutoStart)})
		t.AppendRow(table.Row{"create-backups", yesNo(s.CreateBackups)})
		t.AppendRow(table.Row{"retention-days", s.BackupRetentionDays})
		t.AppendRow(table.Row{"discovery.mirror", yesNo(s.Discovery.MCPDirectoryEnabled)})
		t.AppendRow(table.Row{"discovery.http", yesNo(s.Discovery.HTTPServerEnabled)})
		t.AppendRow(table.Row{"discovery.port", s.Discovery.HTTPServerPort})
		t.Render()
		return nil
	})
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.NFlag() == 0 {
		return fmt.Errorf("nothing to change, see `mcphub settings set --help`")
	}
	return withApp(func(a *app) error {
		s, err := a.svc.GetSettings()
		if err != nil {
			return err
		}
		if flags.Changed("theme") {
			switch theme := models.Theme(strings.ToLower(settingsTheme)); theme {
			case models.ThemeLight, models.ThemeDark, models.ThemeSystem:
				s.Theme = theme
			default:
				return fmt.Errorf("unknown theme %q", settingsTheme)
			}
		}
		if flags.Changed("auto-start") {
			s.AutoStart = settingsAutoStart
		}
		if flags.Changed("create-backups") {
			s.CreateBackups = settingsBackups
		}
		if flags.Changed("retention-days") {
			s.BackupRetentionDays = settingsRetention
		}
		if err := a.svc.SaveSettings(cmd.Context(), s); err != nil {
			return err
		}
		printSuccess("Settings saved")
		return nil
	})
}

func runDiscoveryStatus(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		ctx := cmd.Context()
		d, err := a.svc.GetDiscoverySettings()
		if err != nil {
			return err
		}
		st := a.svc.DiscoveryStatus()

		// The endpoint lives in the daemon, so probe it over HTTP.
		client := discovery.NewLocalClient(d.HTTPServerPort)
		running := client.Health(ctx) == nil
		served := -1
		if running {
			if idx, err := client.Index(ctx); err == nil {
				served = len(idx.Servers)
			}
		}

		if jsonOutput {
			return printJSON(map[string]any{
				"mcpDirectoryEnabled": d.MCPDirectoryEnabled,
				"mirrorDir":           st.MirrorDir,
				"httpServerEnabled":   d.HTTPServerEnabled,
				"httpServerPort":      d.HTTPServerPort,
				"httpServerRunning":   running,
			})
		}

		t := newTable("COMPONENT", "ENABLED", "STATE")
		mirrorState := text.FgHiBlack.Sprint("off")
		if d.MCPDirectoryEnabled {
			mirrorState = st.MirrorDir
		}
		t.AppendRow(table.Row{"mirror", yesNo(d.MCPDirectoryEnabled), mirrorState})

		httpState := text.FgRed.Sprint("not running")
		if running {
			httpState = text.FgGreen.Sprint("running at " + client.BaseURL())
			if served >= 0 {
				httpState += fmt.Sprintf(" (%d servers)", served)
			}
		} else if !d.HTTPServerEnabled {
			httpState = text.FgHiBlack.Sprint("off")
		}
		t.AppendRow(table.Row{fmt.Sprintf("http :%d", d.HTTPServerPort), yesNo(d.HTTPServerEnabled), httpState})
		t.Render()

		if d.HTTPServerEnabled && !running {
			printWarning("The endpoint is served by `mcphub daemon`; start it to publish the registry.")
		}
		return nil
	})
}

func setDiscovery(cmd *cobra.Command, target string, enabled bool) error {
	return withApp(func(a *app) error {
		d, err := a.svc.GetDiscoverySettings()
		if err != nil {
			return err
		}
		switch target {
		case "mirror":
			d.MCPDirectoryEnabled = enabled
		case "http":
			d.HTTPServerEnabled = enabled
		}
		if err := a.svc.UpdateDiscoverySettings(cmd.Context(), d); err != nil {
			return err
		}
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		printSuccess("Discovery %s %s", target, state)
		if target == "http" {
			fmt.Println("  A running daemon applies this on its next refresh.")
		}
		return nil
	})
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid port %q, expected 1-65535", s)
	}
	return uint16(n), nil
}

func runDiscoveryPort(cmd *cobra.Command, args []string) error {
	port, err := parsePort(args[0])
	if err != nil {
		return err
	}
	return withApp(func(a *app) error {
		d, err := a.svc.GetDiscoverySettings()
		if err != nil {
			return err
		}
		if d.HTTPServerPort != port && !a.svc.CheckPortAvailable(port) {
			printWarning("Port %d is in use right now", port)
		}
		d.HTTPServerPort = port
		if err := a.svc.UpdateDiscoverySettings(cmd.Context(), d); err != nil {
			return err
		}
		printSuccess("Discovery port set to %d", port)
		return nil
	})
}

func runDiscoveryRefresh(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		if err := a.svc.RefreshDiscovery(cmd.Context()); err != nil {
			return err
		}
		printSuccess("Discovery refreshed")
		return nil
	})
}

func runDiscoveryCheckPort(cmd *cobra.Command, args []string) error {
	port, err := parsePort(args[0])
	if err != nil {
		return err
	}
	return withApp(func(a *app) error {
		if a.svc.CheckPortAvailable(port) {
			printSuccess("Port %d is available", port)
			return nil
		}
		return fmt.Errorf("port %d is not available", port)
	})
}
