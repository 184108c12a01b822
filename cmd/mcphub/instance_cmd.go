package main

import (
	"fmt"
	"strings"

	"github.com/fentz26/mcphub/internal/clients"
	"github.com/fentz26/mcphub/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var instanceCmd = &cobra.Command{
	Use:   "instance",
	Short: "Manage client instances",
	Long:  `A client instance is one config file of one client application, such as the Cursor config in your home directory.`,
}

var instanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List client instances",
	RunE:  runInstanceList,
}

var instanceAddCmd = &cobra.Command{
	Use:   "add <name> <client>",
	Short: "Add a client instance",
	Long: `Add a client instance. Without --path the client's default config file is
used. Clients without a known location, such as "custom", need --path.`,
	Example: `  mcphub instance add "Cursor" cursor
  mcphub instance add "Work Zed" zed --path ~/work/.config/zed/settings.json`,
	Args: cobra.ExactArgs(2),
	RunE: runInstanceAdd,
}

var instanceRmCmd = &cobra.Command{
	Use:     "rm <instance>",
	Aliases: []string{"remove", "delete"},
	Short:   "Remove a client instance (its config file is left alone)",
	Args:    cobra.ExactArgs(1),
	RunE:    runInstanceRm,
}

var instanceDefaultCmd = &cobra.Command{
	Use:   "set-default <instance>",
	Short: "Mark an instance as the default",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstanceDefault,
}

var instanceClientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List supported client types",
	RunE:  runInstanceClients,
}

var enableCmd = &cobra.Command{
	Use:   "enable <instance> <server>",
	Short: "Enable a server on an instance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(args[0], args[1], true)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <instance> <server>",
	Short: "Disable a server on an instance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(args[0], args[1], false)
	},
}

var instancePath string

func init() {
	instanceCmd.AddCommand(instanceListCmd, instanceAddCmd, instanceRmCmd, instanceDefaultCmd, instanceClientsCmd)

	instanceListCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	instanceAddCmd.Flags().StringVar(&instancePath, "path", "", "Config file path (default: the client's standard location)")
}

func runInstanceList(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		instances, err := a.svc.ListInstances()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(instances)
		}
		if len(instances) == 0 {
			printEmpty("No instances yet. Run `mcphub detect`, then `mcphub instance add`.")
			return nil
		}

		servers, err := a.svc.ListServers()
		if err != nil {
			return err
		}
		names := make(map[string]string, len(servers))
		for _, s := range servers {
			names[s.ID] = s.Name
		}

		t := newTable("ID", "NAME", "CLIENT", "CONFIG", "ENABLED", "LAST SYNC")
		for _, inst := range instances {
			name := inst.Name
			if inst.IsDefault {
				name += text.FgHiYellow.Sprint(" *")
			}
			enabled := make([]string, 0, len(inst.EnabledServers))
			for _, id := range inst.EnabledServers {
				if n, ok := names[id]; ok {
					enabled = append(enabled, n)
				}
			}
			t.AppendRow(table.Row{
				shortID(inst.ID),
				name,
				inst.ClientKind.DisplayName(),
				truncate(inst.ConfigPath, 50),
				truncate(strings.Join(enabled, ", "), 40),
				formatTime(inst.LastSynced),
			})
		}
		t.Render()
		return nil
	})
}

func runInstanceAdd(cmd *cobra.Command, args []string) error {
	kind := models.ClientKind(args[1])
	if !kind.Known() {
		return fmt.Errorf("unknown client %q, run `mcphub instance clients` for the list", args[1])
	}
	return withApp(func(a *app) error {
		inst, err := a.svc.CreateInstance(args[0], kind, instancePath)
		if err != nil {
			return err
		}
		printSuccess("Added instance %s for %s", inst.Name, kind.DisplayName())
		fmt.Printf("  Config: %s\n", inst.ConfigPath)
		if inst.IsDefault {
			fmt.Println("  This is your default instance.")
		}
		return nil
	})
}

func runInstanceRm(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		inst, err := a.findInstance(args[0])
		if err != nil {
			return err
		}
		if err := a.svc.DeleteInstance(inst.ID); err != nil {
			return err
		}
		printSuccess("Removed instance %s", inst.Name)
		return nil
	})
}

func runInstanceDefault(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		inst, err := a.findInstance(args[0])
		if err != nil {
			return err
		}
		if err := a.svc.SetDefaultInstance(inst.ID); err != nil {
			return err
		}
		printSuccess("%s is now the default instance", inst.Name)
		return nil
	})
}

func runInstanceClients(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		t := newTable("CLIENT", "NAME", "DEFAULT CONFIG", "MODE")
		kinds := append(append([]models.ClientKind{}, models.AllClientKinds...), models.ClientCustom)
		for _, kind := range kinds {
			path, err := a.svc.DefaultConfigPath(kind)
			if err != nil {
				path = text.FgHiBlack.Sprint("(pass --path)")
			}
			mode := "replace"
			if clients.UsesMerge(kind) {
				mode = "merge"
			}
			t.AppendRow(table.Row{string(kind), kind.DisplayName(), path, mode})
		}
		t.Render()
		return nil
	})
}

func setEnabled(instanceRef, serverRef string, enabled bool) error {
	return withApp(func(a *app) error {
		inst, err := a.findInstance(instanceRef)
		if err != nil {
			return err
		}
		srv, err := a.findServer(serverRef)
		if err != nil {
			return err
		}
		if err := a.svc.SetServerEnabled(inst.ID, srv.ID, enabled); err != nil {
			return err
		}
		verb := "Enabled"
		if !enabled {
			verb = "Disabled"
		}
		printSuccess("%s %s on %s", verb, srv.Name, inst.Name)
		fmt.Printf("  Run `mcphub sync %s` to write the change.\n", inst.Name)
		return nil
	})
}
