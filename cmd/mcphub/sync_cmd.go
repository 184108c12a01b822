package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fentz26/mcphub/internal/models"
	"github.com/fentz26/mcphub/internal/service"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [instance]",
	Short: "Write enabled servers into client config files",
	Long: `Write each instance's enabled servers into its client config file. Without
an argument the default instance is synced; --all syncs every instance.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

var importCmd = &cobra.Command{
	Use:   "import <config-file>",
	Short: "Import servers from an existing client config file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Work with server registries",
}

var registryImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import servers from a registry listing (YAML or JSON)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegistryImport,
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect installed MCP clients",
	RunE:  runDetect,
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Inspect config file backups",
}

var backupListCmd = &cobra.Command{
	Use:   "list <instance>",
	Short: "List backups of an instance",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupList,
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <backup-id>",
	Short: "Restore a backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupRestore,
}

var (
	syncAll        bool
	registrySource string
)

func init() {
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "Sync every instance")
	registryCmd.AddCommand(registryImportCmd)
	registryImportCmd.Flags().StringVar(&registrySource, "source", "", "Source URL recorded on imported servers (default: the file path)")
	detectCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	backupCmd.AddCommand(backupListCmd, backupRestoreCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncAll && len(args) > 0 {
		return errors.New("pass an instance or --all, not both")
	}
	return withApp(func(a *app) error {
		ctx := cmd.Context()
		if syncAll {
			instances, err := a.svc.ListInstances()
			if err != nil {
				return err
			}
			var synced []string
			err = withSpinner(fmt.Sprintf("Syncing %d instances...", len(instances)), func() error {
				var err error
				synced, err = a.svc.SyncAll(ctx)
				return err
			})
			if err != nil {
				return err
			}
			printSuccess("Synced %d of %d instances", len(synced), len(instances))
			if failed := len(instances) - len(synced); failed > 0 {
				printWarning("%d instances failed, see the log or `mcphub history`", failed)
			}
			return nil
		}

		inst, err := targetInstance(a, args)
		if err != nil {
			return err
		}
		backupPath, err := a.svc.SyncInstance(ctx, inst.ID)
		if err != nil {
			return err
		}
		printSuccess("Synced %s (%s)", inst.Name, inst.ConfigPath)
		if backupPath != "" {
			fmt.Printf("  Backup: %s\n", backupPath)
		}
		return nil
	})
}

// targetInstance is the named instance or, without a name, the default.
func targetInstance(a *app, args []string) (*models.ClientInstance, error) {
	if len(args) == 1 {
		return a.findInstance(args[0])
	}
	instances, err := a.svc.ListInstances()
	if err != nil {
		return nil, err
	}
	for i := range instances {
		if instances[i].IsDefault {
			return &instances[i], nil
		}
	}
	return nil, errors.New("no default instance, pass an instance name or --all")
}

func runImport(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	return withApp(func(a *app) error {
		created, err := a.svc.ImportFromFile(cmd.Context(), path)
		if err != nil {
			return err
		}
		printImported(created)
		return nil
	})
}

func runRegistryImport(cmd *cobra.Command, args []string) error {
	entries, err := service.LoadRegistryFile(args[0])
	if err != nil {
		return err
	}
	source := registrySource
	if source == "" {
		if source, err = filepath.Abs(args[0]); err != nil {
			return err
		}
	}
	return withApp(func(a *app) error {
		created, err := a.svc.ImportFromRegistry(cmd.Context(), source, entries)
		if err != nil {
			return err
		}
		if skipped := len(entries) - len(created); skipped > 0 {
			printWarning("Skipped %d entries without a name or command", skipped)
		}
		printImported(created)
		return nil
	})
}

func printImported(servers []models.Server) {
	if len(servers) == 0 {
		printEmpty("No servers found to import")
		return
	}
	printSuccess("Imported %d servers", len(servers))
	for _, s := range servers {
		fmt.Printf("  %s %s\n", text.FgHiBlack.Sprint(shortID(s.ID)), s.Name)
	}
}

func runDetect(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		detected := a.svc.DetectClients()
		if jsonOutput {
			return printJSON(detected)
		}
		if len(detected) == 0 {
			printEmpty("No supported clients detected")
			return nil
		}
		t := newTable("CLIENT", "NAME", "CONFIG", "HAS CONFIG")
		for _, d := range detected {
			t.AppendRow(table.Row{string(d.ClientKind), d.DisplayName, d.ConfigPath, yesNo(d.HasConfig)})
		}
		t.Render()
		return nil
	})
}

func runBackupList(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		inst, err := a.findInstance(args[0])
		if err != nil {
			return err
		}
		backups, err := a.svc.ListBackups(inst.ID)
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			printEmpty("No backups for " + inst.Name)
			return nil
		}
		t := newTable("ID", "CREATED", "PATH")
		for _, b := range backups {
			t.AppendRow(table.Row{b.ID, formatTime(&b.CreatedAt), b.BackupPath})
		}
		t.Render()
		return nil
	})
}

func runBackupRestore(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		return a.svc.RestoreBackup(args[0])
	})
}
