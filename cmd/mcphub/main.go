package main

import (
	"fmt"
	"os"

	"github.com/fentz26/mcphub/internal/config"
	"github.com/fentz26/mcphub/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mcphub",
	Short: "MCP Hub - one registry for every MCP client",
	Long: `MCP Hub keeps a single registry of MCP server definitions and writes each
client's enabled subset into that client's own config file. It can also mirror
the registry as Markdown under ~/.mcp and publish it on a loopback HTTP
discovery endpoint.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		// The TUI owns the terminal and initializes logging itself.
		if cmd.Name() != "tui" {
			logging.InitForCLI(level, os.Stderr)
		}
		appConfig = cfg
		return nil
	},
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	configDir string
	dbPath    string
	logLevel  string

	appConfig *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory holding config.yaml (default: app data dir)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(instanceCmd)
	rootCmd.AddCommand(enableCmd, disableCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(registryCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(discoveryCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(credentialCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(pathsCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
