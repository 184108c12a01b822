package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fentz26/mcphub/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the process config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write config.yaml with the default values",
	RunE:  runConfigInit,
}

var configForce bool

func init() {
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFilePath()
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists, pass --force to overwrite", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := config.SaveConfig(path, config.DefaultConfig()); err != nil {
		return err
	}
	printSuccess("Wrote %s", path)
	return nil
}
