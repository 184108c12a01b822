package main

import (
	"github.com/fentz26/mcphub/internal/discovery"
	"github.com/fentz26/mcphub/internal/logging"
	"github.com/fentz26/mcphub/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive dashboard",
	Long: `Opens a terminal dashboard listing servers, client instances and detected
clients. Space toggles the selected server on the focused instance, s syncs it
and : opens the command bar.`,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Log lines would corrupt the alt screen.
	logging.Discard()

	return withApp(func(a *app) error {
		settings, err := a.svc.GetDiscoverySettings()
		if err != nil {
			return err
		}
		return tui.New(a.svc, discovery.NewLocalClient(settings.HTTPServerPort)).Run()
	})
}
