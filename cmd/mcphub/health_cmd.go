package main

import (
	"github.com/fentz26/mcphub/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health [server]",
	Short: "Check that servers start and answer",
	Long: `Check one server, or every server when none is named. In handshake mode
(the default) each server is started and sent an MCP initialize request; in
version mode it is run with --version.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
}

func runHealth(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		ctx := cmd.Context()
		servers, err := a.svc.ListServers()
		if err != nil {
			return err
		}
		names := make(map[string]string, len(servers))
		for _, s := range servers {
			names[s.ID] = s.Name
		}

		var results []models.ServerHealth
		if len(args) == 1 {
			srv, err := a.findServer(args[0])
			if err != nil {
				return err
			}
			withSpinner("Checking "+srv.Name+"...", func() error {
				results = []models.ServerHealth{a.svc.CheckServerHealth(ctx, srv.ID)}
				return nil
			})
		} else {
			if len(servers) == 0 {
				printEmpty("No servers to check")
				return nil
			}
			err := withSpinner("Checking servers...", func() error {
				var err error
				results, err = a.svc.CheckAllHealth(ctx)
				return err
			})
			if err != nil {
				return err
			}
		}

		if jsonOutput {
			return printJSON(results)
		}
		t := newTable("SERVER", "STATUS", "DETAILS")
		for _, r := range results {
			t.AppendRow(table.Row{names[r.ServerID], statusText(r.Status), r.ErrorMessage})
		}
		t.Render()
		return nil
	})
}

func statusText(s models.HealthStatus) string {
	switch s {
	case models.HealthHealthy:
		return text.FgGreen.Sprint("● healthy")
	case models.HealthError:
		return text.FgRed.Sprint("● error")
	default:
		return text.FgYellow.Sprint("● unknown")
	}
}
