package main

import (
	"github.com/fentz26/mcphub/internal/audit"
	"github.com/fentz26/mcphub/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent changes recorded in the audit log",
	RunE:  runHistory,
}

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show where MCP Hub keeps its files",
	RunE:  runPaths,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries")
	historyCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		entries, err := a.svc.History(historyLimit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(entries)
		}
		if len(entries) == 0 {
			printEmpty("No history yet")
			return nil
		}
		t := newTable("TIME", "ACTION", "OUTCOME", "SUBJECT", "DETAILS")
		for _, e := range entries {
			t.AppendRow(table.Row{
				formatTime(&e.Timestamp),
				e.Action,
				outcomeText(e),
				shortID(e.SubjectID),
				truncate(e.Details, 60),
			})
		}
		t.Render()
		return nil
	})
}

func outcomeText(e models.AuditEntry) string {
	if e.Outcome == audit.OutcomeSuccess {
		return text.FgGreen.Sprint(e.Outcome)
	}
	return text.FgRed.Sprint(e.Outcome)
}

func runPaths(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		t := newTable("WHAT", "PATH")
		t.AppendRow(table.Row{"app data", a.svc.AppDataDir()})
		t.AppendRow(table.Row{"config", configFilePath()})
		t.AppendRow(table.Row{"database", a.dbPath})
		t.AppendRow(table.Row{"backups", a.backupDir})
		t.AppendRow(table.Row{"mirror", a.mirror.Dir})
		t.Render()
		return nil
	})
}
