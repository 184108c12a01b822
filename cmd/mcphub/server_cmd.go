package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fentz26/mcphub/internal/mirror"
	"github.com/fentz26/mcphub/internal/service"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage server definitions",
}

var serverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List servers",
	RunE:  runServerList,
}

var serverShowCmd = &cobra.Command{
	Use:   "show <server>",
	Short: "Show server details",
	Args:  cobra.ExactArgs(1),
	RunE:  runServerShow,
}

var serverAddCmd = &cobra.Command{
	Use:   "add <name> -- <command> [args...]",
	Short: "Add a server",
	Example: `  mcphub server add github -- npx -y @modelcontextprotocol/server-github
  mcphub server add fetch --env API_KEY=xyz --tag web -- uvx mcp-server-fetch`,
	Args: cobra.MinimumNArgs(2),
	RunE: runServerAdd,
}

var serverEditCmd = &cobra.Command{
	Use:   "edit <server> [-- <command> [args...]]",
	Short: "Edit a server",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runServerEdit,
}

var serverRmCmd = &cobra.Command{
	Use:     "rm <server>",
	Aliases: []string{"remove", "delete"},
	Short:   "Remove a server",
	Args:    cobra.ExactArgs(1),
	RunE:    runServerRm,
}

var (
	serverDesc string
	serverEnv  []string
	serverTags []string
	serverName string
	clearEnv   bool
	clearTags  bool
	clearDesc  bool
)

func init() {
	serverCmd.AddCommand(serverListCmd, serverShowCmd, serverAddCmd, serverEditCmd, serverRmCmd)

	serverListCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	serverShowCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")

	for _, c := range []*cobra.Command{serverAddCmd, serverEditCmd} {
		c.Flags().StringVar(&serverDesc, "desc", "", "Description")
		c.Flags().StringArrayVar(&serverEnv, "env", nil, "Environment variable KEY=VALUE (repeatable)")
		c.Flags().StringSliceVar(&serverTags, "tag", nil, "Tag (repeatable)")
	}
	serverEditCmd.Flags().StringVar(&serverName, "name", "", "New name")
	serverEditCmd.Flags().BoolVar(&clearEnv, "clear-env", false, "Remove all environment variables")
	serverEditCmd.Flags().BoolVar(&clearTags, "clear-tags", false, "Remove all tags")
	serverEditCmd.Flags().BoolVar(&clearDesc, "clear-desc", false, "Remove the description")
}

func runServerList(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		servers, err := a.svc.ListServers()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(servers)
		}
		if len(servers) == 0 {
			printEmpty("No servers yet. Add one with `mcphub server add`.")
			return nil
		}

		t := newTable("ID", "NAME", "COMMAND", "TAGS", "SOURCE")
		for _, s := range servers {
			source := ""
			if s.Source != nil {
				source = string(s.Source.Kind)
			}
			command := truncate(strings.TrimSpace(s.Command+" "+strings.Join(s.Args, " ")), 50)
			t.AppendRow(table.Row{shortID(s.ID), s.Name, command, strings.Join(s.Tags, ", "), source})
		}
		t.Render()
		return nil
	})
}

func runServerShow(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		srv, err := a.findServer(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(srv)
		}

		t := newTable("FIELD", "VALUE")
		t.AppendRow(table.Row{"ID", srv.ID})
		t.AppendRow(table.Row{"Name", srv.Name})
		if srv.Description != "" {
			t.AppendRow(table.Row{"Description", srv.Description})
		}
		t.AppendRow(table.Row{"Command", srv.Command})
		if len(srv.Args) > 0 {
			t.AppendRow(table.Row{"Args", strings.Join(srv.Args, " ")})
		}
		keys := make([]string, 0, len(srv.Env))
		for k := range srv.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := srv.Env[k]
			if mirror.IsSensitive(k) && v != "" {
				v = mirror.Redacted
			}
			t.AppendRow(table.Row{"Env " + k, v})
		}
		if len(srv.Tags) > 0 {
			t.AppendRow(table.Row{"Tags", strings.Join(srv.Tags, ", ")})
		}
		if srv.Source != nil {
			src := string(srv.Source.Kind)
			if srv.Source.URL != "" {
				src += " (" + srv.Source.URL + ")"
			}
			t.AppendRow(table.Row{"Source", src})
		}
		t.AppendRow(table.Row{"Created", formatTime(&srv.CreatedAt)})
		t.AppendRow(table.Row{"Updated", formatTime(&srv.UpdatedAt)})
		t.Render()
		return nil
	})
}

func runServerAdd(cmd *cobra.Command, args []string) error {
	env, err := parseEnv(serverEnv)
	if err != nil {
		return err
	}
	in := service.ServerInput{
		Name:        args[0],
		Description: serverDesc,
		Command:     args[1],
		Args:        args[2:],
		Env:         env,
		Tags:        serverTags,
	}
	return withApp(func(a *app) error {
		srv, err := a.svc.CreateServer(cmd.Context(), in)
		if err != nil {
			return err
		}
		printSuccess("Added server %s (%s)", srv.Name, srv.ID)
		return nil
	})
}

func runServerEdit(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		srv, err := a.findServer(args[0])
		if err != nil {
			return err
		}

		in := service.ServerInput{
			Name:        srv.Name,
			Description: srv.Description,
			Command:     srv.Command,
			Args:        srv.Args,
			Env:         srv.Env,
			Tags:        srv.Tags,
		}
		flags := cmd.Flags()
		if flags.Changed("name") {
			in.Name = serverName
		}
		if flags.Changed("desc") {
			in.Description = serverDesc
		}
		if clearDesc {
			in.Description = ""
		}
		if len(args) > 1 {
			in.Command = args[1]
			in.Args = args[2:]
		}
		if clearEnv {
			in.Env = map[string]string{}
		}
		if flags.Changed("env") {
			extra, err := parseEnv(serverEnv)
			if err != nil {
				return err
			}
			if in.Env == nil {
				in.Env = map[string]string{}
			}
			for k, v := range extra {
				in.Env[k] = v
			}
		}
		if clearTags {
			in.Tags = []string{}
		}
		if flags.Changed("tag") {
			in.Tags = append(in.Tags, serverTags...)
		}

		updated, err := a.svc.UpdateServer(cmd.Context(), srv.ID, in)
		if err != nil {
			return err
		}
		printSuccess("Updated server %s", updated.Name)
		return nil
	})
}

func runServerRm(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		srv, err := a.findServer(args[0])
		if err != nil {
			return err
		}
		if err := a.svc.DeleteServer(cmd.Context(), srv.ID); err != nil {
			return err
		}
		printSuccess("Removed server %s", srv.Name)
		fmt.Println("  Run `mcphub sync --all` to update client config files.")
		return nil
	})
}
