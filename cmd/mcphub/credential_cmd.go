package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Keep server secrets in the OS keyring",
	Long: `Store secret environment values in the OS keyring instead of the database.
A server env variable left empty is filled from the keyring when the server is
health checked.`,
}

var credentialSetCmd = &cobra.Command{
	Use:   "set <server> <VAR>",
	Short: "Store a secret (prompts when --value is not given)",
	Args:  cobra.ExactArgs(2),
	RunE:  runCredentialSet,
}

var credentialGetCmd = &cobra.Command{
	Use:   "get <server> <VAR>",
	Short: "Print a stored secret",
	Args:  cobra.ExactArgs(2),
	RunE:  runCredentialGet,
}

var credentialRmCmd = &cobra.Command{
	Use:     "rm <server> <VAR>",
	Aliases: []string{"remove", "delete"},
	Short:   "Remove a stored secret",
	Args:    cobra.ExactArgs(2),
	RunE:    runCredentialRm,
}

var credentialValue string

func init() {
	credentialCmd.AddCommand(credentialSetCmd, credentialGetCmd, credentialRmCmd)
	credentialSetCmd.Flags().StringVar(&credentialValue, "value", "", "Secret value")
}

func requireKeyring(a *app) error {
	if !a.svc.CredentialsAvailable() {
		return errors.New("the OS credential store is not available on this system")
	}
	return nil
}

func runCredentialSet(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		if err := requireKeyring(a); err != nil {
			return err
		}
		srv, err := a.findServer(args[0])
		if err != nil {
			return err
		}
		value := credentialValue
		if !cmd.Flags().Changed("value") {
			if value, err = readSecret(fmt.Sprintf("Value for %s on %s: ", args[1], srv.Name)); err != nil {
				return err
			}
		}
		if err := a.svc.StoreCredential(srv.ID, args[1], value); err != nil {
			return err
		}
		printSuccess("Stored %s for %s", args[1], srv.Name)
		if v, ok := srv.Env[args[1]]; !ok || v != "" {
			fmt.Printf("  Set %s to an empty value on the server so the keyring value is used.\n", args[1])
		}
		return nil
	})
}

func runCredentialGet(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		if err := requireKeyring(a); err != nil {
			return err
		}
		srv, err := a.findServer(args[0])
		if err != nil {
			return err
		}
		value, ok, err := a.svc.GetCredential(srv.ID, args[1])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no credential %s for %s", args[1], srv.Name)
		}
		fmt.Println(value)
		return nil
	})
}

func runCredentialRm(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		if err := requireKeyring(a); err != nil {
			return err
		}
		srv, err := a.findServer(args[0])
		if err != nil {
			return err
		}
		if err := a.svc.DeleteCredential(srv.ID, args[1]); err != nil {
			return err
		}
		printSuccess("Removed %s for %s", args[1], srv.Name)
		return nil
	})
}

// readSecret reads a line from stdin, without echo when stdin is a terminal.
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
