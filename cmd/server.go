package cmd

import (
	"context"
	"fmt"

	"mcphost/internal/cli"
	"mcphost/internal/server"
	"mcphost/internal/supervisor"

	"github.com/spf13/cobra"
)

// newServerCmd creates the `server` command group for managing tool servers
// of a running gateway.
func newServerCmd() *cobra.Command {
	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Manage the tool servers of a running gateway",
	}

	serverCmd.AddCommand(
		newServerListCmd(),
		newServerStateCmd(),
		newServerLifecycleCmd("start", "Start a configured server", "Starting", func(c *cli.Client) lifecycleFunc { return c.StartServer }),
		newServerLifecycleCmd("stop", "Stop a server and record it as stopped", "Stopping", func(c *cli.Client) lifecycleFunc { return c.StopServer }),
		newServerLifecycleCmd("delete", "Stop a server and remove it from the servers file", "Deleting", func(c *cli.Client) lifecycleFunc { return c.DeleteServer }),
		newServerAddCmd(),
	)
	return serverCmd
}

func newServerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List configured and running servers",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, printer, err := newClientAndPrinter(cmd)
			if err != nil {
				return err
			}

			var states []supervisor.ServerState
			err = printer.WithSpinner("Listing servers", func() error {
				var err error
				states, err = client.ListServers(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}
			return printer.PrintServers(states)
		},
	}
}

func newServerStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the servers recorded as running",
		Long: `Shows the servers whose last recorded status is running. These are the
servers 'mcphost serve --restore' starts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, printer, err := newClientAndPrinter(cmd)
			if err != nil {
				return err
			}

			names, err := client.LastActiveServers(cmd.Context())
			if err != nil {
				return err
			}
			return printer.PrintLastActive(names)
		},
	}
}

type lifecycleFunc func(ctx context.Context, name string) (server.StatusResponse, error)

func newServerLifecycleCmd(use, short, progress string, pick func(*cli.Client) lifecycleFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " NAME",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, printer, err := newClientAndPrinter(cmd)
			if err != nil {
				return err
			}

			var status server.StatusResponse
			err = printer.WithSpinner(progress+" "+args[0], func() error {
				var err error
				status, err = pick(client)(cmd.Context(), args[0])
				return err
			})
			if err != nil {
				return err
			}
			return printer.PrintStatus(status)
		},
	}
}

func newServerAddCmd() *cobra.Command {
	var (
		cwd       string
		envPairs  []string
		autoStart bool
	)

	addCmd := &cobra.Command{
		Use:   "add NAME -- COMMAND [ARGS...]",
		Short: "Add or replace a server and start it",
		Long: `Saves the launch description of a server in the servers file and starts it.
An existing server with the same name is stopped and replaced.

Command, arguments, working directory and environment values may use
template functions, for example {{ env "HOME" }}.`,
		Example: `  mcphost server add files -- npx -y @modelcontextprotocol/server-filesystem /tmp
  mcphost server add search --env API_KEY=secret -- uvx search-server`,
		Args: func(cmd *cobra.Command, args []string) error {
			if cmd.ArgsLenAtDash() != 1 || len(args) < 2 {
				return fmt.Errorf("expected NAME -- COMMAND [ARGS...]")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			client, printer, err := newClientAndPrinter(cmd)
			if err != nil {
				return err
			}
			env, err := cli.ParseEnvPairs(envPairs)
			if err != nil {
				return err
			}

			spec := supervisor.ServerSpec{
				Command:   args[1],
				Args:      args[2:],
				Cwd:       cwd,
				Env:       env,
				AutoStart: autoStart,
			}

			var status server.StatusResponse
			err = printer.WithSpinner("Starting "+args[0], func() error {
				var err error
				status, err = client.PutServer(cmd.Context(), args[0], spec)
				return err
			})
			if err != nil {
				return err
			}
			return printer.PrintStatus(status)
		},
	}

	addCmd.Flags().StringVar(&cwd, "cwd", "", "Working directory of the server")
	addCmd.Flags().StringArrayVar(&envPairs, "env", nil, "Environment variable KEY=VALUE (repeatable)")
	addCmd.Flags().BoolVar(&autoStart, "auto-start", false, "Mark the server for automatic start")
	return addCmd
}
