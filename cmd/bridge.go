package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"mcphost/internal/cli"
	"mcphost/pkg/logging"

	"github.com/spf13/cobra"
)

// newBridgeCmd creates the `bridge` command, a stdio MCP server forwarding to
// a running gateway.
func newBridgeCmd() *cobra.Command {
	var debug bool

	bridgeCmd := &cobra.Command{
		Use:   "bridge",
		Short: "Serve the gateway's tools as a stdio MCP server",
		Long: `Speaks MCP on stdin/stdout and forwards every tool call to the server that
owns the tool in a running gateway. Use it to register the gateway with host
applications that only start stdio servers:

  {"command": "mcphost", "args": ["bridge"]}

Logs go to stderr since stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := globalFlags.Validate(); err != nil {
				return err
			}

			level := logging.LevelInfo
			if debug {
				level = logging.LevelDebug
			}
			logging.InitForCLI(level, os.Stderr)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			bridge := cli.NewBridge(cli.NewClient(globalFlags.Endpoint), GetVersion())
			return bridge.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	bridgeCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return bridgeCmd
}
