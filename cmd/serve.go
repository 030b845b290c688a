package cmd

import (
	"context"
	"fmt"

	"mcphost/internal/app"

	"github.com/spf13/cobra"
)

// serveDebug enables verbose logging across the application.
var serveDebug bool

// serveRestore starts the servers recorded as running at the last shutdown.
var serveRestore bool

// serveConfigPath specifies a custom configuration directory path.
// The directory should contain config.yaml.
var serveConfigPath string

// serveCmd starts the gateway in the foreground.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mcphost gateway",
	Long: `Starts the gateway and serves the REST and SSE endpoints until interrupted.

Tool servers are started on demand, the first time one of their tools is
listed or called, or explicitly with 'mcphost server start'. With --restore
the servers that were running when the gateway last stopped are started
right away.

Configuration:
  config.yaml is read from ~/.config/mcphost, or from --config-path.
  MCPHOST_HOST, MCPHOST_PORT, MCPHOST_BASE_PATH, MCPHOST_PUBLIC_URL,
  MCPHOST_SERVERS_FILE and MCPHOST_LOG_LEVEL override the file.

  The servers file (default ~/.mcphost/mcp_config.json) holds the launch
  description and last status of every server. It may be edited while the
  gateway runs; connected SSE clients are told to list tools again.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, serveRestore, serveConfigPath, GetVersion())

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().BoolVar(&serveRestore, "restore", false, "Start the servers that were running at the last shutdown")
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Custom configuration directory path")
}
