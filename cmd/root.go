package cmd

import (
	"errors"
	"os"

	"mcphost/internal/api"
	"mcphost/internal/cli"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeNotFound indicates the named server or tool does not exist.
	ExitCodeNotFound = 2
	// ExitCodeConnectionFailed indicates the gateway could not be reached.
	ExitCodeConnectionFailed = 3
)

// globalFlags are shared by every command that talks to a running gateway.
var globalFlags cli.CommandFlags

// rootCmd represents the base command for the mcphost application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mcphost",
	Short: "Run local MCP tool servers behind one gateway",
	Long: `mcphost supervises stdio MCP tool servers on this machine and exposes
their combined tools through a REST API and an SSE endpoint, so one agent can
discover and call tools from every server without knowing which server owns them.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcphost version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if api.IsNotFound(err) {
		return ExitCodeNotFound
	}

	var connErr *cli.ConnectionError
	if errors.As(err, &connErr) {
		return ExitCodeConnectionFailed
	}

	return ExitCodeError
}

// newClientAndPrinter validates the global flags and builds the REST client and
// printer for cmd.
func newClientAndPrinter(cmd *cobra.Command) (*cli.Client, *cli.Printer, error) {
	if err := globalFlags.Validate(); err != nil {
		return nil, nil, err
	}
	client := cli.NewClient(globalFlags.Endpoint)
	printer := cli.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), cli.OutputFormat(globalFlags.OutputFormat), globalFlags.Quiet)
	return client, printer, nil
}

func init() {
	cli.RegisterCommonFlags(rootCmd, &globalFlags)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newServerCmd())
	rootCmd.AddCommand(newSkillCmd())
	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newBridgeCmd())
}
