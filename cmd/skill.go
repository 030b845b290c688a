package cmd

import (
	"path/filepath"

	"mcphost/internal/cli"
	"mcphost/internal/server"

	"github.com/spf13/cobra"
)

// newSkillCmd creates the `skill` command group. A skill is a script file run
// as a tool server through the configured runner (uv run by default).
func newSkillCmd() *cobra.Command {
	skillCmd := &cobra.Command{
		Use:   "skill",
		Short: "Run script files as tool servers",
	}
	skillCmd.AddCommand(newSkillStartCmd())
	return skillCmd
}

func newSkillStartCmd() *cobra.Command {
	var envPairs []string

	startCmd := &cobra.Command{
		Use:   "start NAME SCRIPT",
		Short: "Start a script as tool server NAME",
		Long: `Starts SCRIPT with the skill runner of the gateway and registers it as
server NAME. The script path is made absolute before it is sent, so relative
paths are resolved against the current directory.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, printer, err := newClientAndPrinter(cmd)
			if err != nil {
				return err
			}
			env, err := cli.ParseEnvPairs(envPairs)
			if err != nil {
				return err
			}
			scriptPath, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}

			var status server.StatusResponse
			err = printer.WithSpinner("Starting skill "+args[0], func() error {
				var err error
				status, err = client.StartSkill(cmd.Context(), args[0], scriptPath, env)
				return err
			})
			if err != nil {
				return err
			}
			return printer.PrintStatus(status)
		},
	}

	startCmd.Flags().StringArrayVar(&envPairs, "env", nil, "Environment variable KEY=VALUE (repeatable)")
	return startCmd
}
