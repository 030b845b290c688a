package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"mcphost/internal/api"
	"mcphost/internal/cli"

	"github.com/spf13/cobra"
)

// newToolsCmd creates the `tools` command group for listing and calling the
// aggregated tools of a running gateway.
func newToolsCmd() *cobra.Command {
	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "List and call the tools of all running servers",
	}
	toolsCmd.AddCommand(newToolsListCmd(), newToolsCallCmd())
	return toolsCmd
}

func newToolsListCmd() *cobra.Command {
	var useSSE bool

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the tools of all running servers",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, printer, err := newClientAndPrinter(cmd)
			if err != nil {
				return err
			}

			var tools []map[string]any
			err = printer.WithSpinner("Listing tools", func() error {
				var err error
				if useSSE {
					tools, err = listToolsSSE(cmd, client.Endpoint())
				} else {
					tools, err = client.ListTools(cmd.Context())
				}
				return err
			})
			if err != nil {
				return err
			}
			return printer.PrintTools(tools)
		},
	}

	listCmd.Flags().BoolVar(&useSSE, "sse", false, "Use the SSE transport instead of the REST API")
	return listCmd
}

func newToolsCallCmd() *cobra.Command {
	var (
		serverName string
		argsJSON   string
		useSSE     bool
	)

	callCmd := &cobra.Command{
		Use:   "call NAME",
		Short: "Call a tool",
		Long: `Calls tool NAME with the JSON object given in --args.

Over REST the owning server is needed. When --server is omitted it is looked
up in the tool list first. Over SSE the gateway looks the server up itself.`,
		Example: `  mcphost tools call echo --args '{"text":"hello"}'
  mcphost tools call read_file --server files --args '{"path":"/tmp/a.txt"}' -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, printer, err := newClientAndPrinter(cmd)
			if err != nil {
				return err
			}
			toolArgs, err := parseToolArgs(argsJSON)
			if err != nil {
				return err
			}
			toolName := args[0]

			var result json.RawMessage
			err = printer.WithSpinner("Calling "+toolName, func() error {
				if useSSE {
					sseClient := cli.NewSSEClient(client.Endpoint(), GetVersion())
					if err := sseClient.Connect(cmd.Context()); err != nil {
						return err
					}
					defer sseClient.Close()

					var err error
					result, err = sseClient.CallTool(cmd.Context(), toolName, toolArgs)
					return err
				}

				owner := serverName
				if owner == "" {
					var err error
					owner, err = findToolOwner(cmd, client, toolName)
					if err != nil {
						return err
					}
				}
				var err error
				result, err = client.CallTool(cmd.Context(), toolName, owner, toolArgs)
				return err
			})
			if err != nil {
				return err
			}
			return printer.PrintCallResult(result)
		},
	}

	callCmd.Flags().StringVar(&serverName, "server", "", "Server that owns the tool")
	callCmd.Flags().StringVar(&argsJSON, "args", "", "Tool arguments as a JSON object")
	callCmd.Flags().BoolVar(&useSSE, "sse", false, "Use the SSE transport instead of the REST API")
	return callCmd
}

func listToolsSSE(cmd *cobra.Command, endpoint string) ([]map[string]any, error) {
	sseClient := cli.NewSSEClient(endpoint, GetVersion())
	if err := sseClient.Connect(cmd.Context()); err != nil {
		return nil, err
	}
	defer sseClient.Close()
	return sseClient.ListTools(cmd.Context())
}

// findToolOwner returns the server listing toolName first.
func findToolOwner(cmd *cobra.Command, client *cli.Client, toolName string) (string, error) {
	tools, err := client.ListTools(cmd.Context())
	if err != nil {
		return "", err
	}
	for _, tool := range tools {
		if name, _ := tool["name"].(string); name == toolName {
			owner, _ := tool["_server_name"].(string)
			return owner, nil
		}
	}
	return "", api.NewToolNotFoundError(toolName)
}

func parseToolArgs(argsJSON string) (map[string]any, error) {
	if strings.TrimSpace(argsJSON) == "" {
		return map[string]any{}, nil
	}
	var toolArgs map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &toolArgs); err != nil {
		return nil, fmt.Errorf("--args must be a JSON object: %w", err)
	}
	if toolArgs == nil {
		toolArgs = map[string]any{}
	}
	return toolArgs, nil
}
