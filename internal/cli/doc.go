// Package cli provides the client side of the mcphost command line: talking to
// a running gateway and presenting the results.
//
// # Core Components
//
// Client wraps the gateway REST API:
//   - tool listing and tool calls routed to an explicit server
//   - server lifecycle (list, state, start, put, stop, delete) and skill start
//   - non-2xx replies become *APIError; a 404 also satisfies api.IsNotFound
//   - transport failures become *ConnectionError, classified as TLS, DNS,
//     timeout or network so the user gets an actionable hint
//
// SSEClient uses the gateway's SSE transport through the mcp-go client, the
// same path an MCP host application takes.
//
// Printer renders results as plain tables (go-pretty), JSON or YAML, and shows
// a spinner on stderr while a request is in flight.
//
// Bridge is a stdio MCP server in front of a running gateway. Its tool list is
// refreshed from the gateway before every tools/list, and each call is
// forwarded to the server that owns the tool.
//
// # Usage Example
//
//	client := cli.NewClient(cli.GetDefaultEndpoint())
//	printer := cli.NewPrinter(os.Stdout, os.Stderr, cli.OutputFormatTable, false)
//
//	var tools []map[string]any
//	err := printer.WithSpinner("Listing tools", func() error {
//	    var err error
//	    tools, err = client.ListTools(ctx)
//	    return err
//	})
//	if err != nil {
//	    return err
//	}
//	return printer.PrintTools(tools)
package cli
