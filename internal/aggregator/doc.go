// Package aggregator merges the tools of many stdio tool servers into one
// catalog and routes tool calls to the server that owns them.
//
// # Registry
//
// Registry keeps at most one rpcclient.Client per server name. GetClient starts
// the server through the Supervisor when needed, performs the MCP initialize
// handshake and caches the client. A cached client is dropped and rebuilt as
// soon as it stops running or its process exits, is replaced or closes stdin.
//
// # Gateway
//
// Gateway.ListTools fans out tools/list to every running server and returns the
// concatenated catalog in server-name order. Each entry keeps the server's own
// tool object and gains a "_server_name" field naming its owner:
//
//	{"name": "read_file", "description": "...", "inputSchema": {...}, "_server_name": "files"}
//
// A server that errors or times out is left out of the listing. CallTool routes
// to an explicit server when one is given and otherwise resolves the owner from
// a fresh listing, so a tool moving between servers is picked up immediately.
package aggregator
