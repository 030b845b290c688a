package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"mcphost/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// serverNameField is the key the gateway adds to every tool it lists.
const serverNameField = "_server_name"

// Bridge is a stdio MCP server that forwards to a running gateway. It lets
// host applications that only launch stdio servers use every tool of the
// gateway through one entry.
type Bridge struct {
	client    *Client
	mcpServer *server.MCPServer

	mu     sync.Mutex
	owners map[string]string
}

// NewBridge creates a bridge in front of the gateway behind client.
func NewBridge(client *Client, version string) *Bridge {
	b := &Bridge{
		client: client,
		owners: make(map[string]string),
	}

	hooks := &server.Hooks{}
	hooks.AddBeforeListTools(func(ctx context.Context, id any, message *mcp.ListToolsRequest) {
		if err := b.Refresh(ctx); err != nil {
			logging.Error("Bridge", err, "Failed to refresh tools from %s", client.Endpoint())
		}
	})

	b.mcpServer = server.NewMCPServer(
		"mcphost-bridge",
		version,
		server.WithToolCapabilities(false),
		server.WithHooks(hooks),
	)
	return b
}

// MCPServer exposes the underlying MCP server.
func (b *Bridge) MCPServer() *server.MCPServer {
	return b.mcpServer
}

// Refresh replaces the exposed tools with the gateway's current catalog.
// On failure the previous tools stay in place.
func (b *Bridge) Refresh(ctx context.Context) error {
	tools, err := b.client.ListTools(ctx)
	if err != nil {
		return err
	}

	serverTools := make([]server.ServerTool, 0, len(tools))
	owners := make(map[string]string, len(tools))
	for _, definition := range tools {
		tool, owner, err := bridgeTool(definition)
		if err != nil {
			logging.Warn("Bridge", "Skipping tool: %v", err)
			continue
		}
		owners[tool.Name] = owner
		serverTools = append(serverTools, server.ServerTool{
			Tool:    tool,
			Handler: b.handlerFor(tool.Name),
		})
	}

	b.mu.Lock()
	b.owners = owners
	b.mu.Unlock()

	b.mcpServer.SetTools(serverTools...)
	logging.Debug("Bridge", "Exposing %d tool(s)", len(serverTools))
	return nil
}

func (b *Bridge) owner(toolName string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	owner, ok := b.owners[toolName]
	return owner, ok
}

func (b *Bridge) handlerFor(toolName string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, ok := b.owner(toolName)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("Tool %s not found", toolName)), nil
		}

		raw, err := b.client.CallTool(ctx, toolName, owner, request.GetArguments())
		if err != nil {
			logging.Error("Bridge", err, "Call of %s on %s failed", toolName, owner)
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := mcp.ParseCallToolResult(&raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid result from %s: %v", owner, err)), nil
		}
		return result, nil
	}
}

// Serve loads the tools once and then speaks MCP on in/out until in is closed
// or ctx is cancelled.
func (b *Bridge) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	if err := b.Refresh(ctx); err != nil {
		// The gateway may come up later; tools/list retries.
		logging.Warn("Bridge", "Gateway at %s not reachable yet: %v", b.client.Endpoint(), err)
	}

	logging.Info("Bridge", "Bridging stdio to %s", b.client.Endpoint())
	stdio := server.NewStdioServer(b.mcpServer)
	stdio.SetErrorLogger(log.New(os.Stderr, "bridge: ", log.LstdFlags))
	return stdio.Listen(ctx, in, out)
}

// bridgeTool converts a gateway tool definition into an mcp.Tool without the
// owner field, keeping the backend's input schema as is.
func bridgeTool(definition map[string]any) (mcp.Tool, string, error) {
	name, _ := definition["name"].(string)
	if name == "" {
		return mcp.Tool{}, "", fmt.Errorf("tool definition without a name")
	}
	owner, _ := definition[serverNameField].(string)
	description, _ := definition["description"].(string)

	schema, ok := definition["inputSchema"]
	if !ok || schema == nil {
		schema = map[string]any{"type": "object"}
	}
	rawSchema, err := json.Marshal(schema)
	if err != nil {
		return mcp.Tool{}, "", fmt.Errorf("tool %s has an invalid input schema: %w", name, err)
	}

	return mcp.NewToolWithRawSchema(name, description, rawSchema), owner, nil
}
