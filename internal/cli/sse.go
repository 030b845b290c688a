package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// SSEClient talks to a running gateway over its SSE transport, the same way an
// MCP host application would.
type SSEClient struct {
	endpoint string
	version  string
	client   *client.Client
}

// NewSSEClient creates a client for the gateway REST base URL; the event stream
// is expected at <endpoint>/sse.
func NewSSEClient(endpoint, version string) *SSEClient {
	return &SSEClient{endpoint: strings.TrimRight(endpoint, "/"), version: version}
}

// Connect opens the event stream and performs the initialize handshake.
func (c *SSEClient) Connect(ctx context.Context) error {
	sseURL := c.endpoint + "/sse"
	mcpClient, err := client.NewSSEMCPClient(sseURL)
	if err != nil {
		return fmt.Errorf("failed to create SSE client for %s: %w", sseURL, err)
	}
	if err := mcpClient.Start(ctx); err != nil {
		_ = mcpClient.Close()
		return ClassifyConnectionError(err, sseURL)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "mcphost-cli", Version: c.version}
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		_ = mcpClient.Close()
		return fmt.Errorf("initialize over SSE failed: %w", err)
	}

	c.client = mcpClient
	return nil
}

// ListTools returns the aggregated tools in the same shape as the REST API.
func (c *SSEClient) ListTools(ctx context.Context) ([]map[string]any, error) {
	if c.client == nil {
		return nil, fmt.Errorf("not connected")
	}
	result, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}

	// mcp.Tool has no _server_name, so the owning server is not known here.
	data, err := json.Marshal(result.Tools)
	if err != nil {
		return nil, err
	}
	var tools []map[string]any
	if err := json.Unmarshal(data, &tools); err != nil {
		return nil, err
	}
	return tools, nil
}

// CallTool invokes toolName and returns the result as raw JSON. Over SSE the
// gateway looks the owning server up by tool name.
func (c *SSEClient) CallTool(ctx context.Context, toolName string, args map[string]any) (json.RawMessage, error) {
	if c.client == nil {
		return nil, fmt.Errorf("not connected")
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args

	result, err := c.client.CallTool(ctx, req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

// Close ends the event stream.
func (c *SSEClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
