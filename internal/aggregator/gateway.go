package aggregator

import (
	"context"
	"encoding/json"
	"time"

	"mcphost/internal/api"
	"mcphost/internal/rpcclient"
	"mcphost/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"
)

// DefaultListTimeout bounds tools/list on each server.
const DefaultListTimeout = 5 * time.Second

// GatewayOptions configures a Gateway.
type GatewayOptions struct {
	// ListTimeout defaults to DefaultListTimeout.
	ListTimeout time.Duration
	// CallTimeout defaults to rpcclient.DefaultCallTimeout.
	CallTimeout time.Duration
}

// Gateway merges the tool catalogs of all running servers and routes tool calls
// to their owners.
type Gateway struct {
	sup      Supervisor
	registry *Registry
	opts     GatewayOptions
}

// NewGateway creates a gateway over the running servers of sup.
func NewGateway(sup Supervisor, registry *Registry, opts GatewayOptions) *Gateway {
	if opts.ListTimeout <= 0 {
		opts.ListTimeout = DefaultListTimeout
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = rpcclient.DefaultCallTimeout
	}
	return &Gateway{sup: sup, registry: registry, opts: opts}
}

// Registry returns the client registry the gateway routes through.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// ListTools asks every running server for its tools concurrently and returns
// the concatenation in server-name order. A server that fails or times out is
// logged and left out; its failure never fails the whole listing.
func (g *Gateway) ListTools(ctx context.Context) ([]Tool, error) {
	names := g.sup.ProcessNames()
	results := make([][]Tool, len(names))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, name := range names {
		eg.Go(func() error {
			tools, err := g.listServerTools(egCtx, name)
			if err != nil {
				logging.Error("Gateway", err, "Failed to list tools of %s", name)
				return nil
			}
			results[i] = tools
			return nil
		})
	}
	_ = eg.Wait()

	var all []Tool
	for _, tools := range results {
		all = append(all, tools...)
	}
	if all == nil {
		all = []Tool{}
	}
	logging.Debug("Gateway", "Listed %d tool(s) from %d server(s)", len(all), len(names))
	return all, ctx.Err()
}

func (g *Gateway) listServerTools(ctx context.Context, name string) ([]Tool, error) {
	client, err := g.registry.GetClient(ctx, name)
	if err != nil {
		return nil, err
	}
	result, err := client.Call(ctx, string(mcp.MethodToolsList), nil, g.opts.ListTimeout)
	if err != nil {
		return nil, err
	}
	return toolsFromResult(name, result)
}

// FindTool resolves the owner of toolName from a fresh listing.
func (g *Gateway) FindTool(ctx context.Context, toolName string) (Tool, error) {
	tools, err := g.ListTools(ctx)
	if err != nil {
		return Tool{}, err
	}
	for _, tool := range tools {
		if tool.Name == toolName {
			return tool, nil
		}
	}
	return Tool{}, api.NewToolNotFoundError(toolName)
}

// CallTool invokes toolName with args. With an empty server the owner is
// looked up from a fresh listing; an unknown tool yields *api.NotFoundError.
// The raw tools/call result of the server is returned unchanged.
func (g *Gateway) CallTool(ctx context.Context, toolName string, args map[string]any, server string) (json.RawMessage, error) {
	if server == "" {
		tool, err := g.FindTool(ctx, toolName)
		if err != nil {
			return nil, err
		}
		server = tool.Server
	}
	if args == nil {
		args = map[string]any{}
	}

	client, err := g.registry.GetClient(ctx, server)
	if err != nil {
		return nil, err
	}

	logging.Debug("Gateway", "Calling tool %s on %s", toolName, server)
	return client.Call(ctx, string(mcp.MethodToolsCall), map[string]any{
		"name":      toolName,
		"arguments": args,
	}, g.opts.CallTimeout)
}
