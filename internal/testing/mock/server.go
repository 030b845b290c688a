package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"
)

// Server represents a mock MCP tool server speaking stdio.
type Server struct {
	name         string
	tools        []ToolConfig
	toolHandlers map[string]*ToolHandler
	mcpServer    *server.MCPServer
	debug        bool
}

// DefaultTools is the tool set of a stub started without a config file.
func DefaultTools() []ToolConfig {
	return []ToolConfig{
		{
			Name:        "echo",
			Description: "Returns its arguments as JSON",
			Echo:        true,
		},
	}
}

// NewServer creates a mock MCP server exposing tools.
func NewServer(name string, tools []ToolConfig, debug bool) *Server {
	mcpServer := server.NewMCPServer(
		fmt.Sprintf("mock-%s", name),
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	mockServer := &Server{
		name:         name,
		tools:        tools,
		toolHandlers: make(map[string]*ToolHandler),
		mcpServer:    mcpServer,
		debug:        debug,
	}

	for _, toolConfig := range tools {
		mockServer.toolHandlers[toolConfig.Name] = NewToolHandler(toolConfig, debug)
		mcpServer.AddTool(toolDefinition(toolConfig), mockServer.createToolHandler(toolConfig.Name))
	}

	return mockServer
}

// NewServerFromFile creates a new mock MCP server from a YAML file with a top-level
// tools list. The file name without extension becomes the server name.
func NewServerFromFile(configPath string, debug bool) (*Server, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read mock config file %s: %w", configPath, err)
	}

	var configData struct {
		Tools []ToolConfig `yaml:"tools"`
	}
	if err := yaml.Unmarshal(content, &configData); err != nil {
		return nil, fmt.Errorf("failed to parse mock config file %s: %w", configPath, err)
	}

	name := filepath.Base(configPath)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return NewServer(name, configData.Tools, debug), nil
}

func toolDefinition(toolConfig ToolConfig) mcp.Tool {
	if toolConfig.InputSchema != nil {
		if schema, err := json.Marshal(toolConfig.InputSchema); err == nil {
			return mcp.NewToolWithRawSchema(toolConfig.Name, toolConfig.Description, schema)
		}
	}
	return mcp.NewTool(toolConfig.Name, mcp.WithDescription(toolConfig.Description))
}

// createToolHandler creates an MCP tool handler function for the given tool name
func (s *Server) createToolHandler(toolName string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		handler, exists := s.toolHandlers[toolName]
		if !exists {
			return mcp.NewToolResultError(fmt.Sprintf("tool %s not found", toolName)), nil
		}

		result, err := handler.HandleCall(request.GetArguments())
		if err != nil {
			return nil, err
		}

		switch r := result.(type) {
		case nil:
			return mcp.NewToolResultText(""), nil
		case string:
			return mcp.NewToolResultText(r), nil
		case map[string]interface{}, []interface{}:
			if jsonBytes, err := json.Marshal(r); err == nil {
				return mcp.NewToolResultText(string(jsonBytes)), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("%v", r)), nil
		default:
			return mcp.NewToolResultText(fmt.Sprintf("%v", r)), nil
		}
	}
}

// Serve speaks MCP on in/out until in is closed or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	if s.debug {
		fmt.Fprintf(os.Stderr, "starting mock MCP server '%s' with %d tools\n", s.name, len(s.toolHandlers))
	}
	return server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
}
