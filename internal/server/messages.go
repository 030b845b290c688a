package server

import (
	"context"
	"encoding/json"
	"fmt"

	"mcphost/internal/api"
	"mcphost/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

// ProtocolVersion is the MCP revision reported by initialize on the SSE transport.
const ProtocolVersion = "2024-11-05"

// inboundMessage is a JSON-RPC envelope posted to /messages.
type inboundMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *mcp.RequestId  `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// dispatch handles one inbound envelope and returns the reply to broadcast,
// or nil when there is nothing to send. Only notifications/initialized and
// unknown methods without an id go unanswered.
func (s *Server) dispatch(ctx context.Context, msg *inboundMessage) any {
	hasID := msg.ID != nil && !msg.ID.IsNil()

	switch msg.Method {
	case string(mcp.MethodInitialize):
		return s.result(msg, s.initializeResult())

	case string(mcp.MethodPing):
		return s.result(msg, map[string]any{})

	case "notifications/initialized":
		logging.Debug("Server", "SSE client initialized")
		return nil

	case string(mcp.MethodToolsList):
		tools, err := s.tools.ListTools(ctx)
		if err != nil {
			return s.rpcError(msg, mcp.INTERNAL_ERROR, err.Error())
		}
		return s.result(msg, map[string]any{"tools": tools})

	case string(mcp.MethodToolsCall):
		var params callParams
		if len(msg.Params) > 0 {
			if err := json.Unmarshal(msg.Params, &params); err != nil {
				return s.rpcError(msg, mcp.INVALID_PARAMS, fmt.Sprintf("invalid tools/call params: %v", err))
			}
		}
		result, err := s.tools.CallTool(ctx, params.Name, params.Arguments, "")
		if err != nil {
			if api.IsNotFound(err) {
				return s.rpcError(msg, mcp.METHOD_NOT_FOUND, err.Error())
			}
			return s.rpcError(msg, mcp.INTERNAL_ERROR, err.Error())
		}
		return s.result(msg, result)

	default:
		if !hasID {
			logging.Debug("Server", "Ignoring notification %s", msg.Method)
			return nil
		}
		return s.rpcError(msg, mcp.METHOD_NOT_FOUND, "Method not found")
	}
}

func (s *Server) initializeResult() map[string]any {
	return map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{"listChanged": true},
		},
		"serverInfo": mcp.Implementation{
			Name:    s.opts.Name,
			Version: s.opts.Version,
		},
	}
}

// result wraps a method result. A request without an id is still answered,
// with "id": null.
func (s *Server) result(msg *inboundMessage, result any) any {
	var id mcp.RequestId
	if msg.ID != nil {
		id = *msg.ID
	}
	return mcp.JSONRPCResponse{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Result:  result,
	}
}

func (s *Server) rpcError(msg *inboundMessage, code int, message string) any {
	logging.Debug("Server", "%s failed with %d: %s", msg.Method, code, message)
	var id mcp.RequestId
	if msg.ID != nil {
		id = *msg.ID
	}
	return mcp.JSONRPCError{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Error: mcp.JSONRPCErrorDetails{
			Code:    code,
			Message: message,
		},
	}
}
