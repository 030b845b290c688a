package reconciler

import (
	"mcphost/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

// Broadcaster delivers a JSON-RPC envelope to every attached client.
type Broadcaster interface {
	Broadcast(envelope any) error
}

// ToolsChangedNotification is the envelope telling clients to list tools again.
func ToolsChangedNotification() mcp.JSONRPCNotification {
	return mcp.JSONRPCNotification{
		JSONRPC: mcp.JSONRPC_VERSION,
		Notification: mcp.Notification{
			Method: mcp.MethodNotificationToolsListChanged,
		},
	}
}

// NotifyToolsChanged returns a change callback that broadcasts
// notifications/tools/list_changed through b.
func NotifyToolsChanged(b Broadcaster) func() {
	return func() {
		if err := b.Broadcast(ToolsChangedNotification()); err != nil {
			logging.Error("ConfigWatcher", err, "Failed to broadcast tools/list_changed")
		}
	}
}
