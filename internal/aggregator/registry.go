package aggregator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mcphost/internal/api"
	"mcphost/internal/rpcclient"
	"mcphost/internal/supervisor"
	"mcphost/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

// ProtocolVersion is the MCP protocol revision announced to tool servers.
const ProtocolVersion = "2024-11-05"

// DefaultInitTimeout bounds the initialize handshake with a freshly started server.
const DefaultInitTimeout = 5 * time.Second

// Supervisor is the part of the process supervisor used by the registry and
// the gateway. *supervisor.Supervisor implements it.
type Supervisor interface {
	Process(name string) *supervisor.ProcessRecord
	ProcessNames() []string
	EnsureServer(ctx context.Context, name string) (*supervisor.ProcessRecord, error)
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// ClientName and ClientVersion are sent as clientInfo during initialize.
	ClientName    string
	ClientVersion string
	// InitTimeout defaults to DefaultInitTimeout.
	InitTimeout time.Duration
}

type registryEntry struct {
	client *rpcclient.Client
	record *supervisor.ProcessRecord
}

// Registry hands out one live RPC client per server name, starting the server
// from its persisted spec when it is not running.
//
// The whole check-stale, start, connect sequence runs under a single mutex, so
// concurrent callers asking for the same unseen server end up sharing one
// process and one client.
type Registry struct {
	sup  Supervisor
	opts RegistryOptions

	mu      sync.Mutex
	clients map[string]*registryEntry
}

// NewRegistry creates an empty registry backed by sup.
func NewRegistry(sup Supervisor, opts RegistryOptions) *Registry {
	if opts.ClientName == "" {
		opts.ClientName = "mcphost"
	}
	if opts.ClientVersion == "" {
		opts.ClientVersion = "dev"
	}
	if opts.InitTimeout <= 0 {
		opts.InitTimeout = DefaultInitTimeout
	}
	return &Registry{
		sup:     sup,
		opts:    opts,
		clients: make(map[string]*registryEntry),
	}
}

// GetClient returns a live client for name.
//
// A cached client is reused only while it is running and its process is the
// current, running record with an open stdin. Otherwise the cached client is
// stopped and replaced. When no process is running the server is started from
// the servers file; an unknown name, or one whose stop is in progress, yields
// an *api.NotFoundError.
func (r *Registry) GetClient(ctx context.Context, name string) (*rpcclient.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := r.sup.Process(name)

	if entry, ok := r.clients[name]; ok {
		if r.alive(entry, record) {
			return entry.client, nil
		}
		logging.Info("Registry", "Client for %s is stale, reconnecting", name)
		entry.client.Stop()
		delete(r.clients, name)
	}

	if record == nil || !record.Running() {
		started, err := r.sup.EnsureServer(ctx, name)
		if api.IsNotFound(err) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("failed to start server %s: %w", name, err)
		}
		record = started
	}

	client := rpcclient.New(name, record)
	if err := client.Start(); err != nil {
		return nil, fmt.Errorf("failed to connect to server %s: %w", name, err)
	}

	r.initialize(ctx, client)

	r.clients[name] = &registryEntry{client: client, record: record}
	logging.Info("Registry", "Connected to server %s (pid %d)", name, record.PID())
	return client, nil
}

// initialize runs the MCP handshake. Servers that do not answer are still used.
func (r *Registry) initialize(ctx context.Context, client *rpcclient.Client) {
	params := mcp.InitializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    mcp.ClientCapabilities{},
		ClientInfo: mcp.Implementation{
			Name:    r.opts.ClientName,
			Version: r.opts.ClientVersion,
		},
	}

	if _, err := client.Call(ctx, string(mcp.MethodInitialize), params, r.opts.InitTimeout); err != nil {
		logging.Warn("Registry", "Initialize handshake with %s failed, continuing without it: %v", client.Name(), err)
	}
	if err := client.Notify("notifications/initialized", nil); err != nil {
		logging.Warn("Registry", "Failed to send initialized notification to %s: %v", client.Name(), err)
	}
}

func (r *Registry) alive(entry *registryEntry, record *supervisor.ProcessRecord) bool {
	if !entry.client.Running() {
		return false
	}
	if record == nil || record != entry.record {
		return false
	}
	return record.Running() && !record.StdinClosed()
}

// Evict stops and forgets the client of name, if any.
func (r *Registry) Evict(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.clients[name]; ok {
		entry.client.Stop()
		delete(r.clients, name)
		logging.Debug("Registry", "Evicted client for %s", name)
	}
}

// Names returns the sorted names with a cached client.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close stops every cached client.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, entry := range r.clients {
		entry.client.Stop()
		delete(r.clients, name)
	}
}
