package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"mcphost/internal/api"
	"mcphost/internal/server"
	"mcphost/internal/supervisor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway serves the REST routes of a gateway with a single echo tool
// owned by server "alpha".
type fakeGateway struct {
	mu    sync.Mutex
	calls []server.CallToolRequest
	puts  map[string]supervisor.ServerSpec
	*httptest.Server
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()
	g := &fakeGateway{puts: make(map[string]supervisor.ServerSpec)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/mcp/tools", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, map[string]any{"tools": []map[string]any{{
			"name":         "echo",
			"description":  "Returns its arguments\nas JSON",
			"inputSchema":  map[string]any{"type": "object", "properties": map[string]any{"x": map[string]any{"type": "string"}}},
			"_server_name": "alpha",
		}}})
	})
	mux.HandleFunc("POST /api/v1/mcp/tools/{name}/call", func(w http.ResponseWriter, r *http.Request) {
		var req server.CallToolRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeTestJSON(w, http.StatusBadRequest, server.ErrorResponse{Error: err.Error()})
			return
		}
		g.mu.Lock()
		g.calls = append(g.calls, req)
		g.mu.Unlock()

		switch r.PathValue("name") {
		case "echo":
			args, _ := json.Marshal(req.Arguments)
			writeTestJSON(w, http.StatusOK, map[string]any{
				"content": []map[string]any{{"type": "text", "text": string(args)}},
			})
		case "broken":
			writeTestJSON(w, http.StatusInternalServerError, server.ErrorResponse{Error: "disk full"})
		default:
			writeTestJSON(w, http.StatusNotFound, server.ErrorResponse{Error: "Tool " + r.PathValue("name") + " not found"})
		}
	})
	mux.HandleFunc("GET /api/v1/mcp/servers", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, map[string]any{"servers": []supervisor.ServerState{
			{Name: "alpha", Running: true, PID: 42, Spec: supervisor.ServerSpec{Command: "alpha-server", LastStatus: supervisor.StatusRunning}},
		}})
	})
	mux.HandleFunc("GET /api/v1/mcp/server/state", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, map[string]any{"last_active_servers": []string{"alpha"}})
	})
	mux.HandleFunc("PUT /api/v1/mcp/server/{name}", func(w http.ResponseWriter, r *http.Request) {
		var spec supervisor.ServerSpec
		_ = json.NewDecoder(r.Body).Decode(&spec)
		g.mu.Lock()
		g.puts[r.PathValue("name")] = spec
		g.mu.Unlock()
		writeTestJSON(w, http.StatusOK, server.StatusResponse{Status: "started", Server: r.PathValue("name"), PID: 7})
	})
	mux.HandleFunc("POST /api/v1/mcp/server/{name}/stop", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, server.StatusResponse{Status: "stopped", Server: r.PathValue("name")})
	})
	mux.HandleFunc("POST /api/v1/mcp/skills/{name}/start", func(w http.ResponseWriter, r *http.Request) {
		var req server.StartSkillRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ScriptPath == "" {
			writeTestJSON(w, http.StatusBadRequest, server.ErrorResponse{Error: "script_path is required"})
			return
		}
		writeTestJSON(w, http.StatusOK, server.StatusResponse{Status: "started", Server: r.PathValue("name"), PID: 9})
	})

	g.Server = httptest.NewServer(mux)
	t.Cleanup(g.Close)
	return g
}

func (g *fakeGateway) endpoint() string {
	return g.URL + "/api/v1/mcp"
}

func writeTestJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestClient_ListTools(t *testing.T) {
	g := newFakeGateway(t)
	c := NewClient(g.endpoint() + "/")

	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "echo", tools[0]["name"])
	assert.Equal(t, "alpha", tools[0]["_server_name"])
}

func TestClient_CallTool(t *testing.T) {
	g := newFakeGateway(t)
	c := NewClient(g.endpoint())

	raw, err := c.CallTool(context.Background(), "echo", "alpha", map[string]any{"x": "1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":[{"type":"text","text":"{\"x\":\"1\"}"}]}`, string(raw))

	require.Len(t, g.calls, 1)
	assert.Equal(t, "alpha", g.calls[0].ServerName)
	assert.Equal(t, map[string]any{"x": "1"}, g.calls[0].Arguments)
}

func TestClient_ErrorReplies(t *testing.T) {
	g := newFakeGateway(t)
	c := NewClient(g.endpoint())

	_, err := c.CallTool(context.Background(), "missing", "alpha", nil)
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
	assert.Equal(t, "Tool missing not found", err.Error())

	_, err = c.CallTool(context.Background(), "broken", "alpha", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "disk full", apiErr.Message)
	assert.False(t, api.IsNotFound(err))

	_, err = c.StartSkill(context.Background(), "s", "", nil)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestClient_ServerLifecycle(t *testing.T) {
	g := newFakeGateway(t)
	c := NewClient(g.endpoint())
	ctx := context.Background()

	states, err := c.ListServers(ctx)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, 42, states[0].PID)

	active, err := c.LastActiveServers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, active)

	status, err := c.PutServer(ctx, "beta", supervisor.ServerSpec{Command: "beta-server", Args: []string{"--stdio"}})
	require.NoError(t, err)
	assert.Equal(t, server.StatusResponse{Status: "started", Server: "beta", PID: 7}, status)
	assert.Equal(t, []string{"--stdio"}, g.puts["beta"].Args)

	status, err = c.StopServer(ctx, "beta")
	require.NoError(t, err)
	assert.Equal(t, "stopped", status.Status)

	status, err = c.StartSkill(ctx, "skill", "/tmp/skill.py", map[string]string{"A": "1"})
	require.NoError(t, err)
	assert.Equal(t, 9, status.PID)
}

func TestClient_ConnectionRefused(t *testing.T) {
	g := newFakeGateway(t)
	endpoint := g.endpoint()
	g.Close()

	_, err := NewClient(endpoint).ListTools(context.Background())
	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, ConnectionErrorNetwork, connErr.Type)
}
