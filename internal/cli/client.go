package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mcphost/internal/server"
	"mcphost/internal/supervisor"
)

// DefaultRequestTimeout bounds every REST request. Tool calls can be slow, so
// it is larger than the gateway's own call timeout.
const DefaultRequestTimeout = 60 * time.Second

// Client talks to a running gateway over its REST API.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for the gateway REST base URL, e.g.
// http://localhost:19880/api/v1/mcp.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: DefaultRequestTimeout},
	}
}

// Endpoint returns the base URL the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// ListTools returns the aggregated tool catalog. Each tool is the backend's
// definition plus the owning server under "_server_name".
func (c *Client) ListTools(ctx context.Context) ([]map[string]any, error) {
	var body struct {
		Tools []map[string]any `json:"tools"`
	}
	if err := c.do(ctx, http.MethodGet, "/tools", nil, &body); err != nil {
		return nil, err
	}
	return body.Tools, nil
}

// CallTool invokes toolName on serverName and returns the backend's raw result.
func (c *Client) CallTool(ctx context.Context, toolName, serverName string, args map[string]any) (json.RawMessage, error) {
	req := server.CallToolRequest{ServerName: serverName, Arguments: args}
	var result json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/tools/"+url.PathEscape(toolName)+"/call", req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListServers returns every configured or running server.
func (c *Client) ListServers(ctx context.Context) ([]supervisor.ServerState, error) {
	var body struct {
		Servers []supervisor.ServerState `json:"servers"`
	}
	if err := c.do(ctx, http.MethodGet, "/servers", nil, &body); err != nil {
		return nil, err
	}
	return body.Servers, nil
}

// LastActiveServers returns the servers recorded as running.
func (c *Client) LastActiveServers(ctx context.Context) ([]string, error) {
	var body struct {
		LastActive []string `json:"last_active_servers"`
	}
	if err := c.do(ctx, http.MethodGet, "/server/state", nil, &body); err != nil {
		return nil, err
	}
	return body.LastActive, nil
}

// StartServer starts an already configured server.
func (c *Client) StartServer(ctx context.Context, name string) (server.StatusResponse, error) {
	var status server.StatusResponse
	err := c.do(ctx, http.MethodPost, "/server/"+url.PathEscape(name)+"/start", nil, &status)
	return status, err
}

// PutServer saves spec under name and (re)starts the server.
func (c *Client) PutServer(ctx context.Context, name string, spec supervisor.ServerSpec) (server.StatusResponse, error) {
	var status server.StatusResponse
	err := c.do(ctx, http.MethodPut, "/server/"+url.PathEscape(name), spec, &status)
	return status, err
}

// StopServer stops a server and records it as stopped.
func (c *Client) StopServer(ctx context.Context, name string) (server.StatusResponse, error) {
	var status server.StatusResponse
	err := c.do(ctx, http.MethodPost, "/server/"+url.PathEscape(name)+"/stop", nil, &status)
	return status, err
}

// DeleteServer stops a server and removes it from the servers file.
func (c *Client) DeleteServer(ctx context.Context, name string) (server.StatusResponse, error) {
	var status server.StatusResponse
	err := c.do(ctx, http.MethodDelete, "/server/"+url.PathEscape(name), nil, &status)
	return status, err
}

// StartSkill starts scriptPath as server name.
func (c *Client) StartSkill(ctx context.Context, name, scriptPath string, env map[string]string) (server.StatusResponse, error) {
	req := server.StartSkillRequest{ScriptPath: scriptPath, Env: env}
	var status server.StatusResponse
	err := c.do(ctx, http.MethodPost, "/skills/"+url.PathEscape(name)+"/start", req, &status)
	return status, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("invalid endpoint %s: %w", c.endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ClassifyConnectionError(err, c.endpoint)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", c.endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody server.ErrorResponse
		if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
			apiErr.Message = errBody.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], bytes.TrimSpace(data)...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", c.endpoint, err)
	}
	return nil
}
