package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bridgeSession struct {
	t      *testing.T
	in     *io.PipeWriter
	out    *bufio.Reader
	nextID int
}

func startBridge(t *testing.T, endpoint string) *bridgeSession {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = NewBridge(NewClient(endpoint), "test").Serve(ctx, inR, outW)
		_ = outW.Close()
	}()
	t.Cleanup(func() {
		cancel()
		_ = inW.Close()
		<-done
	})

	return &bridgeSession{t: t, in: inW, out: bufio.NewReader(outR)}
}

func (s *bridgeSession) request(method string, params any) map[string]any {
	s.t.Helper()
	s.nextID++
	msg := map[string]any{"jsonrpc": "2.0", "id": s.nextID, "method": method}
	if params != nil {
		msg["params"] = params
	}
	data, err := json.Marshal(msg)
	require.NoError(s.t, err)
	_, err = s.in.Write(append(data, '\n'))
	require.NoError(s.t, err)

	type reply struct {
		msg map[string]any
		err error
	}
	replies := make(chan reply, 1)
	go func() {
		line, err := s.out.ReadBytes('\n')
		if err != nil {
			replies <- reply{err: err}
			return
		}
		var decoded map[string]any
		replies <- reply{msg: decoded, err: json.Unmarshal(line, &decoded)}
	}()

	select {
	case r := <-replies:
		require.NoError(s.t, r.err)
		assert.EqualValues(s.t, s.nextID, r.msg["id"])
		return r.msg
	case <-time.After(5 * time.Second):
		s.t.Fatalf("no reply to %s", method)
		return nil
	}
}

func (s *bridgeSession) initialize() {
	s.t.Helper()
	resp := s.request("initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "1.0.0"},
	})
	require.Contains(s.t, resp, "result")
}

func TestBridge_ListsToolsWithoutOwner(t *testing.T) {
	g := newFakeGateway(t)
	s := startBridge(t, g.endpoint())
	s.initialize()

	resp := s.request("tools/list", nil)
	result := resp["result"].(map[string]any)
	tools := result["tools"].([]any)
	require.Len(t, tools, 1)

	tool := tools[0].(map[string]any)
	assert.Equal(t, "echo", tool["name"])
	assert.NotContains(t, tool, "_server_name")
	schema := tool["inputSchema"].(map[string]any)
	assert.Contains(t, schema["properties"], "x")
}

func TestBridge_CallsToolOnOwner(t *testing.T) {
	g := newFakeGateway(t)
	s := startBridge(t, g.endpoint())
	s.initialize()

	resp := s.request("tools/call", map[string]any{"name": "echo", "arguments": map[string]any{"x": "hi"}})
	result := resp["result"].(map[string]any)
	content := result["content"].([]any)
	require.Len(t, content, 1)
	assert.JSONEq(t, `{"x":"hi"}`, content[0].(map[string]any)["text"].(string))
	assert.NotEqual(t, true, result["isError"])

	require.Len(t, g.calls, 1)
	assert.Equal(t, "alpha", g.calls[0].ServerName)
}

func TestBridge_UnreachableGateway(t *testing.T) {
	g := newFakeGateway(t)
	endpoint := g.endpoint()
	g.Close()

	s := startBridge(t, endpoint)
	s.initialize()

	resp := s.request("tools/list", nil)
	result := resp["result"].(map[string]any)
	assert.Empty(t, result["tools"])
}

func TestBridgeTool(t *testing.T) {
	tool, owner, err := bridgeTool(map[string]any{"name": "t", "_server_name": "srv"})
	require.NoError(t, err)
	assert.Equal(t, "srv", owner)
	assert.JSONEq(t, `{"type":"object"}`, string(tool.RawInputSchema))

	_, _, err = bridgeTool(map[string]any{"description": "nameless"})
	assert.Error(t, err)
}
