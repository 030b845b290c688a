package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"mcphost/internal/server"
	"mcphost/internal/supervisor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrinter(format OutputFormat) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewPrinter(out, errOut, format, true), out, errOut
}

var testTools = []map[string]any{
	{"name": "zeta", "description": "last tool", "_server_name": "b"},
	{"name": "alpha", "description": "first line\nsecond line", "_server_name": "a"},
}

func TestPrinter_ToolsTable(t *testing.T) {
	p, out, _ := newTestPrinter(OutputFormatTable)
	require.NoError(t, p.PrintTools(testTools))

	got := out.String()
	assert.Contains(t, got, "NAME")
	assert.Contains(t, got, "SERVER")
	assert.Contains(t, got, "first line")
	assert.NotContains(t, got, "second line")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("alpha")), bytes.Index(out.Bytes(), []byte("zeta")))
}

func TestPrinter_ToolsJSONAndYAML(t *testing.T) {
	p, out, _ := newTestPrinter(OutputFormatJSON)
	require.NoError(t, p.PrintTools(testTools))

	var decoded map[string][]map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Len(t, decoded["tools"], 2)

	p, out, _ = newTestPrinter(OutputFormatYAML)
	require.NoError(t, p.PrintTools(testTools))
	assert.Contains(t, out.String(), "tools:")
	assert.Contains(t, out.String(), "_server_name: a")
}

func TestPrinter_EmptyLists(t *testing.T) {
	p, out, _ := newTestPrinter(OutputFormatTable)
	require.NoError(t, p.PrintTools(nil))
	assert.Contains(t, out.String(), "No tools found")

	out.Reset()
	require.NoError(t, p.PrintServers(nil))
	assert.Contains(t, out.String(), "No servers configured")
}

func TestPrinter_Servers(t *testing.T) {
	p, out, _ := newTestPrinter(OutputFormatTable)
	states := []supervisor.ServerState{
		{Name: "alpha", Running: true, PID: 42, Spec: supervisor.ServerSpec{Command: "node", Args: []string{"server.js"}, LastStatus: supervisor.StatusRunning}},
		{Name: "beta", Spec: supervisor.ServerSpec{Command: "beta", LastStatus: supervisor.StatusStopped}},
	}
	require.NoError(t, p.PrintServers(states))
	assert.Contains(t, out.String(), "node server.js")
	assert.Contains(t, out.String(), "42")
}

func TestPrinter_Status(t *testing.T) {
	p, out, _ := newTestPrinter(OutputFormatTable)
	require.NoError(t, p.PrintStatus(server.StatusResponse{Status: "started", Server: "alpha", PID: 5}))
	assert.Contains(t, out.String(), "Server alpha started (pid 5)")

	p, out, _ = newTestPrinter(OutputFormatJSON)
	require.NoError(t, p.PrintStatus(server.StatusResponse{Status: "stopped", Server: "alpha"}))
	assert.JSONEq(t, `{"status":"stopped","server":"alpha"}`, out.String())
}

func TestPrinter_CallResult(t *testing.T) {
	raw := json.RawMessage(`{"content":[{"type":"text","text":"hello"}]}`)

	p, out, _ := newTestPrinter(OutputFormatTable)
	require.NoError(t, p.PrintCallResult(raw))
	assert.Equal(t, "hello\n", out.String())

	p, out, _ = newTestPrinter(OutputFormatJSON)
	require.NoError(t, p.PrintCallResult(raw))
	assert.JSONEq(t, string(raw), out.String())

	p, _, _ = newTestPrinter(OutputFormatTable)
	err := p.PrintCallResult(json.RawMessage(`{"isError":true,"content":[{"type":"text","text":"bad input"}]}`))
	assert.EqualError(t, err, "bad input")

	p, out, _ = newTestPrinter(OutputFormatTable)
	require.NoError(t, p.PrintCallResult(json.RawMessage(`{"value":1}`)))
	assert.JSONEq(t, `{"value":1}`, out.String())
}

func TestPrinter_WithSpinner(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	p := NewPrinter(out, errOut, OutputFormatTable, false)

	require.NoError(t, p.WithSpinner("Listing tools", func() error { return nil }))

	err := p.WithSpinner("Calling tool", func() error { return errors.New("boom") })
	assert.EqualError(t, err, "boom")
	assert.Contains(t, errOut.String(), "Calling tool failed")
}

func TestParseEnvPairs(t *testing.T) {
	env, err := ParseEnvPairs([]string{"A=1", "B=x=y", "C="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "x=y", "C": ""}, env)

	env, err = ParseEnvPairs(nil)
	require.NoError(t, err)
	assert.Nil(t, env)

	_, err = ParseEnvPairs([]string{"novalue"})
	assert.Error(t, err)
	_, err = ParseEnvPairs([]string{"=1"})
	assert.Error(t, err)
}

func TestCommandFlags_Validate(t *testing.T) {
	flags := CommandFlags{OutputFormat: "json", Endpoint: DefaultEndpoint}
	assert.NoError(t, flags.Validate())

	flags.OutputFormat = "wide"
	assert.Error(t, flags.Validate())

	flags = CommandFlags{OutputFormat: "table", Endpoint: " "}
	assert.Error(t, flags.Validate())
}

func TestGetDefaultEndpoint(t *testing.T) {
	t.Setenv(EndpointEnvVar, "")
	assert.Equal(t, DefaultEndpoint, GetDefaultEndpoint())

	t.Setenv(EndpointEnvVar, "http://gateway:1234/api/v1/mcp")
	assert.Equal(t, "http://gateway:1234/api/v1/mcp", GetDefaultEndpoint())
}
