package aggregator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTool_JSON(t *testing.T) {
	tool := Tool{
		Name:   "read_file",
		Server: "files",
		Definition: map[string]any{
			"name":        "read_file",
			"description": "Reads a file",
			"inputSchema": map[string]any{"type": "object"},
		},
	}

	data, err := json.Marshal(tool)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"read_file","description":"Reads a file","inputSchema":{"type":"object"},"_server_name":"files"}`, string(data))

	var decoded Tool
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "read_file", decoded.Name)
	assert.Equal(t, "files", decoded.Server)
	assert.NotContains(t, decoded.Definition, ServerNameField)
	assert.Equal(t, "Reads a file", decoded.Description())
	assert.JSONEq(t, `{"type":"object"}`, string(decoded.InputSchema()))
}

func TestToolsFromResult(t *testing.T) {
	tools, err := toolsFromResult("files", json.RawMessage(`{"tools":[{"name":"a"},{"description":"nameless"},{"name":"b"}]}`))
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "a", tools[0].Name)
	assert.Equal(t, "files", tools[1].Server)

	_, err = toolsFromResult("files", json.RawMessage(`[]`))
	assert.Error(t, err)
}
