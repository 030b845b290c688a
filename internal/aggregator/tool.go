package aggregator

import (
	"encoding/json"
	"fmt"
)

// ServerNameField is the key under which a tool's owning server is added to
// the tool object returned by the server.
const ServerNameField = "_server_name"

// Tool is one entry of the aggregated catalog: the tool object as the owning
// server returned it, tagged with that server's name.
type Tool struct {
	Name       string
	Server     string
	Definition map[string]any
}

// Description returns the tool description, if the server provided one.
func (t Tool) Description() string {
	desc, _ := t.Definition["description"].(string)
	return desc
}

// InputSchema returns the raw input schema, or an empty object schema.
func (t Tool) InputSchema() json.RawMessage {
	schema, ok := t.Definition["inputSchema"]
	if !ok || schema == nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return data
}

// MarshalJSON renders the server's tool object with ServerNameField added.
func (t Tool) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Definition)+2)
	for k, v := range t.Definition {
		out[k] = v
	}
	out["name"] = t.Name
	out[ServerNameField] = t.Server
	return json.Marshal(out)
}

// UnmarshalJSON reads a tagged tool object back.
func (t *Tool) UnmarshalJSON(data []byte) error {
	var def map[string]any
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	name, _ := def["name"].(string)
	if name == "" {
		return fmt.Errorf("tool object has no name")
	}
	server, _ := def[ServerNameField].(string)
	delete(def, ServerNameField)

	t.Name = name
	t.Server = server
	t.Definition = def
	return nil
}

// toolsFromResult decodes a tools/list result and tags every tool with server.
func toolsFromResult(server string, result json.RawMessage) ([]Tool, error) {
	var payload struct {
		Tools []map[string]any `json:"tools"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("invalid tools/list result from %s: %w", server, err)
	}

	tools := make([]Tool, 0, len(payload.Tools))
	for _, def := range payload.Tools {
		name, _ := def["name"].(string)
		if name == "" {
			continue
		}
		tools = append(tools, Tool{Name: name, Server: server, Definition: def})
	}
	return tools, nil
}
