package rpcclient

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

type kind int

const (
	kindInvalid kind = iota
	kindResponse
	kindErrorResponse
	kindNotification
	kindRequest
)

func (k kind) String() string {
	switch k {
	case kindResponse:
		return "response"
	case kindErrorResponse:
		return "error response"
	case kindNotification:
		return "notification"
	case kindRequest:
		return "request"
	default:
		return "invalid"
	}
}

// outbound is a request or notification written to the server.
type outbound struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// inbound is any line read from the server.
type inbound struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// classify sorts a decoded line into one of the four message variants.
func (m *inbound) classify() kind {
	hasID := len(m.ID) > 0 && !bytes.Equal(m.ID, []byte("null"))
	switch {
	case m.Method != "" && hasID:
		return kindRequest
	case m.Method != "":
		return kindNotification
	case hasID && m.Error != nil:
		return kindErrorResponse
	case hasID && m.Result != nil:
		return kindResponse
	default:
		return kindInvalid
	}
}

// numericID returns the id as an int64. Ids sent by this client are numbers,
// so anything else cannot belong to a pending call.
func (m *inbound) numericID() (int64, bool) {
	var id int64
	if err := json.Unmarshal(m.ID, &id); err != nil {
		return 0, false
	}
	return id, true
}

func encodeParams(params any) (json.RawMessage, error) {
	if params == nil {
		return json.RawMessage("{}"), nil
	}
	if raw, ok := params.(json.RawMessage); ok {
		if len(raw) == 0 {
			return json.RawMessage("{}"), nil
		}
		return raw, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode params: %w", err)
	}
	if bytes.Equal(data, []byte("null")) {
		return json.RawMessage("{}"), nil
	}
	return data, nil
}

func encodeLine(id *int64, method string, params any) ([]byte, error) {
	encoded, err := encodeParams(params)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(outbound{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Method:  method,
		Params:  encoded,
	})
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
