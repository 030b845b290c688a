package mock

// ToolConfig defines configuration for a mock tool
type ToolConfig struct {
	// Name is the unique identifier for the tool
	Name string `yaml:"name"`
	// Description describes what the tool does
	Description string `yaml:"description"`
	// InputSchema defines the expected input schema (JSON Schema)
	InputSchema map[string]interface{} `yaml:"input_schema"`
	// Echo makes the tool return its arguments as JSON instead of a configured response
	Echo bool `yaml:"echo,omitempty"`
	// Responses defines possible responses for this tool
	Responses []ToolResponse `yaml:"responses"`
}

// ToolResponse defines a conditional response for a mock tool
type ToolResponse struct {
	// Condition defines parameter matching for this response (optional)
	// If empty, this response is used as a fallback
	Condition map[string]interface{} `yaml:"condition,omitempty"`
	// Response is the response data to return
	Response interface{} `yaml:"response,omitempty"`
	// Error is the error message to return instead of response
	Error string `yaml:"error,omitempty"`
	// Delay simulates response latency (e.g., "2s", "500ms")
	Delay string `yaml:"delay,omitempty"`
}

// Mode selects how a stub process behaves on stdio.
type Mode string

const (
	// ModeServe speaks MCP over stdio.
	ModeServe Mode = "serve"
	// ModeNoisy prints non-JSON lines on stdout before speaking MCP.
	ModeNoisy Mode = "noisy"
	// ModeSilent reads stdin and never answers.
	ModeSilent Mode = "silent"
	// ModeExit exits right away with a non-zero code.
	ModeExit Mode = "exit"
	// ModeStubborn speaks MCP but ignores SIGTERM and stays alive after stdin
	// closes, so only a kill after the grace period ends it.
	ModeStubborn Mode = "stubborn"
)
