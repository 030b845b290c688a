package config

import "time"

// MCPHostConfig is the top-level configuration structure for mcphost.
type MCPHostConfig struct {
	Gateway  GatewayConfig `yaml:"gateway"`
	Servers  ServersConfig `yaml:"servers"`
	Skills   SkillsConfig  `yaml:"skills"`
	LogLevel string        `yaml:"logLevel,omitempty"` // debug, info, warn or error (default: info)
}

// GatewayConfig defines where the HTTP bridge listens and how it advertises itself.
type GatewayConfig struct {
	Host            string        `yaml:"host,omitempty"`            // Host to bind to (default: localhost)
	Port            int           `yaml:"port,omitempty"`            // Port to bind to (default: 19880)
	BasePath        string        `yaml:"basePath,omitempty"`        // Path prefix for all routes (default: /api/v1/mcp)
	PublicURL       string        `yaml:"publicURL,omitempty"`       // Absolute base URL announced in the SSE endpoint event
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout,omitempty"` // Time allowed for in-flight requests on shutdown
}

// ServersConfig controls the supervised tool servers.
type ServersConfig struct {
	File           string        `yaml:"file,omitempty"`        // Path of the persisted servers document
	GracePeriod    time.Duration `yaml:"gracePeriod,omitempty"` // Wait after SIGTERM before SIGKILL
	CallTimeout    time.Duration `yaml:"callTimeout,omitempty"` // Default timeout of a JSON-RPC call
	ListTimeout    time.Duration `yaml:"listTimeout,omitempty"` // Timeout of tools/list during aggregation
	RestoreOnStart bool          `yaml:"restoreOnStart"`        // Start servers whose last status was running
	Watch          bool          `yaml:"watch"`                 // Broadcast list_changed when the servers file changes
}

// SkillsConfig describes the runner that wraps a script file into a tool server.
// The script path is appended to Args.
type SkillsConfig struct {
	RunnerCommand string   `yaml:"runnerCommand,omitempty"`
	RunnerArgs    []string `yaml:"runnerArgs,omitempty"`
}

// envOverrides are decoded from the environment after the config file has been read.
// Only variables that are set take effect.
type envOverrides struct {
	Host        string `env:"MCPHOST_HOST"`
	Port        int    `env:"MCPHOST_PORT,strict"`
	BasePath    string `env:"MCPHOST_BASE_PATH"`
	PublicURL   string `env:"MCPHOST_PUBLIC_URL"`
	ServersFile string `env:"MCPHOST_SERVERS_FILE"`
	LogLevel    string `env:"MCPHOST_LOG_LEVEL"`
}
