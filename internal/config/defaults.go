package config

import (
	"path/filepath"
	"time"
)

const (
	DefaultHost            = "localhost"
	DefaultPort            = 19880
	DefaultBasePath        = "/api/v1/mcp"
	DefaultShutdownTimeout = 10 * time.Second

	DefaultGracePeriod = 5 * time.Second
	DefaultCallTimeout = 10 * time.Second
	DefaultListTimeout = 5 * time.Second

	serversDir      = ".mcphost"
	serversFileName = "mcp_config.json"
)

// GetDefaultConfig returns the default configuration. The servers file lives
// in ~/.mcphost unless the home directory cannot be determined.
func GetDefaultConfig() MCPHostConfig {
	serversFile := filepath.Join(serversDir, serversFileName)
	if home, err := osUserHomeDir(); err == nil {
		serversFile = filepath.Join(home, serversDir, serversFileName)
	}

	return MCPHostConfig{
		Gateway: GatewayConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			BasePath:        DefaultBasePath,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Servers: ServersConfig{
			File:        serversFile,
			GracePeriod: DefaultGracePeriod,
			CallTimeout: DefaultCallTimeout,
			ListTimeout: DefaultListTimeout,
			Watch:       true,
		},
		LogLevel: "info",
	}
}
