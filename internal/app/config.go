package app

import (
	"io"

	"mcphost/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug forces debug logging regardless of the configured level
	Debug bool

	// Restore starts the servers that were running at the last shutdown
	Restore bool

	// Custom configuration directory (optional); ~/.config/mcphost when empty
	ConfigPath string

	// Version is reported to tool servers and SSE clients
	Version string

	// LogOutput receives log lines; stdout when nil
	LogOutput io.Writer

	// Gateway configuration; loaded from ConfigPath when nil
	MCPHostConfig *config.MCPHostConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug, restore bool, configPath, version string) *Config {
	return &Config{
		Debug:      debug,
		Restore:    restore,
		ConfigPath: configPath,
		Version:    version,
	}
}
