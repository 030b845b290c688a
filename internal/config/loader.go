package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mcphost/pkg/logging"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/mcphost"
	configFileName = "config.yaml"
)

// osUserHomeDir is swapped in tests.
var osUserHomeDir = os.UserHomeDir

// GetDefaultConfigPath returns ~/.config/mcphost.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads config.yaml from configPath on top of the defaults and then
// applies MCPHOST_* environment overrides. A missing config.yaml is not an error.
// The result is validated before it is returned.
func LoadConfig(configPath string) (MCPHostConfig, error) {
	config := GetDefaultConfig()

	configFilePath := filepath.Join(configPath, configFileName)
	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return MCPHostConfig{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return MCPHostConfig{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	if err := applyEnvOverrides(&config); err != nil {
		return MCPHostConfig{}, err
	}

	config.Servers.File = expandHome(config.Servers.File)

	if errs := Validate(config); errs.HasErrors() {
		return MCPHostConfig{}, fmt.Errorf("invalid configuration in %s: %w", configFilePath, errs)
	}
	return config, nil
}

func applyEnvOverrides(config *MCPHostConfig) error {
	var env envOverrides
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("error decoding environment overrides: %w", err)
	}

	if env.Host != "" {
		config.Gateway.Host = env.Host
	}
	if env.Port != 0 {
		config.Gateway.Port = env.Port
	}
	if env.BasePath != "" {
		config.Gateway.BasePath = env.BasePath
	}
	if env.PublicURL != "" {
		config.Gateway.PublicURL = env.PublicURL
	}
	if env.ServersFile != "" {
		config.Servers.File = env.ServersFile
	}
	if env.LogLevel != "" {
		config.LogLevel = env.LogLevel
	}
	logging.Debug("ConfigLoader", "Applied environment overrides")
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := osUserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
