package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockHomeDir(t *testing.T, dir string) {
	t.Helper()
	original := osUserHomeDir
	osUserHomeDir = func() (string, error) { return dir, nil }
	t.Cleanup(func() { osUserHomeDir = original })
}

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0644))
}

func TestLoadConfig_DefaultsWhenFileMissing(t *testing.T) {
	home := t.TempDir()
	mockHomeDir(t, home)

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.Gateway.Host)
	assert.Equal(t, DefaultPort, cfg.Gateway.Port)
	assert.Equal(t, DefaultBasePath, cfg.Gateway.BasePath)
	assert.Equal(t, filepath.Join(home, ".mcphost", "mcp_config.json"), cfg.Servers.File)
	assert.Equal(t, 5*time.Second, cfg.Servers.GracePeriod)
	assert.Equal(t, 10*time.Second, cfg.Servers.CallTimeout)
	assert.Equal(t, 5*time.Second, cfg.Servers.ListTimeout)
	assert.True(t, cfg.Servers.Watch)
	assert.False(t, cfg.Servers.RestoreOnStart)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	home := t.TempDir()
	mockHomeDir(t, home)
	dir := t.TempDir()

	writeConfigFile(t, dir, `
gateway:
  port: 9999
  publicURL: http://gateway.local:9999
servers:
  file: ~/servers.json
  gracePeriod: 2s
  restoreOnStart: true
  watch: false
skills:
  runnerCommand: python3
logLevel: debug
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.Gateway.Host, "unset fields keep their default")
	assert.Equal(t, 9999, cfg.Gateway.Port)
	assert.Equal(t, "http://gateway.local:9999", cfg.Gateway.PublicURL)
	assert.Equal(t, filepath.Join(home, "servers.json"), cfg.Servers.File)
	assert.Equal(t, 2*time.Second, cfg.Servers.GracePeriod)
	assert.True(t, cfg.Servers.RestoreOnStart)
	assert.False(t, cfg.Servers.Watch)
	assert.Equal(t, "python3", cfg.Skills.RunnerCommand)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	mockHomeDir(t, t.TempDir())
	dir := t.TempDir()
	writeConfigFile(t, dir, "gateway:\n  port: 9999\n")

	t.Setenv("MCPHOST_PORT", "18000")
	t.Setenv("MCPHOST_HOST", "0.0.0.0")
	t.Setenv("MCPHOST_SERVERS_FILE", "/tmp/custom.json")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 18000, cfg.Gateway.Port)
	assert.Equal(t, "0.0.0.0", cfg.Gateway.Host)
	assert.Equal(t, "/tmp/custom.json", cfg.Servers.File)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{
			name:    "malformed yaml",
			content: "gateway: [unclosed",
		},
		{
			name:    "invalid port",
			content: "gateway:\n  port: 70000\n",
		},
		{
			name:    "invalid env port",
			content: "",
			env:     map[string]string{"MCPHOST_PORT": "not-a-number"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockHomeDir(t, t.TempDir())
			dir := t.TempDir()
			writeConfigFile(t, dir, tt.content)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig(dir)
			assert.Error(t, err)
		})
	}
}
