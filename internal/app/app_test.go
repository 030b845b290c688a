package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"mcphost/internal/config"
	"mcphost/internal/supervisor"
	"mcphost/internal/testing/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	mock.RunStubIfRequested()
	os.Exit(m.Run())
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	hostCfg := config.GetDefaultConfig()
	hostCfg.Gateway.Host = "127.0.0.1"
	hostCfg.Gateway.Port = 0
	hostCfg.Gateway.ShutdownTimeout = 5 * time.Second
	hostCfg.Servers.File = filepath.Join(t.TempDir(), "mcp_config.json")
	hostCfg.Servers.Watch = false

	cfg := NewConfig(false, false, "", "test")
	cfg.LogOutput = &bytes.Buffer{}
	cfg.MCPHostConfig = &hostCfg
	return cfg
}

func writeServersFile(t *testing.T, path string, doc supervisor.ConfigDocument) {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func waitForAddr(t *testing.T, application *Application) string {
	t.Helper()
	var addr string
	require.Eventually(t, func() bool {
		addr = application.Services().Server.Addr()
		return addr != ""
	}, 5*time.Second, 10*time.Millisecond)
	return addr
}

func TestNewApplication_LoadsConfigFromDirectory(t *testing.T) {
	dir := t.TempDir()
	serversFile := filepath.Join(dir, "servers.json")
	configYAML := "gateway:\n  port: 19999\nservers:\n  file: " + serversFile + "\n  watch: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0644))

	cfg := NewConfig(false, false, dir, "test")
	cfg.LogOutput = &bytes.Buffer{}

	application, err := NewApplication(cfg)
	require.NoError(t, err)

	assert.Equal(t, 19999, cfg.MCPHostConfig.Gateway.Port)
	assert.Equal(t, serversFile, application.Services().Supervisor.Store().Path())
	assert.Nil(t, application.Services().Watcher)
	assert.FileExists(t, serversFile)
}

func TestNewApplication_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("gateway:\n  port: 70000\n"), 0644))

	cfg := NewConfig(false, false, dir, "test")
	cfg.LogOutput = &bytes.Buffer{}

	_, err := NewApplication(cfg)
	assert.Error(t, err)
}

func TestInitializeServices_WatcherEnabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.MCPHostConfig.Servers.Watch = true

	services, err := InitializeServices(cfg)
	require.NoError(t, err)
	assert.NotNil(t, services.Watcher)
}

func TestRun_RestoresServersAndReleasesOnShutdown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Restore = true

	command, args, env := mock.StubCommand("echoer", mock.ModeServe)
	writeServersFile(t, cfg.MCPHostConfig.Servers.File, supervisor.ConfigDocument{
		Servers: map[string]*supervisor.ServerSpec{
			"echoer": {Command: command, Args: args, Env: env, LastStatus: supervisor.StatusRunning},
			"idle":   {Command: command, Args: args, Env: env, LastStatus: supervisor.StatusStopped},
		},
	})

	application, err := NewApplication(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	addr := waitForAddr(t, application)

	resp, err := http.Get("http://" + addr + config.DefaultBasePath + "/tools")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Tools []map[string]any `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Tools, 1)
	assert.Equal(t, "echo", body.Tools[0]["name"])
	assert.Equal(t, "echoer", body.Tools[0]["_server_name"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	assert.Nil(t, application.Services().Supervisor.Process("echoer"))
	spec, ok := application.Services().Supervisor.ConfiguredServer("echoer")
	require.True(t, ok)
	assert.Equal(t, supervisor.StatusRunning, spec.LastStatus)
	assert.Equal(t, []string{"echoer"}, application.Services().Supervisor.LastActiveServers())
}

func TestRun_WithoutRestoreStartsNothing(t *testing.T) {
	cfg := testConfig(t)

	command, args, env := mock.StubCommand("echoer", mock.ModeServe)
	writeServersFile(t, cfg.MCPHostConfig.Servers.File, supervisor.ConfigDocument{
		Servers: map[string]*supervisor.ServerSpec{
			"echoer": {Command: command, Args: args, Env: env, LastStatus: supervisor.StatusRunning},
		},
	})

	application, err := NewApplication(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	waitForAddr(t, application)
	assert.Empty(t, application.Services().Supervisor.ProcessNames())

	cancel()
	require.NoError(t, <-done)
}

func TestRun_PortInUse(t *testing.T) {
	first, err := NewApplication(testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- first.Run(ctx) }()
	addr := waitForAddr(t, first)

	cfg := testConfig(t)
	_, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	cfg.MCPHostConfig.Gateway.Port = port

	second, err := NewApplication(cfg)
	require.NoError(t, err)
	assert.Error(t, second.Run(context.Background()))

	cancel()
	require.NoError(t, <-done)
}
