package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"mcphost/internal/config"
	"mcphost/pkg/logging"
)

// Application represents the gateway process: its configuration and the
// services built from it.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: initialize logging, load configuration, build services
//  2. Execution phase: serve until the context is cancelled or a signal arrives
//
// Example usage:
//
//	cfg := app.NewConfig(false, true, "", version)
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication creates and initializes a new application instance with the provided configuration.
//
// Configuration Loading Behavior:
//   - If cfg.MCPHostConfig is set: it is used as is
//   - If cfg.ConfigPath is set: config.yaml is loaded from that directory
//   - Otherwise: config.yaml is loaded from ~/.config/mcphost
//
// In every case MCPHOST_* environment variables override file values.
func NewApplication(cfg *Config) (*Application, error) {
	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}

	var logOutput io.Writer = os.Stdout
	if cfg.LogOutput != nil {
		logOutput = cfg.LogOutput
	}
	logging.InitForCLI(appLogLevel, logOutput)

	if cfg.MCPHostConfig == nil {
		configPath := cfg.ConfigPath
		if configPath == "" {
			defaultPath, err := config.GetDefaultConfigPath()
			if err != nil {
				return nil, err
			}
			configPath = defaultPath
		}

		hostCfg, err := config.LoadConfig(configPath)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration from %s", configPath)
			return nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
		}
		cfg.MCPHostConfig = &hostCfg
	}

	// The configured level applies unless --debug asked for more.
	if !cfg.Debug {
		if level, ok := logging.ParseLevel(cfg.MCPHostConfig.LogLevel); ok && level != appLogLevel {
			logging.InitForCLI(level, logOutput)
		}
	}

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Services returns the services built during bootstrap.
func (a *Application) Services() *Services {
	return a.services
}

// Run serves the gateway until ctx is cancelled or SIGINT/SIGTERM arrives,
// then shuts everything down.
func (a *Application) Run(ctx context.Context) error {
	return runGateway(ctx, a.config, a.services)
}
