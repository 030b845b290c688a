package app

import (
	"fmt"

	"mcphost/internal/aggregator"
	"mcphost/internal/reconciler"
	"mcphost/internal/server"
	"mcphost/internal/supervisor"
	"mcphost/pkg/logging"
)

// Services holds all components of a running gateway.
//
// They are created in dependency order:
//  1. Supervisor (owns the servers file and the child processes)
//  2. Registry and Gateway (clients and tool aggregation on top of the supervisor)
//  3. Hub and Server (HTTP transports)
//  4. Watcher (servers file changes, broadcast through the hub)
type Services struct {
	Supervisor *supervisor.Supervisor
	Registry   *aggregator.Registry
	Gateway    *aggregator.Gateway
	Hub        *server.Hub
	Server     *server.Server

	// Watcher is nil when watching is disabled
	Watcher *reconciler.ConfigWatcher
}

// InitializeServices builds the gateway components from cfg.MCPHostConfig.
func InitializeServices(cfg *Config) (*Services, error) {
	hostCfg := cfg.MCPHostConfig
	if hostCfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	runner := supervisor.SkillRunner{
		Command: hostCfg.Skills.RunnerCommand,
		Args:    hostCfg.Skills.RunnerArgs,
	}
	sup, err := supervisor.New(supervisor.Options{
		ConfigPath:  hostCfg.Servers.File,
		GracePeriod: hostCfg.Servers.GracePeriod,
		SkillRunner: runner,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create supervisor: %w", err)
	}
	logging.Info("Services", "Using servers file %s", sup.Store().Path())

	registry := aggregator.NewRegistry(sup, aggregator.RegistryOptions{
		ClientName:    "mcphost",
		ClientVersion: cfg.Version,
	})
	gateway := aggregator.NewGateway(sup, registry, aggregator.GatewayOptions{
		ListTimeout: hostCfg.Servers.ListTimeout,
		CallTimeout: hostCfg.Servers.CallTimeout,
	})

	hub := server.NewHub()
	srv := server.New(server.Options{
		Host:      hostCfg.Gateway.Host,
		Port:      hostCfg.Gateway.Port,
		BasePath:  hostCfg.Gateway.BasePath,
		PublicURL: hostCfg.Gateway.PublicURL,
		Name:      "mcphost",
		Version:   cfg.Version,
	}, hub, gateway, registry, sup)

	services := &Services{
		Supervisor: sup,
		Registry:   registry,
		Gateway:    gateway,
		Hub:        hub,
		Server:     srv,
	}

	if hostCfg.Servers.Watch {
		services.Watcher = reconciler.NewConfigWatcher(sup.Store().Path(), reconciler.DefaultDebounce, reconciler.NotifyToolsChanged(hub))
	}

	return services, nil
}
