// Package app provides application bootstrap and lifecycle management for the
// mcphost gateway.
//
// The package wires the gateway together and runs it:
//
// 1. **Configuration (`config.go`)**: runtime options coming from the command line
// 2. **Bootstrap (`bootstrap.go`)**: logging setup, configuration loading, service construction
// 3. **Services (`services.go`)**: supervisor, client registry, tool gateway, SSE hub, HTTP server and servers file watcher
// 4. **Modes (`modes.go`)**: the serve loop with signal handling and ordered shutdown
//
// # Startup Sequence
//
//	cfg := app.NewConfig(debug, restore, configPath, version)
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// NewApplication initializes logging first so configuration errors are
// reported in the same format as everything else. The log level from
// config.yaml applies unless --debug was given.
//
// # Shutdown
//
// Run returns after SIGINT, SIGTERM or cancellation of its context. The HTTP
// server stops first so no new work arrives, then the watcher, then the
// clients, and finally every child process is released. Releasing keeps the
// last status of each server, which is what restore uses on the next start.
//
// When started by systemd with Type=notify, readiness and stopping are
// reported through sd_notify.
package app
