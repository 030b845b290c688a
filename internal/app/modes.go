package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mcphost/internal/config"
	"mcphost/pkg/logging"

	"github.com/coreos/go-systemd/v22/daemon"
)

// runGateway serves the HTTP bridge until interrupted.
//
// Behavior:
//   - Restores the servers that were running at the last shutdown when asked to
//   - Starts the HTTP server and, if enabled, the servers file watcher
//   - Reports readiness to systemd when running under a notify unit
//   - Blocks until ctx is cancelled or SIGINT/SIGTERM arrives
//   - Shuts down in reverse order: HTTP, watcher, clients, then child processes
//
// Child processes are released on shutdown, so their last status stays
// "running" and the next start with restore enabled brings them back.
func runGateway(ctx context.Context, cfg *Config, services *Services) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hostCfg := cfg.MCPHostConfig
	if cfg.Restore || hostCfg.Servers.RestoreOnStart {
		services.Supervisor.RestoreLastActive(ctx)
	}

	if err := services.Server.Start(ctx); err != nil {
		logging.Error("CLI", err, "Failed to start HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
		defer cancel()
		_ = services.Supervisor.Shutdown(shutdownCtx)
		return err
	}

	if services.Watcher != nil {
		if err := services.Watcher.Start(ctx); err != nil {
			// The gateway still works without change notifications.
			logging.Warn("CLI", "Servers file watcher disabled: %v", err)
			services.Watcher = nil
		}
	}

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Debug("CLI", "sd_notify failed: %v", err)
	} else if sent {
		logging.Debug("CLI", "Notified systemd of readiness")
	}

	logging.Info("CLI", "Gateway ready. Press Ctrl+C to stop all servers and exit.")
	<-ctx.Done()

	logging.Info("CLI", "--- Shutting down gateway ---")
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()
	return shutdown(shutdownCtx, services)
}

func shutdown(ctx context.Context, services *Services) error {
	var errs []error

	if err := services.Server.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if services.Watcher != nil {
		if err := services.Watcher.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	services.Registry.Close()
	if err := services.Supervisor.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		logging.Error("CLI", err, "Shutdown finished with errors")
		return err
	}
	logging.Info("CLI", "Shutdown complete")
	return nil
}

func shutdownTimeout(cfg *Config) time.Duration {
	if cfg.MCPHostConfig != nil && cfg.MCPHostConfig.Gateway.ShutdownTimeout > 0 {
		return cfg.MCPHostConfig.Gateway.ShutdownTimeout
	}
	return config.DefaultShutdownTimeout
}
