// Package logging provides subsystem-tagged logging for mcphost on top of log/slog.
//
// Every log call names the subsystem it comes from, so output from the supervisor,
// the stdio clients and the HTTP bridge can be told apart:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Supervisor", "Started server %s (pid %d)", name, pid)
//	logging.Debug("RPCClient", "Dropping non-JSON line from %s", name)
//	logging.Error("Gateway", err, "Failed to list tools for %s", name)
//
// Output of child processes is forwarded with CopyLines, which turns each line
// written to a pipe into one log entry.
package logging
