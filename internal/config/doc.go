// Package config provides configuration management for mcphost.
//
// Configuration is loaded from a single directory. The default directory is
// ~/.config/mcphost; commands accept --config-path to point somewhere else.
// The directory holds config.yaml, for example:
//
//	gateway:
//	  host: localhost
//	  port: 19880
//	  basePath: /api/v1/mcp
//	servers:
//	  file: ~/.mcphost/mcp_config.json
//	  gracePeriod: 5s
//	  restoreOnStart: true
//	skills:
//	  runnerCommand: uv
//	  runnerArgs: [run]
//	logLevel: info
//
// Every field has a default, so the file is optional. After the file is read,
// MCPHOST_HOST, MCPHOST_PORT, MCPHOST_BASE_PATH, MCPHOST_PUBLIC_URL,
// MCPHOST_SERVERS_FILE and MCPHOST_LOG_LEVEL override the matching fields.
//
// The servers file itself (the launch specs of the supervised tool servers) is
// owned by the supervisor package; this package only decides where it lives.
package config
