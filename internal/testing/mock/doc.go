// Package mock provides stub MCP tool servers for testing mcphost components.
//
// A Server is an mcp-go server built from a list of ToolConfig entries, each with
// either Echo behavior or a set of conditional responses. Tests that need a real
// child process re-execute their own test binary as a stub: TestMain calls
// RunStubIfRequested, and StubCommand returns the command line and environment
// that make the child take that path.
//
// Modes let a stub misbehave on purpose: ModeNoisy prints non-JSON lines before
// serving, ModeSilent never answers, ModeExit dies immediately and ModeStubborn
// outlives SIGTERM until it is killed.
package mock
