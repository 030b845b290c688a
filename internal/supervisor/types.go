package supervisor

import (
	"strings"
	"time"
)

// ServerStatus is the last operator intent recorded for a server.
type ServerStatus string

const (
	StatusRunning ServerStatus = "running"
	StatusStopped ServerStatus = "stopped"
)

// ServerSpec is the persisted launch description of one tool server.
// The server name is the key it is stored under, not a field.
type ServerSpec struct {
	Command    string            `json:"command"`
	Args       []string          `json:"args"`
	Cwd        string            `json:"cwd,omitempty"`
	Env        map[string]string `json:"env"`
	AutoStart  bool              `json:"auto_start"`
	LastStatus ServerStatus      `json:"last_status,omitempty"`
}

// Validate reports a ConfigurationError when the spec cannot be launched.
func (s ServerSpec) Validate(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ConfigurationError{Server: name, Field: "name", Message: "server name is required"}
	}
	if strings.ContainsAny(name, "/\\") {
		return &ConfigurationError{Server: name, Field: "name", Message: "server name must not contain path separators"}
	}
	if strings.TrimSpace(s.Command) == "" {
		return &ConfigurationError{Server: name, Field: "command", Message: "command is required"}
	}
	return nil
}

func (s ServerSpec) clone() ServerSpec {
	out := s
	if s.Args != nil {
		out.Args = append([]string(nil), s.Args...)
	}
	if s.Env != nil {
		out.Env = make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			out.Env[k] = v
		}
	}
	return out
}

// ConfigDocument is the whole servers file.
type ConfigDocument struct {
	Servers map[string]*ServerSpec `json:"servers"`
}

func newConfigDocument() *ConfigDocument {
	return &ConfigDocument{Servers: make(map[string]*ServerSpec)}
}

// ServerState combines a configured server with its runtime state.
type ServerState struct {
	Name      string     `json:"name"`
	Spec      ServerSpec `json:"spec"`
	Running   bool       `json:"running"`
	PID       int        `json:"pid,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}
