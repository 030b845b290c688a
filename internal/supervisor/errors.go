package supervisor

import "fmt"

// ConfigurationError is returned when a server spec is missing or invalid.
type ConfigurationError struct {
	Server  string
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration for server %q: %s", e.Server, e.Message)
	}
	return fmt.Sprintf("invalid configuration for server %q (%s): %s", e.Server, e.Field, e.Message)
}

// ProcessLifecycleError is returned when a server process cannot be spawned.
type ProcessLifecycleError struct {
	Server  string
	Command string
	Err     error
}

func (e *ProcessLifecycleError) Error() string {
	return fmt.Sprintf("failed to start server %s (%s): %v", e.Server, e.Command, e.Err)
}

func (e *ProcessLifecycleError) Unwrap() error {
	return e.Err
}
