package config

import (
	"fmt"
	"net/url"
	"strings"

	"mcphost/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks a loaded configuration and collects every problem it finds.
func Validate(cfg MCPHostConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Gateway.Port <= 0 || cfg.Gateway.Port > 65535 {
		errs.Add("gateway.port", "must be between 1 and 65535", cfg.Gateway.Port)
	}
	if !strings.HasPrefix(cfg.Gateway.BasePath, "/") {
		errs.Add("gateway.basePath", "must start with '/'", cfg.Gateway.BasePath)
	}
	if cfg.Gateway.PublicURL != "" {
		u, err := url.Parse(cfg.Gateway.PublicURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs.Add("gateway.publicURL", "must be an absolute URL", cfg.Gateway.PublicURL)
		}
	}
	if cfg.Servers.File == "" {
		errs.Add("servers.file", "is required")
	}
	if cfg.Servers.GracePeriod <= 0 {
		errs.Add("servers.gracePeriod", "must be positive", cfg.Servers.GracePeriod)
	}
	if cfg.Servers.CallTimeout <= 0 {
		errs.Add("servers.callTimeout", "must be positive", cfg.Servers.CallTimeout)
	}
	if cfg.Servers.ListTimeout <= 0 {
		errs.Add("servers.listTimeout", "must be positive", cfg.Servers.ListTimeout)
	}
	if cfg.LogLevel != "" {
		if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
			errs.Add("logLevel", "must be one of debug, info, warn, error", cfg.LogLevel)
		}
	}
	if len(cfg.Skills.RunnerArgs) > 0 && cfg.Skills.RunnerCommand == "" {
		errs.Add("skills.runnerCommand", "is required when runnerArgs are set")
	}

	return errs
}
