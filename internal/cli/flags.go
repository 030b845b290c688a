package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// EndpointEnvVar is the environment variable name for setting the default endpoint.
const EndpointEnvVar = "MCPHOST_ENDPOINT"

// DefaultEndpoint is the REST base URL of a gateway started with default settings.
const DefaultEndpoint = "http://localhost:19880/api/v1/mcp"

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable formats output as a plain table
	OutputFormatTable OutputFormat = "table"
	// OutputFormatJSON formats output as raw JSON data
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML formats output as YAML data converted from JSON
	OutputFormatYAML OutputFormat = "yaml"
)

// ValidateOutputFormat validates that the given format string is a supported output format.
func ValidateOutputFormat(format string) error {
	switch OutputFormat(format) {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %q (valid: table, json, yaml)", format)
	}
}

// CommandFlags holds the flag values shared by every command that talks to a
// running gateway.
type CommandFlags struct {
	// OutputFormat specifies the desired output format (table, json, yaml)
	OutputFormat string
	// Endpoint is the gateway REST base URL
	Endpoint string
	// Quiet suppresses progress indicators
	Quiet bool
}

// RegisterCommonFlags registers the shared flags as persistent flags of cmd:
//   - --output/-o: Output format (table, json, yaml), default: "table"
//   - --endpoint: Gateway REST base URL (env: MCPHOST_ENDPOINT)
//   - --quiet/-q: Suppress progress indicators
func RegisterCommonFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", string(OutputFormatTable), "Output format (table, json, yaml)")
	cmd.PersistentFlags().StringVar(&flags.Endpoint, "endpoint", GetDefaultEndpoint(), "Gateway endpoint URL (env: MCPHOST_ENDPOINT)")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress progress indicators")
}

// GetDefaultEndpoint returns the endpoint from the environment, or DefaultEndpoint.
func GetDefaultEndpoint() string {
	if endpoint := os.Getenv(EndpointEnvVar); endpoint != "" {
		return endpoint
	}
	return DefaultEndpoint
}

// Validate checks the flag values before a command runs.
func (f *CommandFlags) Validate() error {
	if err := ValidateOutputFormat(f.OutputFormat); err != nil {
		return err
	}
	if strings.TrimSpace(f.Endpoint) == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	return nil
}

// ParseEnvPairs turns repeated KEY=VALUE flag values into a map.
func ParseEnvPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid environment variable %q, expected KEY=VALUE", pair)
		}
		env[key] = value
	}
	return env, nil
}
