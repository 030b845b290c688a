package mock

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"time"
)

// ToolHandler handles mock tool calls with configurable responses
type ToolHandler struct {
	config ToolConfig
	debug  bool
}

// NewToolHandler creates a new mock tool handler
func NewToolHandler(config ToolConfig, debug bool) *ToolHandler {
	return &ToolHandler{
		config: config,
		debug:  debug,
	}
}

// HandleCall processes a tool call and returns the configured response
func (h *ToolHandler) HandleCall(args map[string]interface{}) (interface{}, error) {
	if h.debug {
		fmt.Fprintf(os.Stderr, "mock tool '%s' called with args: %v\n", h.config.Name, args)
	}

	mergedArgs := h.mergeWithDefaults(args)

	if h.config.Echo {
		data, err := json.Marshal(mergedArgs)
		if err != nil {
			return nil, fmt.Errorf("failed to encode arguments: %w", err)
		}
		return string(data), nil
	}

	// Find the first matching response
	var selectedResponse *ToolResponse
	for i := range h.config.Responses {
		if h.matchesCondition(h.config.Responses[i].Condition, mergedArgs) {
			selectedResponse = &h.config.Responses[i]
			break
		}
	}

	// If no specific response matched, use the first one as fallback
	if selectedResponse == nil && len(h.config.Responses) > 0 {
		selectedResponse = &h.config.Responses[0]
	}

	if selectedResponse == nil {
		return nil, fmt.Errorf("no response configured for tool %s", h.config.Name)
	}

	if selectedResponse.Delay != "" {
		if duration, err := time.ParseDuration(selectedResponse.Delay); err == nil {
			time.Sleep(duration)
		}
	}

	if selectedResponse.Error != "" {
		return nil, fmt.Errorf("%s", selectedResponse.Error)
	}

	return selectedResponse.Response, nil
}

// mergeWithDefaults merges provided args with default values from input schema
func (h *ToolHandler) mergeWithDefaults(args map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{})

	if h.config.InputSchema != nil {
		if properties, ok := h.config.InputSchema["properties"].(map[string]interface{}); ok {
			for propName, propDef := range properties {
				if propDefMap, ok := propDef.(map[string]interface{}); ok {
					if defaultValue, hasDefault := propDefMap["default"]; hasDefault {
						merged[propName] = defaultValue
					}
				}
			}
		}
	}

	for key, value := range args {
		merged[key] = value
	}

	return merged
}

// matchesCondition checks if the given args match the response condition
func (h *ToolHandler) matchesCondition(condition map[string]interface{}, args map[string]interface{}) bool {
	if len(condition) == 0 {
		return true
	}

	for key, expectedValue := range condition {
		actualValue, exists := args[key]
		if !exists || !valuesEqual(expectedValue, actualValue) {
			return false
		}
	}

	return true
}

// valuesEqual compares two values for equality, handling type conversions
// between YAML-decoded and JSON-decoded numbers.
func valuesEqual(expected, actual interface{}) bool {
	if reflect.DeepEqual(expected, actual) {
		return true
	}
	return fmt.Sprintf("%v", expected) == fmt.Sprintf("%v", actual)
}
