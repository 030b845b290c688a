package api

import (
	"errors"
	"fmt"
)

// NotFoundError represents a resource not found error with contextual information.
// It is shared by the supervisor, the aggregation gateway and the HTTP bridge so a
// missing server or tool maps to the same HTTP status and JSON-RPC code everywhere.
type NotFoundError struct {
	// ResourceType categorizes the type of resource that was not found
	// (e.g., "server", "tool")
	ResourceType string

	// ResourceName is the specific identifier of the resource that was not found
	ResourceName string

	// Message provides a custom error message if the default format is insufficient
	Message string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceName)
}

// IsNotFound checks if an error is a NotFoundError using error unwrapping.
//
// Example:
//
//	client, err := registry.GetClient(ctx, "github")
//	if api.IsNotFound(err) {
//	    // server is neither running nor configured
//	}
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// NewNotFoundError creates a new NotFoundError with the specified resource type and name.
func NewNotFoundError(resourceType, resourceName string) *NotFoundError {
	return &NotFoundError{
		ResourceType: resourceType,
		ResourceName: resourceName,
	}
}

// NewNotFoundErrorWithMessage creates a new NotFoundError with a custom message.
func NewNotFoundErrorWithMessage(resourceType, resourceName, message string) *NotFoundError {
	return &NotFoundError{
		ResourceType: resourceType,
		ResourceName: resourceName,
		Message:      message,
	}
}

var (
	// NewServerNotFoundError creates a tool server not found error.
	NewServerNotFoundError = func(name string) *NotFoundError {
		return NewNotFoundError("server", name)
	}

	// NewToolNotFoundError creates a tool not found error. The message matches
	// what JSON-RPC callers receive for an unknown tool.
	NewToolNotFoundError = func(name string) *NotFoundError {
		return NewNotFoundErrorWithMessage("tool", name, fmt.Sprintf("Tool %s not found", name))
	}
)
