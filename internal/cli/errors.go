package cli

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"mcphost/internal/api"
)

// ConnectionErrorType categorizes the type of connection error.
type ConnectionErrorType int

const (
	// ConnectionErrorUnknown indicates an unclassified connection error.
	ConnectionErrorUnknown ConnectionErrorType = iota
	// ConnectionErrorTLS indicates a TLS/certificate verification error.
	ConnectionErrorTLS
	// ConnectionErrorNetwork indicates a network connectivity error (e.g., refused, unreachable).
	ConnectionErrorNetwork
	// ConnectionErrorTimeout indicates a connection timeout.
	ConnectionErrorTimeout
	// ConnectionErrorDNS indicates a DNS resolution failure.
	ConnectionErrorDNS
)

// String returns a human-readable name for the connection error type.
func (t ConnectionErrorType) String() string {
	switch t {
	case ConnectionErrorTLS:
		return "TLS certificate error"
	case ConnectionErrorNetwork:
		return "Network error"
	case ConnectionErrorTimeout:
		return "Connection timeout"
	case ConnectionErrorDNS:
		return "DNS resolution error"
	default:
		return "Connection error"
	}
}

// ConnectionError indicates a connection failure to an endpoint.
// It wraps the underlying error and provides categorization for better user feedback.
type ConnectionError struct {
	// Endpoint is the URL that could not be reached.
	Endpoint string
	// Type categorizes the connection error.
	Type ConnectionErrorType
	// Reason is the underlying error.
	Reason error
}

// ClassifyConnectionError wraps a transport error of a request to endpoint in a
// ConnectionError carrying its type. A nil err yields nil.
func ClassifyConnectionError(err error, endpoint string) *ConnectionError {
	if err == nil {
		return nil
	}
	return &ConnectionError{
		Endpoint: endpoint,
		Type:     connectionErrorType(err),
		Reason:   err,
	}
}

// connectionErrorType checks TLS before DNS before timeouts, since a failed
// handshake can also report a timeout.
func connectionErrorType(err error) ConnectionErrorType {
	var dnsErr *net.DNSError
	switch {
	case isTLSError(err):
		return ConnectionErrorTLS
	case errors.As(err, &dnsErr):
		return ConnectionErrorDNS
	case isTimeoutError(err):
		return ConnectionErrorTimeout
	case isNetworkError(err.Error()):
		return ConnectionErrorNetwork
	default:
		return ConnectionErrorUnknown
	}
}

// isTLSError checks if the error is related to TLS/certificate issues.
func isTLSError(err error) bool {
	if err == nil {
		return false
	}

	// Check for x509 certificate errors using errors.As
	var certErr *x509.CertificateInvalidError
	var hostErr *x509.HostnameError
	var unknownAuthErr *x509.UnknownAuthorityError
	var systemRootsErr *x509.SystemRootsError

	if errors.As(err, &certErr) || errors.As(err, &hostErr) ||
		errors.As(err, &unknownAuthErr) || errors.As(err, &systemRootsErr) {
		return true
	}

	// Also check error message for TLS-related keywords
	// Note: "certificate" is checked broadly as it covers most TLS-related error messages
	errStr := err.Error()
	tlsKeywords := []string{
		"x509:",
		"certificate",
		"tls:",
		"TLS handshake",
	}

	for _, keyword := range tlsKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}

	return false
}

// isTimeoutError checks if the error is a timeout.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	// Check for net.Error timeout (interface, needs manual unwrapping)
	for e := err; e != nil; {
		if ne, ok := e.(net.Error); ok && ne.Timeout() {
			return true
		}
		if u, ok := e.(interface{ Unwrap() error }); ok {
			e = u.Unwrap()
		} else {
			break
		}
	}

	// Check for url.Error timeout
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	// Check error message
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

// isNetworkError checks if the error string indicates a network connectivity issue.
func isNetworkError(errStr string) bool {
	networkKeywords := []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
		"connect:",
	}

	for _, keyword := range networkKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// Error returns a user-friendly message with a hint matching the failure type.
func (e *ConnectionError) Error() string {
	switch e.Type {
	case ConnectionErrorTLS:
		return fmt.Sprintf(`TLS certificate verification failed for %s: %v

Self-signed or expired certificates are rejected. Check the certificate of the gateway.`, e.Endpoint, e.Reason)
	case ConnectionErrorNetwork:
		return fmt.Sprintf(`Connection failed to %s: %v

Server is not running? Start it with:
  mcphost serve`, e.Endpoint, e.Reason)
	case ConnectionErrorTimeout:
		return fmt.Sprintf("Connection to %s timed out: %v", e.Endpoint, e.Reason)
	case ConnectionErrorDNS:
		return fmt.Sprintf("DNS resolution failed for %s: %v", e.Endpoint, e.Reason)
	default:
		return fmt.Sprintf("Connection failed to %s: %v", e.Endpoint, e.Reason)
	}
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *ConnectionError) Is(target error) bool {
	_, ok := target.(*ConnectionError)
	return ok
}

// APIError is a non-2xx reply of the gateway REST API.
type APIError struct {
	// StatusCode is the HTTP status of the reply.
	StatusCode int
	// Message is the "error" field of the reply body, or the raw body.
	Message string
}

// Error returns the gateway's message.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned HTTP %d", e.StatusCode)
	}
	return e.Message
}

// Unwrap exposes a 404 as *api.NotFoundError so callers can use api.IsNotFound.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return api.NewNotFoundErrorWithMessage("resource", "", e.Message)
	}
	return nil
}
