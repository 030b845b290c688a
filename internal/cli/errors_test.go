package cli

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"mcphost/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionErrorType(t *testing.T) {
	assert.Equal(t, "Connection error", ConnectionErrorUnknown.String())
	assert.Equal(t, "TLS certificate error", ConnectionErrorTLS.String())
	assert.Equal(t, "Network error", ConnectionErrorNetwork.String())
	assert.Equal(t, "Connection timeout", ConnectionErrorTimeout.String())
	assert.Equal(t, "DNS resolution error", ConnectionErrorDNS.String())
}

func TestConnectionError_Message(t *testing.T) {
	tests := []struct {
		errType ConnectionErrorType
		want    []string
	}{
		{ConnectionErrorTLS, []string{"TLS certificate verification failed", "Self-signed"}},
		{ConnectionErrorNetwork, []string{"Connection failed", "mcphost serve"}},
		{ConnectionErrorTimeout, []string{"timed out"}},
		{ConnectionErrorDNS, []string{"DNS resolution failed"}},
		{ConnectionErrorUnknown, []string{"Connection failed"}},
	}

	for _, tt := range tests {
		t.Run(tt.errType.String(), func(t *testing.T) {
			err := &ConnectionError{
				Endpoint: "http://gateway.example.com:19880",
				Type:     tt.errType,
				Reason:   errors.New("boom"),
			}
			msg := err.Error()
			assert.Contains(t, msg, "gateway.example.com")
			for _, want := range tt.want {
				assert.Contains(t, msg, want)
			}
		})
	}
}

func TestConnectionError_Unwrap(t *testing.T) {
	reason := errors.New("connection refused")
	err := &ConnectionError{Endpoint: "http://localhost", Type: ConnectionErrorNetwork, Reason: reason}

	assert.ErrorIs(t, err, reason)
	assert.ErrorIs(t, fmt.Errorf("list tools: %w", err), &ConnectionError{})
	assert.NotErrorIs(t, errors.New("other"), &ConnectionError{})
}

func TestClassifyConnectionError(t *testing.T) {
	assert.Nil(t, ClassifyConnectionError(nil, "http://localhost"))

	hostErr := &x509.HostnameError{Certificate: &x509.Certificate{}, Host: "example.com"}

	tests := []struct {
		name string
		err  error
		want ConnectionErrorType
	}{
		{"x509 message", errors.New("Get https://example.com: x509: certificate is not valid for hostname"), ConnectionErrorTLS},
		{"wrapped HostnameError", fmt.Errorf("connection failed: %w", hostErr), ConnectionErrorTLS},
		{"handshake", errors.New("remote error: tls: bad certificate"), ConnectionErrorTLS},
		{"DNS", fmt.Errorf("lookup failed: %w", &net.DNSError{Err: "no such host", Name: "nowhere.example.com"}), ConnectionErrorDNS},
		{"deadline", errors.New("context deadline exceeded"), ConnectionErrorTimeout},
		{"refused", errors.New("dial tcp 127.0.0.1:19880: connect: connection refused"), ConnectionErrorNetwork},
		{"other", errors.New("some random error"), ConnectionErrorUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyConnectionError(tt.err, "http://localhost:19880")
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Type)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestAPIError(t *testing.T) {
	err := &APIError{StatusCode: http.StatusBadRequest, Message: "server_name is required"}
	assert.EqualError(t, err, "server_name is required")
	assert.False(t, api.IsNotFound(err))

	assert.Contains(t, (&APIError{StatusCode: http.StatusInternalServerError}).Error(), "500")

	notFound := fmt.Errorf("call failed: %w", &APIError{StatusCode: http.StatusNotFound, Message: "Tool nope not found"})
	assert.True(t, api.IsNotFound(notFound))
}
