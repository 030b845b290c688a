package rpcclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotSpawned is returned by Start when the process has no pipes.
	ErrNotSpawned = errors.New("server process is not spawned")
	// ErrClientStopped fails calls that were pending when the client stopped
	// or the server closed its output.
	ErrClientStopped = errors.New("client stopped")
)

// TimeoutError is returned when a call gets no response within its timeout.
type TimeoutError struct {
	Server  string
	Method  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request %s to %s timed out after %s", e.Method, e.Server, e.Timeout)
}

// IsTimeout checks if an error is a TimeoutError
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// RPCError is an error object returned by the server.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	data := strings.TrimSpace(string(e.Data))
	if unquoted, err := unquote(e.Data); err == nil {
		data = unquoted
	}
	if data == "null" {
		data = ""
	}

	msg := strings.TrimSpace(e.Message + " " + data)
	if msg != "" {
		return msg
	}
	raw, _ := json.Marshal(e)
	return string(raw)
}

func unquote(raw json.RawMessage) (string, error) {
	var s string
	err := json.Unmarshal(raw, &s)
	return s, err
}
