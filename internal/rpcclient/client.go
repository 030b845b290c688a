package rpcclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"mcphost/pkg/logging"
)

// DefaultCallTimeout applies to calls made with a zero timeout.
const DefaultCallTimeout = 10 * time.Second

// Pipes is the pair of streams connecting the client to a server process.
// Both return nil while the process is not spawned.
type Pipes interface {
	Stdin() io.Writer
	Stdout() io.Reader
}

type response struct {
	result json.RawMessage
	err    error
}

// Client speaks newline-delimited JSON-RPC 2.0 with one server process.
// Calls are safe for concurrent use and may complete in any order.
type Client struct {
	name  string
	pipes Pipes

	nextID atomic.Int64

	writeMu sync.Mutex
	stdin   io.Writer

	mu      sync.Mutex
	pending map[int64]chan response
	running bool
	started bool
	done    chan struct{}
}

// New creates a client for the server called name. It does not read or write
// until Start is called.
func New(name string, pipes Pipes) *Client {
	return &Client{
		name:    name,
		pipes:   pipes,
		pending: make(map[int64]chan response),
		done:    make(chan struct{}),
	}
}

// Name returns the server name the client talks to.
func (c *Client) Name() string {
	return c.name
}

// Start launches the read loop. Calling it again is a no-op.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}
	if c.pipes == nil {
		return ErrNotSpawned
	}
	stdin, stdout := c.pipes.Stdin(), c.pipes.Stdout()
	if stdin == nil || stdout == nil {
		return ErrNotSpawned
	}

	c.stdin = stdin
	c.started = true
	c.running = true
	go c.readLoop(stdout)

	logging.Debug("RPCClient", "Started client for %s", c.name)
	return nil
}

// Running reports whether the client can still send calls.
func (c *Client) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Call sends method with params and waits for the matching response.
// A zero timeout means DefaultCallTimeout. Nil params are sent as {}.
func (c *Client) Call(ctx context.Context, method string, params any, timeout time.Duration) (json.RawMessage, error) {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	id := c.nextID.Add(1)
	line, err := encodeLine(&id, method, params)
	if err != nil {
		return nil, err
	}

	ch := make(chan response, 1)
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil, ErrClientStopped
	}
	c.pending[id] = ch
	c.mu.Unlock()
	defer c.removePending(id)

	if err := c.write(line); err != nil {
		return nil, fmt.Errorf("failed to send %s to %s: %w", method, c.name, err)
	}
	logging.Debug("RPCClient", "-> %s #%d %s", c.name, id, method)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return resp.result, resp.err
	case <-timer.C:
		return nil, &TimeoutError{Server: c.name, Method: method, Timeout: timeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		// A response may have landed right before the stop.
		select {
		case resp := <-ch:
			return resp.result, resp.err
		default:
			return nil, ErrClientStopped
		}
	}
}

// Notify sends method without an id; no response is expected.
func (c *Client) Notify(method string, params any) error {
	if !c.Running() {
		return ErrClientStopped
	}
	line, err := encodeLine(nil, method, params)
	if err != nil {
		return err
	}
	if err := c.write(line); err != nil {
		return fmt.Errorf("failed to send %s to %s: %w", method, c.name, err)
	}
	logging.Debug("RPCClient", "-> %s %s", c.name, method)
	return nil
}

// Stop fails every pending call with ErrClientStopped and marks the client
// not running. It does not touch the server process.
func (c *Client) Stop() {
	if c.shutdown() {
		logging.Debug("RPCClient", "Stopped client for %s", c.name)
	}
}

// Done is closed once the client has stopped.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) write(line []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.stdin.Write(line)
	return err
}

func (c *Client) removePending(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// shutdown reports whether this call performed the transition.
func (c *Client) shutdown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return false
	default:
	}

	c.running = false
	close(c.done)
	for id, ch := range c.pending {
		ch <- response{err: ErrClientStopped}
		delete(c.pending, id)
	}
	return true
}

func (c *Client) readLoop(stdout io.Reader) {
	reader := bufio.NewReader(stdout)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			c.handleLine(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				logging.Debug("RPCClient", "Output of %s closed", c.name)
			} else {
				logging.Debug("RPCClient", "Reading from %s failed: %v", c.name, err)
			}
			break
		}

		select {
		case <-c.done:
			return
		default:
		}
	}
	c.shutdown()
}

func (c *Client) handleLine(line []byte) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return
	}

	var msg inbound
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		logging.Debug("RPCClient", "Dropping unparseable line from %s: %q", c.name, truncate(trimmed, 200))
		return
	}

	switch msg.classify() {
	case kindResponse:
		c.resolve(&msg, response{result: msg.Result})
	case kindErrorResponse:
		c.resolve(&msg, response{err: msg.Error})
	case kindNotification:
		logging.Debug("RPCClient", "Ignoring notification %s from %s", msg.Method, c.name)
	case kindRequest:
		logging.Debug("RPCClient", "Ignoring request %s from %s", msg.Method, c.name)
	default:
		logging.Debug("RPCClient", "Protocol error from %s: unrecognized message %q", c.name, truncate(trimmed, 200))
	}
}

func (c *Client) resolve(msg *inbound, resp response) {
	id, ok := msg.numericID()
	if !ok {
		logging.Debug("RPCClient", "Dropping response with non-numeric id %s from %s", string(msg.ID), c.name)
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		logging.Debug("RPCClient", "Dropping response #%d from %s: no pending call", id, c.name)
		return
	}
	logging.Debug("RPCClient", "<- %s #%d", c.name, id)
	ch <- resp
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
