package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"mcphost/internal/aggregator"
	"mcphost/internal/supervisor"
	"mcphost/pkg/logging"

	"github.com/rs/cors"
)

// DefaultBasePath is where the API is mounted when Options.BasePath is empty.
const DefaultBasePath = "/api/v1/mcp"

// ToolRouter lists and calls the aggregated tools.
type ToolRouter interface {
	ListTools(ctx context.Context) ([]aggregator.Tool, error)
	CallTool(ctx context.Context, toolName string, args map[string]any, server string) (json.RawMessage, error)
}

// ClientEvicter drops the cached client of a server that is being stopped.
type ClientEvicter interface {
	Evict(name string)
}

// Supervisor is the part of the process supervisor exposed over HTTP.
type Supervisor interface {
	ConfiguredServer(name string) (supervisor.ServerSpec, bool)
	StartServer(ctx context.Context, name string, spec supervisor.ServerSpec) (*supervisor.ProcessRecord, error)
	StopServer(ctx context.Context, name string) error
	DeleteServer(ctx context.Context, name string) error
	StartSkill(ctx context.Context, name, scriptPath string, env map[string]string) (*supervisor.ProcessRecord, error)
	States() []supervisor.ServerState
	LastActiveServers() []string
}

// Options configures a Server.
type Options struct {
	Host     string
	Port     int
	BasePath string
	// PublicURL overrides scheme and host of the endpoint announced on /sse.
	PublicURL string
	// Name and Version are reported as serverInfo by initialize.
	Name    string
	Version string
}

// Server exposes the gateway over REST and SSE.
type Server struct {
	opts    Options
	hub     *Hub
	tools   ToolRouter
	clients ClientEvicter
	sup     Supervisor

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	cancel     context.CancelFunc
}

// New creates a server. Nothing listens until Start is called.
func New(opts Options, hub *Hub, tools ToolRouter, clients ClientEvicter, sup Supervisor) *Server {
	opts.BasePath = "/" + strings.Trim(opts.BasePath, "/")
	if opts.BasePath == "/" {
		opts.BasePath = DefaultBasePath
	}
	if opts.Name == "" {
		opts.Name = "mcphost"
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if hub == nil {
		hub = NewHub()
	}
	return &Server{opts: opts, hub: hub, tools: tools, clients: clients, sup: sup}
}

// Hub returns the broadcast hub of the event streams.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the complete HTTP handler including CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	base := s.opts.BasePath

	mux.HandleFunc("GET "+base+"/tools", s.handleListTools)
	mux.HandleFunc("POST "+base+"/tools/{name}/call", s.handleCallTool)
	mux.HandleFunc("GET "+base+"/servers", s.handleListServers)
	mux.HandleFunc("GET "+base+"/server/state", s.handleServerState)
	mux.HandleFunc("POST "+base+"/server/{name}/start", s.handleStartServer)
	mux.HandleFunc("POST "+base+"/server/{name}/stop", s.handleStopServer)
	mux.HandleFunc("PUT "+base+"/server/{name}", s.handlePutServer)
	mux.HandleFunc("DELETE "+base+"/server/{name}", s.handleDeleteServer)
	mux.HandleFunc("POST "+base+"/skills/{name}/start", s.handleStartSkill)
	mux.HandleFunc("GET "+base+"/sse", s.handleSSE)
	mux.HandleFunc("POST "+base+"/messages", s.handleMessages)

	corsHandler := cors.New(cors.Options{
		AllowOriginFunc:  func(string) bool { return true },
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return corsHandler.Handler(logRequests(mux))
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return fmt.Errorf("server already started")
	}

	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	// Cancelling the base context on Stop ends the open event streams.
	baseCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	httpServer := s.httpServer
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server", err, "HTTP server error")
		}
	}()

	logging.Info("Server", "Listening on http://%s%s", listener.Addr(), s.opts.BasePath)
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop closes open event streams and shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	httpServer := s.httpServer
	cancel := s.cancel
	s.httpServer = nil
	s.listener = nil
	s.cancel = nil
	s.mu.Unlock()

	if httpServer == nil {
		return nil
	}

	logging.Info("Server", "Stopping HTTP server")
	cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		_ = httpServer.Close()
		if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.Debug("HTTP", "%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
