package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mcphost/internal/api"
	"mcphost/internal/supervisor"
	"mcphost/pkg/logging"

	"github.com/elnormous/contenttype"
)

var eventStreamMediaTypes = []contenttype.MediaType{contenttype.NewMediaType("text/event-stream")}

// CallToolRequest is the body of POST /tools/{name}/call.
type CallToolRequest struct {
	ServerName string         `json:"server_name"`
	Arguments  map[string]any `json:"arguments"`
}

// StartSkillRequest is the body of POST /skills/{name}/start.
type StartSkillRequest struct {
	ScriptPath string            `json:"script_path"`
	Env        map[string]string `json:"env"`
}

// StatusResponse is returned by the lifecycle endpoints.
type StatusResponse struct {
	Status string `json:"status"`
	Server string `json:"server,omitempty"`
	PID    int    `json:"pid,omitempty"`
}

// ErrorResponse is the body of every non-2xx REST reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Debug("HTTP", "Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var configErr *supervisor.ConfigurationError
	switch {
	case api.IsNotFound(err):
		status = http.StatusNotFound
	case errors.As(err, &configErr):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, format string, args ...any) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf(format, args...)})
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	tools, err := s.tools.ListTools(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": tools})
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req CallToolRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body: %v", err)
		return
	}
	if req.ServerName == "" {
		writeBadRequest(w, "server_name is required")
		return
	}

	result, err := s.tools.CallTool(r.Context(), name, req.Arguments, req.ServerName)
	if err != nil {
		logging.Error("Server", err, "Tool %s on %s failed", name, req.ServerName)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result)
}

func (s *Server) handleListServers(w http.ResponseWriter, r *http.Request) {
	states := s.sup.States()
	if states == nil {
		states = []supervisor.ServerState{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"servers": states})
}

func (s *Server) handleServerState(w http.ResponseWriter, r *http.Request) {
	active := s.sup.LastActiveServers()
	if active == nil {
		active = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"last_active_servers": active})
}

func (s *Server) handleStartServer(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	spec, ok := s.sup.ConfiguredServer(name)
	if !ok {
		writeError(w, api.NewServerNotFoundError(name))
		return
	}

	record, err := s.sup.StartServer(r.Context(), name, spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "started", Server: name, PID: record.PID()})
}

func (s *Server) handlePutServer(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var spec supervisor.ServerSpec
	if err := decodeBody(r, &spec); err != nil {
		writeBadRequest(w, "invalid server spec: %v", err)
		return
	}

	// A changed spec only takes effect on a fresh process.
	if _, configured := s.sup.ConfiguredServer(name); configured {
		s.clients.Evict(name)
		if err := s.sup.StopServer(r.Context(), name); err != nil {
			logging.Warn("Server", "Stopping %s before update failed: %v", name, err)
		}
	}

	record, err := s.sup.StartServer(r.Context(), name, spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "started", Server: name, PID: record.PID()})
}

func (s *Server) handleStopServer(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	s.clients.Evict(name)
	if err := s.sup.StopServer(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "stopped", Server: name})
}

func (s *Server) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	s.clients.Evict(name)
	if err := s.sup.DeleteServer(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted", Server: name})
}

func (s *Server) handleStartSkill(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req StartSkillRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body: %v", err)
		return
	}
	if req.ScriptPath == "" {
		writeBadRequest(w, "script_path is required")
		return
	}

	record, err := s.sup.StartSkill(r.Context(), name, req.ScriptPath, req.Env)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "started", Server: name, PID: record.PID()})
}

// messagesURL is the absolute URL announced in the endpoint event.
func (s *Server) messagesURL(r *http.Request) string {
	if s.opts.PublicURL != "" {
		return strings.TrimRight(s.opts.PublicURL, "/") + s.opts.BasePath + "/messages"
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + s.opts.BasePath + "/messages"
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Accept") != "" {
		if _, _, err := contenttype.GetAcceptableMediaType(r, eventStreamMediaTypes); err != nil {
			writeJSON(w, http.StatusNotAcceptable, ErrorResponse{Error: "client must accept text/event-stream"})
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "streaming unsupported"})
		return
	}

	sub := s.hub.subscribe()
	defer s.hub.unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", s.messagesURL(r)); err != nil {
		return
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		batch, err := sub.next(ctx)
		if err != nil {
			logging.Debug("Server", "Event stream %s closed: %v", sub.id, err)
			return
		}
		for _, msg := range batch {
			if _, err := fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg); err != nil {
				logging.Debug("Server", "Event stream %s write failed: %v", sub.id, err)
				return
			}
		}
		flusher.Flush()
	}
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	var msg inboundMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeBadRequest(w, "invalid JSON: %v", err)
		return
	}

	logging.Debug("Server", "Received %s over SSE transport", msg.Method)
	if reply := s.dispatch(r.Context(), &msg); reply != nil {
		if err := s.hub.Broadcast(reply); err != nil {
			logging.Error("Server", err, "Failed to broadcast reply to %s", msg.Method)
		}
	}

	writeJSON(w, http.StatusAccepted, StatusResponse{Status: "accepted"})
}
