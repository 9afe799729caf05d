package host

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	goSpace "github.com/MrEthical07/goSpace"
	"github.com/MrEthical07/goSpace/middleware"
)

// Engine is the part of *goSpace.Engine the transport drives.
type Engine interface {
	MarkLoaded()
	Login(ctx context.Context, caller string) (bool, error)
	Logout(ctx context.Context)
	IsEnabled() (bool, error)
	UserAddress() (string, error)
	IsSpaceOpened(caller string) (bool, error)
	OpenSpace(ctx context.Context, caller string) (bool, error)
	CloseSpace(ctx context.Context, caller string) (bool, error)
	GetPrivateValue(ctx context.Context, caller, key string) (string, error)
	SetPrivateValue(ctx context.Context, caller, key, value string) (bool, error)
	GetPublicValue(ctx context.Context, caller, key string) (string, error)
	SetPublicValue(ctx context.Context, caller, key, value string) (bool, error)
	GetPublicSpaceData(ctx context.Context, address, namespaceKey string) (goSpace.PublicData, error)
}

// Config holds configuration for the host server.
type Config struct {
	Engine         Engine
	Broadcaster    *Broadcaster
	Parser         middleware.CallerParser
	AllowedCallers []string
	// HostCallers are the identities allowed to drive session-wide controls
	// (POST /loaded, POST /logout). Empty disables those endpoints.
	HostCallers    []string
	RateLimit      RateLimitConfig
	Logger         *slog.Logger
}

// Server serves the Engine call surface to plugins.
type Server struct {
	engine      Engine
	broadcaster *Broadcaster
	parser      middleware.CallerParser
	allowed     []string
	hostCallers []string
	limiter     *callerLimiter
	logger      *slog.Logger
	methods     map[string]method
	now         func() time.Time
}

// NewServer creates a new host server with the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.Parser == nil {
		return nil, errors.New("caller token parser is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine:      cfg.Engine,
		broadcaster: cfg.Broadcaster,
		parser:      cfg.Parser,
		allowed:     append([]string(nil), cfg.AllowedCallers...),
		hostCallers: append([]string(nil), cfg.HostCallers...),
		limiter:     newCallerLimiter(cfg.RateLimit),
		logger:      logger.With("component", "host"),
		now:         time.Now,
	}
	s.methods = s.methodTable()
	return s, nil
}

// Handler returns the guarded HTTP handler for all endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	allowed := s.allowed
	if len(allowed) > 0 {
		allowed = append(append([]string(nil), allowed...), s.hostCallers...)
	}
	return middleware.RequireAllowedCaller(s.parser, allowed...)(mux)
}

// RegisterRoutes registers the endpoints on mux. The plugin endpoints are
// unguarded and callers wrap mux with a middleware guard themselves; the
// session-wide controls always carry their own host-caller guard.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /rpc", s.handleRPC)
	mux.HandleFunc("GET /events", s.handleEvents)

	hostOnly := middleware.RequireHostCaller(s.parser, s.hostCallers...)
	mux.Handle("POST /loaded", hostOnly(http.HandlerFunc(s.handleLoaded)))
	mux.Handle("POST /logout", hostOnly(http.HandlerFunc(s.handleLogout)))
}

func (s *Server) handleLoaded(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())
	s.engine.MarkLoaded()
	s.logger.Info("load gate fired", "caller", caller)
	w.WriteHeader(http.StatusNoContent)
}

// handleLogout ends the session for every plugin. It is never reachable
// over /rpc.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())
	s.engine.Logout(r.Context())
	s.logger.Info("session logged out", "caller", caller)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		s.sendError(w, nil, CodeParseError, "failed to read request body")
		return
	}
	if int64(len(body)) > MaxRequestBodySize {
		s.sendError(w, nil, CodeInvalidRequest, "request body too large")
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.sendError(w, nil, CodeParseError, "invalid JSON")
		return
	}
	if req.JSONRPC != "2.0" {
		s.sendError(w, req.ID, CodeInvalidRequest, "invalid JSON-RPC version")
		return
	}

	if !s.limiter.Allow(caller, s.now()) {
		s.logger.Warn("rpc rate limited", "caller", caller, "method", req.Method)
		s.sendError(w, req.ID, CodeRateLimited, "rate limited")
		return
	}

	m, ok := s.methods[req.Method]
	if !ok {
		s.sendError(w, req.ID, CodeMethodNotFound, "method not found")
		return
	}

	s.logger.Debug("rpc request", "caller", caller, "method", req.Method)

	result, rpcErr := m(r.Context(), caller, req.Params)
	if rpcErr != nil {
		s.sendError(w, req.ID, rpcErr.Code, rpcErr.Message)
		return
	}
	s.sendResult(w, req.ID, result)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if s.broadcaster == nil {
		http.Error(w, "events not available", http.StatusNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, subID := s.broadcaster.Subscribe(r.Context(), caller)
	defer s.broadcaster.Unsubscribe(subID)

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := enc.Encode(ev); err != nil {
				s.logger.Debug("event stream closed", "caller", caller, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) sendResult(w http.ResponseWriter, id json.RawMessage, result any) {
	if result == nil {
		result = nullResult
	}
	resp := Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode JSON-RPC response", "error", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	resp := Response{
		JSONRPC: "2.0",
		ID:      id,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode JSON-RPC error response", "error", err)
	}
}
