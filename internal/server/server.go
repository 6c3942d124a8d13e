// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/model"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr matches the client's default base URL.
	DefaultAddr = "127.0.0.1:8000"

	// MaxRequestBodySize bounds a POST /chat body.
	MaxRequestBodySize = 1 << 20
)

// ============================================================================
// RESPONDER
// ============================================================================

// Reply is what the server sends for one chat request.
type Reply struct {
	// Status is the HTTP status (default 200). Non-2xx replies carry Detail
	// in a {"detail": ...} body.
	Status int
	Detail string

	// Fragments are sent as consecutive content records.
	Fragments []string
	Sources   []model.SourceRef

	// JSON sends one {"response", "sources"} object instead of a stream.
	JSON bool

	// Delay is the pause before each fragment.
	Delay time.Duration

	// Raw lines are written verbatim after the fragments, before the
	// sources record.
	Raw []string
}

// Responder produces the reply to a chat request.
type Responder func(ctx context.Context, req api.ChatRequest) Reply

// EchoResponder answers with the question, citing page 1. It also lists an
// uncited page 2, which clients are expected to hide.
func EchoResponder(_ context.Context, req api.ChatRequest) Reply {
	words := strings.Fields("You asked: " + req.Message)
	fragments := make([]string, 0, len(words)+1)
	for i, w := range words {
		if i > 0 {
			w = " " + w
		}
		fragments = append(fragments, w)
	}
	fragments = append(fragments, " [Page 1]")
	return Reply{
		Fragments: fragments,
		Sources: []model.SourceRef{
			{PageNumber: 1, Excerpt: "The page the answer came from."},
			{PageNumber: 2, Excerpt: "A page that was retrieved but not cited."},
		},
	}
}

// ============================================================================
// SERVER
// ============================================================================

// Config configures a Server.
type Config struct {
	Addr      string      // default DefaultAddr
	Responder Responder   // default EchoResponder
	Logger    *zap.Logger // default: no-op

	// NoDocument makes /health report that no document is loaded.
	NoDocument bool
}

// Server is the stand-in service. It is safe for concurrent use.
type Server struct {
	cfg     Config
	handler http.Handler

	mu       sync.Mutex
	requests []api.ChatRequest
	server   *http.Server
	closed   bool
}

// New creates a server. Call Start to listen, or mount Handler.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Responder == nil {
		cfg.Responder = EchoResponder
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Server{cfg: cfg}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /health", s.handleHealth)
	// Recovery sits inside logging so a recovered panic is logged as a 500.
	s.handler = Chain(
		LoggingMiddleware(cfg.Logger),
		RecoveryMiddleware(cfg.Logger),
	)(mux)
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Requests returns the chat requests received so far.
func (s *Server) Requests() []api.ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.ChatRequest(nil), s.requests...)
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBodySize)).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "message is required"})
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	reply := s.cfg.Responder(r.Context(), req)
	if reply.Status != 0 && (reply.Status < 200 || reply.Status > 299) {
		s.writeJSON(w, reply.Status, map[string]string{"detail": reply.Detail})
		return
	}

	if reply.JSON {
		sources := reply.Sources
		if sources == nil {
			sources = []model.SourceRef{}
		}
		s.writeJSON(w, http.StatusOK, map[string]any{
			"response": strings.Join(reply.Fragments, ""),
			"sources":  sources,
		})
		return
	}
	s.stream(w, r, reply)
}

// stream writes the reply as records, flushing after each one.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, reply Reply) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)

	// Headers go out before the first fragment so clients reach the body
	// while a delayed reply is still pending.
	w.WriteHeader(http.StatusOK)
	if flusher != nil {
		flusher.Flush()
	}

	send := func(v any) {
		data, err := json.Marshal(v)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n", data)
		if flusher != nil {
			flusher.Flush()
		}
	}

	for _, fragment := range reply.Fragments {
		if reply.Delay > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(reply.Delay):
			}
		}
		send(map[string]string{"type": "content", "content": fragment})
	}
	for _, line := range reply.Raw {
		fmt.Fprintln(w, line)
	}
	if len(reply.Sources) > 0 {
		send(map[string]any{"type": "sources", "sources": reply.Sources})
	}
	send(map[string]string{"type": "done"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		PDFLoaded: !s.cfg.NoDocument,
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on the configured address until Shutdown. It returns nil at
// once if Shutdown already ran.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.server = srv
	s.mu.Unlock()

	s.cfg.Logger.Info("server started", zap.String("addr", s.cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for open requests until ctx ends. A
// server shut down before Start never listens.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.cfg.Logger.Info("server shutting down")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.cfg.Logger.Debug("write response failed", zap.Error(err))
	}
}
