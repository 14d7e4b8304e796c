// Package server exposes a workflow.Service over HTTP.
//
// JSON routes cover graph creation, batch runs, run lookup and resume; a
// WebSocket endpoint streams a run step by step. Additional handlers (the
// Connect RPC surface) are mounted with Handle. Every route sits behind the
// CORS middleware.
//
//	srv := server.New(svc, server.WithLogger(logger), server.WithAllowedOrigins(origins))
//	srv.Handle(rpc.NewHandler(svc))
//	http.ListenAndServe(addr, srv)
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tailored-agentic-units/workflow/workflow"
)

const writeWait = 10 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAllowedOrigins sets the CORS and WebSocket origin allow list. "*"
// allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// Server is an http.Handler serving a workflow.Service.
type Server struct {
	svc      *workflow.Service
	logger   *slog.Logger
	origins  []string
	mux      *http.ServeMux
	handler  http.Handler
	upgrader websocket.Upgrader
}

// New creates a Server with all routes registered.
func New(svc *workflow.Service, opts ...Option) *Server {
	s := &Server{
		svc:     svc,
		logger:  slog.Default(),
		origins: []string{"*"},
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.allowed(origin)
		},
	}

	s.mux.HandleFunc("POST /graph/create", s.handleCreateGraph)
	s.mux.HandleFunc("GET /graph/{graph_id}", s.handleGetGraph)
	s.mux.HandleFunc("POST /graph/run", s.handleRunGraph)
	s.mux.HandleFunc("GET /graph/state/{run_id}", s.handleGetRun)
	s.mux.HandleFunc("POST /graph/resume/{run_id}", s.handleResumeRun)
	s.mux.HandleFunc("GET /tools", s.handleTools)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ws/graph/run", s.handleStream)

	s.handler = s.withCORS(s.mux)
	return s
}

// Handle mounts h under pattern, typically the path returned alongside a
// Connect handler.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
