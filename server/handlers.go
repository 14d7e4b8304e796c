package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tailored-agentic-units/workflow/engine"
	"github.com/tailored-agentic-units/workflow/graph"
	"github.com/tailored-agentic-units/workflow/store"
	"github.com/tailored-agentic-units/workflow/workflow"
)

func (s *Server) handleCreateGraph(w http.ResponseWriter, r *http.Request) {
	var req workflow.CreateGraphRequest
	if !s.decode(w, r, &req) {
		return
	}

	id, err := s.svc.CreateGraph(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"graph_id": id})
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.GetGraph(r.Context(), r.PathValue("graph_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleRunGraph(w http.ResponseWriter, r *http.Request) {
	var req workflow.RunRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.svc.RunGraph(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.svc.GetRun(r.Context(), r.PathValue("run_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleResumeRun(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.ResumeRun(r.Context(), r.PathValue("run_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTools(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"tools": s.svc.Tools()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("health check", "remote_addr", r.RemoteAddr)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StatusCode maps service errors onto HTTP status codes.
func StatusCode(err error) int {
	var execErr *engine.ExecutionError
	switch {
	case errors.Is(err, store.ErrGraphNotFound), errors.Is(err, store.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrRunNotResumable):
		return http.StatusConflict
	case errors.Is(err, graph.ErrEmptyStart), errors.Is(err, graph.ErrEmptyNodeID):
		return http.StatusBadRequest
	case errors.As(err, &execErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("malformed request body: %v", err))
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	s.writeError(w, status, err.Error())
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}
