package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"newsdesk/internal/pipeline"
)

const maxChatBodyBytes = 1 << 20

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Message string `json:"message"`
}

// ErrorResponse is returned for rejected requests
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by /health
type HealthResponse struct {
	Status string `json:"status"`
}

// IngestResponse acknowledges an admin-triggered ingestion
type IngestResponse struct {
	Status string `json:"status"`
}

// handleHealth handles the /health endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleBriefing handles GET /api/briefing
func (s *Server) handleBriefing(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.service.Briefing(r.Context()))
}

// handleChat handles POST /api/chat
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	body := http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		s.respondError(w, http.StatusBadRequest, "Message is required")
		return
	}

	s.respondJSON(w, http.StatusOK, s.service.Chat(r.Context(), req.Message))
}

// handleIngest handles POST /api/ingest. The run continues after the
// response is sent; a request while any run is active is rejected.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	started := s.ingester.Start(context.WithoutCancel(r.Context()), func(stats *pipeline.RunStats, err error) {
		if err == nil {
			s.log.Info("Admin ingestion finished", "persisted", stats.Persisted, "duration", stats.Duration)
		}
		if s.ingestDone != nil {
			s.ingestDone(stats, err)
		}
	})
	if !started {
		s.respondError(w, http.StatusConflict, "Ingestion already running")
		return
	}

	s.respondJSON(w, http.StatusAccepted, IngestResponse{Status: "started"})
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		s.log.Error("Failed to encode JSON response", "error", err)
	}
}

// respondError writes a JSON error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: message})
}

var _ Ingester = (*pipeline.Runner)(nil)
