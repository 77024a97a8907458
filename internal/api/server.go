// Package api implements the HTTP surface: conversation lifecycle,
// report retrieval, the websocket entry point, and health.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/havenline/haven/internal/buildinfo"
	"github.com/havenline/haven/internal/convo"
	"github.com/havenline/haven/internal/llm"
)

// Reporter summarizes a finished conversation. Satisfied by
// agent.ReportGenerator.
type Reporter interface {
	Generate(ctx context.Context, history []convo.Message) (string, error)
}

// Server is the HTTP API server.
type Server struct {
	address  string
	port     int
	store    convo.Store
	reporter Reporter
	gateway  http.Handler
	llm      llm.Client
	logger   *slog.Logger
	server   *http.Server
}

// NewServer creates the API server. The gateway handler serves
// GET /ws/{id}.
func NewServer(address string, port int, store convo.Store, reporter Reporter, gateway http.Handler, client llm.Client, logger *slog.Logger) *Server {
	return &Server{
		address:  address,
		port:     port,
		store:    store,
		reporter: reporter,
		gateway:  gateway,
		llm:      client,
		logger:   logger,
	}
}

// Handler returns the routed handler. Split out from Start for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /conversation/start", s.handleStart)
	mux.HandleFunc("POST /conversation/{id}/end", s.handleEnd)
	mux.HandleFunc("POST /conversation/{id}/location", s.handleLocation)
	mux.HandleFunc("GET /conversation/{id}/report", s.handleReport)
	mux.Handle("GET /ws/{id}", s.gateway)

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /", s.handleRoot)

	return s.withLogging(mux)
}

// Start runs the server until it fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.address, s.port),
		Handler: s.Handler(),
		// No global read/write timeouts: /ws/{id} connections are
		// long-lived. Header reads still get a deadline.
		ReadHeaderTimeout: 10 * time.Second,
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("failed to write JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"name":    "Haven",
		"version": buildinfo.Version,
		"status":  "ok",
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	conv, err := s.store.CreateConversation(req.UserID)
	if err != nil {
		s.logger.Error("create conversation failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create conversation")
		return
	}

	s.logger.Info("conversation started", "conversation", conv.ID, "user", conv.UserID)
	s.writeJSON(w, http.StatusOK, map[string]string{"conversation_id": conv.ID})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	conv, err := s.store.Conversation(id)
	if errors.Is(err, convo.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		s.logger.Error("load conversation failed", "conversation", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	if _, err := s.store.EndConversation(id); err != nil {
		if errors.Is(err, convo.ErrEnded) {
			s.writeError(w, http.StatusConflict, "conversation already ended")
			return
		}
		s.logger.Error("end conversation failed", "conversation", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to end conversation")
		return
	}

	// Report generation is best effort: the end itself stands even if
	// the model is unreachable.
	report, err := s.reporter.Generate(r.Context(), conv.Messages)
	if err != nil {
		s.logger.Error("report generation failed", "conversation", id, "error", err)
	} else if err := s.store.SetReport(id, report); err != nil {
		s.logger.Error("save report failed", "conversation", id, "error", err)
	}

	s.logger.Info("conversation ended", "conversation", id, "messages", len(conv.Messages))
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "conversation ended",
		"report":  report,
	})
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		s.writeError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}

	switch err := s.store.SetLocation(id, req.Latitude, req.Longitude); {
	case errors.Is(err, convo.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, convo.ErrEnded):
		s.writeError(w, http.StatusConflict, "conversation already ended")
	case err != nil:
		s.logger.Error("set location failed", "conversation", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to save location")
	default:
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "location saved"})
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	conv, err := s.store.Conversation(id)
	if errors.Is(err, convo.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		s.logger.Error("load conversation failed", "conversation", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	if conv.Report == "" {
		s.writeError(w, http.StatusNotFound, "report not available")
		return
	}

	if r.URL.Query().Get("format") == "html" {
		html, err := renderReportHTML(conv.Report)
		if err != nil {
			s.logger.Error("report render failed", "conversation", id, "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to render report")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"report": conv.Report})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	overall := "healthy"
	model := "ok"
	if err := s.llm.Ping(ctx); err != nil {
		s.logger.Warn("model unreachable", "error", err)
		model = "unreachable"
		overall = "degraded"
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, map[string]any{
		"status": overall,
		"model":  model,
		"build":  buildinfo.Info(),
	})
}
