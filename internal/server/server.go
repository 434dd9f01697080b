// Package server exposes the conversation manager over HTTP: the chat turn
// endpoint, the read-only session inspection endpoint, health, and metrics.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	apperrors "travel-companion/internal/common/errors"
	"travel-companion/internal/conversation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Config struct {
	AllowedOrigins []string
	TurnTimeout    time.Duration

	// MetricsGatherer carries the observability instance's registry. It is
	// served from /metrics together with the default registry.
	MetricsGatherer prometheus.Gatherer
}

type Server struct {
	router  *chi.Mux
	manager *conversation.Manager
	config  *Config
	logger  Logger
	errors  *apperrors.ErrorHandler
}

func NewServer(manager *conversation.Manager, config *Config, log Logger) *Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s := &Server{
		router:  r,
		manager: manager,
		config:  config,
		logger:  log.With(map[string]interface{}{"component": "server"}),
		errors:  apperrors.NewErrorHandler(log),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)
	s.router.Post("/chat", s.handleChat)
	s.router.Get("/session/{sessionID}", s.handleGetSession)
	s.router.Handle("/metrics", s.metricsHandler())
}

func (s *Server) metricsHandler() http.Handler {
	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer}
	if s.config.MetricsGatherer != nil {
		gatherers = append(gatherers, s.config.MetricsGatherer)
	}
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"service": "travel-companion",
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChat processes one conversation turn. An empty message is rejected
// before any session state is touched.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeBadRequest(w, "message is required")
		return
	}

	ctx := r.Context()
	if s.config.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.TurnTimeout)
		defer cancel()
	}

	result, err := s.manager.ProcessTurn(ctx, strings.TrimSpace(req.SessionID), strings.TrimSpace(req.UserID), req.Message)
	if err != nil {
		s.errors.WriteError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, ChatResponse{
		SessionID:     result.SessionID,
		Message:       result.Message,
		NeedsMoreInfo: result.NeedsMoreInfo,
		State:         string(result.State),
		Itinerary:     result.Itinerary,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	record, err := s.manager.GetSession(r.Context(), sessionID)
	if err != nil {
		s.errors.WriteError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, SessionResponse{
		SessionID: record.SessionID,
		UserID:    record.UserID,
		Slots:     record.Slots,
		Completed: record.IsCompleted(),
		Itinerary: record.Itinerary,
		CreatedAt: record.CreatedAt.Format(time.RFC3339),
		UpdatedAt: record.UpdatedAt.Format(time.RFC3339),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *Server) writeBadRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
