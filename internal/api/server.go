// Package api provides the HTTP API server for dayplan.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quantumlife/dayplan/internal/core"
	"github.com/quantumlife/dayplan/internal/logging"
	"github.com/quantumlife/dayplan/internal/planner"
)

// Planner is the engine surface the API serves.
type Planner interface {
	GetAvailableTime(ctx context.Context, userID core.UserID) (*planner.AvailabilityReport, error)
	GetOptimizedSchedule(ctx context.Context, userID core.UserID, date string) (*planner.Schedule, error)
	GetTasksRightNow(ctx context.Context, userID core.UserID) (*planner.NowPlan, error)
	GetRemainingDaySchedule(ctx context.Context, userID core.UserID) (*planner.RemainingView, error)
}

// Pinger reports backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	planner  Planner
	profiles planner.ProfileSource
	health   Pinger
	metrics  http.Handler
	logger   *logging.Logger
}

// Config for the server
type Config struct {
	Addr        string
	Planner     Planner
	Profiles    planner.ProfileSource // Optional, serves GET /api/v1/profile
	Health      Pinger                // Optional
	Metrics     http.Handler          // Optional, served at /metrics
	CORSOrigins []string
}

// New creates a new API server
func New(cfg Config) (*Server, error) {
	if cfg.Planner == nil {
		return nil, fmt.Errorf("%w: planner", core.ErrMissingRequired)
	}

	s := &Server{
		planner:  cfg.Planner,
		profiles: cfg.Profiles,
		health:   cfg.Health,
		metrics:  cfg.Metrics,
		logger:   logging.WithField("component", "api"),
	}

	s.setupRouter(cfg.CORSOrigins)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) setupRouter(origins []string) {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", UserIDHeader},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RequireUser)

		r.Get("/profile", s.handleGetProfile)
		r.Get("/availability", s.handleAvailability)
		r.Get("/schedule", s.handleSchedule)
		r.Get("/schedule/now", s.handleNow)
		r.Get("/schedule/remaining", s.handleRemaining)
	})

	s.router = r
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Stop is called; it then returns nil.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("API server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps engine and store errors onto HTTP statuses.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.WithFields(map[string]interface{}{
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
			"error":      err,
		}).Error("Request failed")
		s.respondError(w, status, "internal error")
		return
	}
	s.respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidDate), errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidProfile), errors.Is(err, core.ErrMissingRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if s.profiles == nil {
		s.respondError(w, http.StatusNotImplemented, "profile lookup not available")
		return
	}
	p, err := s.profiles.GetProfile(r.Context(), UserFrom(r.Context()))
	if err == nil && p == nil {
		err = core.ErrProfileNotFound
	}
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	report, err := s.planner.GetAvailableTime(r.Context(), UserFrom(r.Context()))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := s.planner.GetOptimizedSchedule(r.Context(), UserFrom(r.Context()), r.URL.Query().Get("date"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sched)
}

func (s *Server) handleNow(w http.ResponseWriter, r *http.Request) {
	plan, err := s.planner.GetTasksRightNow(r.Context(), UserFrom(r.Context()))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, plan)
}

func (s *Server) handleRemaining(w http.ResponseWriter, r *http.Request) {
	view, err := s.planner.GetRemainingDaySchedule(r.Context(), UserFrom(r.Context()))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}
