package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/schoolrecords/schoolrecords/internal/config"
	"github.com/schoolrecords/schoolrecords/internal/database"
	"github.com/schoolrecords/schoolrecords/internal/web/events"
	"github.com/schoolrecords/schoolrecords/internal/web/handlers"
	"github.com/schoolrecords/schoolrecords/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	cfg      config.HTTPConfig
	router   *chi.Mux
	hub      *events.Hub
	handlers *handlers.Handlers
}

// NewServer creates a new web server over the repository. Every write event
// goes to the websocket hub and then to each extra publisher.
func NewServer(cfg config.HTTPConfig, provider *database.Provider, repo *database.Repository, extra ...handlers.Publisher) *Server {
	hub := events.NewHub(events.DefaultHeartbeat)
	s := &Server{
		cfg:      cfg,
		router:   chi.NewRouter(),
		hub:      hub,
		handlers: handlers.New(repo, provider, append(handlers.Publishers{hub}, extra...)),
	}
	s.setupRoutes()
	return s
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the live events hub
func (s *Server) Hub() *events.Hub {
	return s.hub
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	r := s.router
	h := s.handlers

	r.Use(chimiddleware.RequestID)
	// AllowSubnet must come BEFORE RealIP so we check the actual connection source
	r.Use(middleware.AllowSubnet(s.cfg.AllowedNet()))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	// Timeout is applied per group so the websocket can stay open

	r.Get("/api/events", s.hub.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(s.cfg.Timeout))

		r.Get("/healthz", h.Health)

		r.Route("/api", func(r chi.Router) {
			r.Route("/students", func(r chi.Router) {
				r.Get("/", h.ListStudents)
				r.Post("/", h.CreateStudent)
				r.Delete("/{id}", h.DeleteStudent)
			})

			r.Get("/classes", h.ListClasses)
			r.Post("/classes", h.CreateClass)
			r.Get("/teachers", h.ListTeachers)
			r.Post("/teachers", h.CreateTeacher)
			r.Get("/subjects", h.ListSubjects)
			r.Post("/subjects", h.CreateSubject)

			r.Get("/marks", h.ListMarks)
			r.Post("/marks", h.CreateMark)

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/", h.MarkAttendance)
				r.Get("/student", h.AttendanceByStudent)
				r.Get("/date/{date}", h.AttendanceByDate)
			})

			r.Route("/fees", func(r chi.Router) {
				r.Get("/", h.ListFees)
				r.Post("/", h.CreateFee)
				r.Get("/{id}", h.GetFee)
				r.Post("/{id}/payments", h.RecordPayment)
			})

			r.Get("/stats", h.Stats)
			r.Get("/export.xlsx", h.Export)
		})
	})
}

// Start starts the web server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Bind, s.cfg.Port)

	server := &http.Server{
		Addr:    addr,
		Handler: s.router,
		// ReadTimeout is for reading request body
		ReadTimeout: 15 * time.Second,
		// WriteTimeout disabled (0) to allow long-lived websocket connections
		// Chi middleware timeout protects regular requests
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		// Stop the hub first to close all client connections gracefully
		s.hub.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		s.hub.Stop()
		return err
	}
}
