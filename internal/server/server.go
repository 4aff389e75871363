package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"feedwatch/internal/auth"
	"feedwatch/internal/server/handlers"
)

type Server struct {
	app    *App
	auth   *auth.Middleware
	server *http.Server
}

// New builds the HTTP server for app. Admin routes require basic auth when an
// admin password is configured.
func New(app *App) (*Server, error) {
	var admin *auth.Admin
	if app.Config.Auth.AdminPassword != "" {
		var err error
		admin, err = auth.NewAdmin(app.Config.Auth.AdminUser, app.Config.Auth.AdminPassword)
		if err != nil {
			return nil, err
		}
	} else {
		app.Logger.Warn("FEEDWATCH_ADMIN_PASSWORD is not set; admin pages are not protected")
	}

	srv := &Server{
		app:  app,
		auth: auth.NewMiddleware(admin, app.Logger.ForFeature("auth")),
	}
	srv.setupRoutes()
	return srv, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) setupRoutes() {
	portalHandler := handlers.NewPortalHandler(s.app.Logger, s.app.Registry, s.app.DB)

	// Create router
	mux := chi.NewRouter()

	// Add middleware
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)
	mux.Use(Metrics)

	// Health check and metrics stay open for probes and scrapers
	mux.Get("/health", portalHandler.HealthCheckHandler)
	mux.Handle("/metrics", promhttp.Handler())

	// Protected routes
	mux.Group(func(r chi.Router) {
		r.Use(s.auth.RequireAdmin)

		r.Get("/", portalHandler.DashboardHandler)

		// Feature routes - use the registry to get all feature routes
		for _, route := range s.app.Registry.GetAllRoutes() {
			r.Method(route.Method, route.Path, route.Handler)
		}
	})

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.app.Config.Server.Host, s.app.Config.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Start initializes features, starts the scheduler and serves until Shutdown
func (s *Server) Start(ctx context.Context) error {
	if err := s.app.Registry.InitAll(ctx); err != nil {
		s.app.Logger.Error("Failed to initialize features", "error", err)
		return err
	}

	if err := s.app.Scheduler.Start(ctx); err != nil {
		return err
	}

	s.app.Logger.Info("Starting server", "host", s.app.Config.Server.Host, "port", s.app.Config.Server.Port)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.app.Logger.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	if err := s.app.Scheduler.Stop(ctx); err != nil {
		s.app.Logger.Error("Failed to stop scheduler", "error", err)
	}

	// Shutdown all features
	if err := s.app.Registry.ShutdownAll(ctx); err != nil {
		s.app.Logger.Error("Failed to shutdown features", "error", err)
	}

	if err := s.app.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
