// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — it connects handlers, middleware,
// and routes. It decides which URL patterns map to which handlers, what
// middleware runs where, and how the server starts and stops gracefully.
//
// Keeping this out of main.go makes the server testable (tests can build
// the same router without running main) and keeps main minimal.
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go loads config → New() creates:
//	  sqlite.DB → TokenService/PasswordService
//	           → AuthService/BookmarkService/RedirectService
//	           → handlers → routes
//
// This is the "composition root" pattern — all dependencies are wired in
// one place rather than scattered across the codebase.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/bookmarks/internal/auth"
	"github.com/sakif/bookmarks/internal/config"
	"github.com/sakif/bookmarks/internal/handler"
	"github.com/sakif/bookmarks/internal/middleware"
	sqliteRepo "github.com/sakif/bookmarks/internal/repository/sqlite"
	"github.com/sakif/bookmarks/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection. When the server shuts down it
// closes the connection to flush the WAL and release the file lock; this
// happens in Start() during graceful shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server and assembles the whole dependency chain:
//
//  1. Open the database (sqlite.New)
//  2. Build the token and password services from config
//  3. Build the domain services on top of the repository interfaces
//  4. Wire handlers to routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services. Nothing below the wiring layer
// touches the concrete sqlite.DB.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close() // clean up the DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /api/v1/auth/register       → create an account
//	POST   /api/v1/auth/login          → issue access + refresh tokens
//	GET    /api/v1/auth/me             → current user (access token)
//	GET    /api/v1/auth/token/refresh  → new access token (refresh token)
//	GET    /api/v1/bookmarks           → list (paginated)
//	POST   /api/v1/bookmarks           → create
//	GET    /api/v1/bookmarks/stats     → visit counts
//	GET    /api/v1/bookmarks/{id}      → fetch one
//	PUT    /api/v1/bookmarks/{id}      → update (PATCH accepted too)
//	DELETE /api/v1/bookmarks/{id}      → delete
//	GET    /healthz                    → liveness probe
//	GET    /{shortURL}                 → public redirect, counts the visit
//
// MIDDLEWARE ORDER MATTERS — middleware executes in the order it's added:
//  1. RequestID — assigns a unique ID to each request (for tracing)
//  2. RealIP — extracts the real client IP from proxy headers
//  3. Recoverer — catches panics and returns 500 instead of crashing
//  4. Logger — logs each request with timing info
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// API clients always get JSON, including for unknown routes and
	// wrong methods.
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeNotFound(w)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"error":"method_not_allowed","message":"method not allowed"}`))
	})

	tokens, err := auth.NewTokenService(
		s.config.Tokens.Secret,
		s.config.Tokens.AccessTTL,
		s.config.Tokens.RefreshTTL,
	)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	// The sqlite DB implements both repository interfaces; the services
	// each receive only the one they use.
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	bookmarkService := service.NewBookmarkService(s.db, s.logger)
	redirectService := service.NewRedirectService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	bookmarkHandler := handler.NewBookmarkHandler(bookmarkService, s.logger)
	redirectHandler := handler.NewRedirectHandler(redirectService, s.logger)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(tokens))
				r.Get("/me", authHandler.HandleMe)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRefresh(tokens))
				r.Get("/token/refresh", authHandler.HandleRefresh)
			})
		})

		r.Route("/bookmarks", func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/", bookmarkHandler.HandleList)
			r.Post("/", bookmarkHandler.HandleCreate)
			// "stats" must be registered before "{id}" so it isn't
			// swallowed by the id pattern.
			r.Get("/stats", bookmarkHandler.HandleStats)
			r.Get("/{id}", bookmarkHandler.HandleGetByID)
			r.Put("/{id}", bookmarkHandler.HandleUpdate)
			r.Patch("/{id}", bookmarkHandler.HandleUpdate)
			r.Delete("/{id}", bookmarkHandler.HandleDelete)
		})
	})

	// Public short-link redirect. Registered last, at the root, so it
	// only matches single-segment paths that nothing above claimed.
	s.router.Get("/{shortURL}", redirectHandler.HandleRedirect)

	return nil
}

// writeNotFound sends the standard 404 body without importing the handler
// package's internals.
func writeNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"not_found","message":"resource not found"}`))
}

// Router returns the configured router. Tests mount it on an httptest
// server instead of calling Start.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the server's resources without going through Start's
// shutdown path. Tests use it via t.Cleanup.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// Shutdown sequence:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the database connection (flushes WAL, releases the file lock)
//
// The `defer s.db.Close()` ensures step 3 happens even if something panics.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.config.HTTPServer.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.HTTPServer.ReadTimeout,
		WriteTimeout: s.config.HTTPServer.WriteTimeout,
		IdleTimeout:  s.config.HTTPServer.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("address", s.config.HTTPServer.Address),
			slog.String("database", s.config.Database.Path),
			slog.String("env", s.config.Env),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give in-flight requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
