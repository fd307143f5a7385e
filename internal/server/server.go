// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and routes.
// Think of it as the control centre that decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it:
// - Testable (we can create a test server without running main)
// - Reusable (multiple entry points could use the same server config)
// - Clean (main.go stays minimal — just "load config, start the server")
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go:        config.Load() → server.New(cfg, logger) → Start()
//	server.New():   sqlite.DB + blob.Store + auth plumbing
//	                → Services → Handlers → Routes
//
// This is the "composition root" pattern — all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
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

	"github.com/sakif/devfolio/internal/auth"
	"github.com/sakif/devfolio/internal/blob"
	"github.com/sakif/devfolio/internal/config"
	"github.com/sakif/devfolio/internal/github"
	"github.com/sakif/devfolio/internal/handler"
	"github.com/sakif/devfolio/internal/middleware"
	sqliteRepo "github.com/sakif/devfolio/internal/repository/sqlite"
	"github.com/sakif/devfolio/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. When the server shuts down, the
// connection must be closed to flush the WAL and release the file lock —
// Start() handles that during graceful shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with the full dependency graph wired up.
//
// THE CHAIN, ASSEMBLED HERE AND NOWHERE ELSE:
//  1. Infrastructure: sqlite.DB, blob.Store, GitHub OAuth provider,
//     JWT token service, admin key service, GitHub API client
//  2. Services: auth, projects, github proxy, documentation, attachments
//  3. Handlers: one per route group, each receiving only its service
//
// Each layer only receives what it needs: services get repository
// INTERFACES (not *sqlite.DB), handlers get services (not repositories).
//
// IMPORT ALIAS:
// repository/sqlite is imported as sqliteRepo to avoid colliding with the
// sqlite driver package name.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
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
		db.Close() // clean up the DB if wiring fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                              → liveness probe
//	GET    /files/*                              → public attachment blobs
//	GET    /api/auth/login                       → GitHub authorization URL
//	GET    /auth/github/callback                 → OAuth callback (redirects to the frontend)
//	POST   /api/auth/store-github-token          → validate + store a GitHub token   [bearer]
//	GET    /api/auth/me                          → caller's profile + link status    [bearer]
//	POST   /api/admin/promote                    → set a profile's role           [admin key]
//	GET    /api/github/{user,repos,activity,contributions}                          [bearer]
//	GET    /api/projects            POST /api/projects                              [bearer]
//	GET    /api/projects/{id}       PATCH /api/projects/{id}                        [bearer]
//	GET/PUT  /api/projects/{id}/documentation                                       [bearer]
//	GET/POST /api/projects/{id}/attachments                                         [bearer]
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added:
// 1. RequestID — assigns a unique ID to each request (for tracing)
// 2. RealIP — extracts the real client IP from proxy headers
// 3. Recoverer — catches panics and returns 500 instead of crashing
// 4. Logger — logs each request with timing info and the request ID
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === Infrastructure ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	adminKey, err := auth.NewAdminKeyService(s.config.AdminKeyHash)
	if err != nil {
		return fmt.Errorf("creating admin key service: %w", err)
	}
	blobs, err := blob.NewStore(s.config.UploadDir, s.config.PublicBaseURL)
	if err != nil {
		return fmt.Errorf("creating blob store: %w", err)
	}
	provider := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)
	ghClient := github.New()

	// === Services ===
	// s.db's accessors return the per-entity stores; each implements the
	// repository interface its service programs against.
	authService := service.NewAuthService(
		s.db.Profiles(), s.db.Tokens(), tokens, provider, adminKey, s.logger)
	projectService := service.NewProjectService(
		s.db.Projects(), s.db.Profiles(), s.db.Tokens(), ghClient, s.logger)
	githubService := service.NewGitHubService(s.db.Tokens(), ghClient, s.logger)
	docService := service.NewDocumentationService(
		s.db.Documentation(), s.db.Projects(), s.db.Profiles(), s.logger)
	attachmentService := service.NewAttachmentService(
		s.db.Attachments(), s.db.Projects(), s.db.Profiles(), blobs, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, s.config.FrontendURL, s.logger)
	githubHandler := handler.NewGitHubHandler(githubService, s.logger)
	projectHandler := handler.NewProjectHandler(projectService, s.logger)
	docHandler := handler.NewDocumentationHandler(docService, s.logger)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService, s.logger)

	// === Public routes ===
	s.router.Get("/healthz", handler.HandleHealth)

	// Attachment blobs are public by URL: the stored names carry an
	// unguessable xid, and the URLs only ever appear inside policy-checked
	// attachment listings.
	fileServer := http.FileServer(http.Dir(blobs.Dir()))
	s.router.Handle("/files/*", http.StripPrefix("/files/", fileServer))

	s.router.Get("/auth/github/callback", authHandler.HandleCallback)

	// === API routes ===
	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/auth/login", authHandler.HandleLogin)
		r.Post("/admin/promote", authHandler.HandlePromote)

		// Everything below requires a valid bearer session.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/auth/store-github-token", authHandler.HandleStoreToken)
			r.Get("/auth/me", authHandler.HandleMe)

			r.Get("/github/user", githubHandler.HandleUser)
			r.Get("/github/repos", githubHandler.HandleRepos)
			r.Get("/github/activity", githubHandler.HandleActivity)
			r.Get("/github/contributions", githubHandler.HandleContributions)

			r.Get("/projects", projectHandler.HandleList)
			r.Post("/projects", projectHandler.HandleImport)
			r.Get("/projects/{id}", projectHandler.HandleGet)
			r.Patch("/projects/{id}", projectHandler.HandlePatch)

			r.Get("/projects/{id}/documentation", docHandler.HandleGet)
			r.Put("/projects/{id}/documentation", docHandler.HandlePut)

			r.Get("/projects/{id}/attachments", attachmentHandler.HandleList)
			r.Post("/projects/{id}/attachments", attachmentHandler.HandleUpload)
		})
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes the WAL, releases the file lock)
//
// The `defer s.db.Close()` ensures step 3 happens even if something panics.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
