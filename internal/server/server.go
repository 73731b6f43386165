// Package server exposes the audit engine over HTTP for dashboards and
// scheduled jobs that cannot shell out to the CLI.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noveris-inf/winact/internal/auth"
	"github.com/noveris-inf/winact/internal/middleware"
	"github.com/noveris-inf/winact/internal/report"
	"github.com/noveris-inf/winact/internal/source"
)

// AuditRunner runs an audit over a host list. audit.Auditor is the
// production implementation.
type AuditRunner interface {
	Run(ctx context.Context, hosts []string) []report.Record
}

// Server wires the audit engine, enumeration sources and authentication
// into an HTTP API.
type Server struct {
	logger  *slog.Logger
	auth    *auth.Service
	runner  AuditRunner
	sources map[string]source.Source
}

// New creates a server. The sources map keys are the names clients pass
// in audit requests.
func New(logger *slog.Logger, authService *auth.Service, runner AuditRunner, sources map[string]source.Source) *Server {
	return &Server{
		logger:  logger.With("component", "server"),
		auth:    authService,
		runner:  runner,
		sources: sources,
	}
}

// Router creates and configures the API router
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.Logger(s.logger))

	// Public routes (no auth required)
	r.Get("/healthz", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoint
		r.Post("/auth/login", s.handleLogin)

		// Protected routes (require JWT)
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(s.auth))

			r.Post("/audits", s.handleAudit)
			r.Get("/sources", s.handleSources)
		})
	})

	return r
}
