// Package web provides the HTTP API for spreadsheet import, search and export.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/JonMunkholm/fundsheet/internal/config"
	"github.com/JonMunkholm/fundsheet/internal/core"
	"github.com/JonMunkholm/fundsheet/internal/metrics"
	mw "github.com/JonMunkholm/fundsheet/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// rateLimiterTTL is how long an idle client's token bucket is kept.
const rateLimiterTTL = 15 * time.Minute

// Server is the HTTP server for the funding data API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server with middleware and routes configured.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.RealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)

	if len(s.cfg.Security.AllowedOrigins) > 0 {
		s.router.Use(mw.CORS(s.cfg.Security.AllowedOrigins))
	}
	if s.cfg.Rate.Enabled {
		limiter := mw.NewRateLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst, rateLimiterTTL)
		s.router.Use(limiter.Middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	if s.cfg.Upload.Retain {
		fs := http.FileServer(http.Dir(s.cfg.Upload.Dir))
		s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", fs))
	}

	s.router.Route("/api", func(r chi.Router) {
		// Ingestion is bounded by UPLOAD_TIMEOUT inside core, not by the
		// request timeout, and has its own, stricter rate limit.
		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				limiter := mw.NewRateLimiter(s.cfg.Rate.UploadLimit, s.cfg.Rate.Burst, rateLimiterTTL)
				r.Use(limiter.Middleware)
			}
			r.Post("/upload", s.handleUpload)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
			r.With(middleware.Compress(5)).Post("/search", s.handleSearch)
			r.Get("/export", s.handleExport)
		})
	})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	if err := os.MkdirAll(s.cfg.Upload.Dir, 0o750); err != nil {
		return err
	}

	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Responses are JSON or attachments; nothing should load from them.
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
