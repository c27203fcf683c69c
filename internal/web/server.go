// Package web provides the HTTP server and handlers for section extraction.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/sheetsections/internal/config"
	"github.com/JonMunkholm/sheetsections/internal/core"
	mw "github.com/JonMunkholm/sheetsections/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// contentSecurityPolicy allows the pinned HTMX script and inline styles.
const contentSecurityPolicy = "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self'"

// Server is the HTTP server for the extraction service.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	generalLimiter *mw.RateLimiter
	uploadLimiter  *mw.RateLimiter
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.generalLimiter = mw.NewRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute)
		s.uploadLimiter = mw.NewRateLimiter(cfg.Rate.UploadLimit, time.Minute)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.generalLimiter != nil {
		s.router.Use(s.generalLimiter.Handler(s.respondError))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		s.protect(r)

		r.With(s.uploadRateLimit).Post("/upload", s.handleUpload)
		r.Get("/upload/status", s.handleUploadStatus)

		r.Get("/extractions", s.handleListExtractions)
		r.Get("/extractions/{id}", s.handleGetExtraction)
	})

	// Route used by the storefront's admin page.
	s.router.Group(func(r chi.Router) {
		s.protect(r)
		r.With(s.uploadRateLimit).Post("/algo/api/upload", s.handleUpload)
	})
}

// protect adds API key auth when it is enabled.
func (s *Server) protect(r chi.Router) {
	if s.cfg.Security.RequireAPIKey {
		r.Use(mw.APIKeyAuth(s.cfg.Security.APIKeys, s.respondError))
	}
}

// uploadRateLimit applies the stricter upload limit, if rate limiting is on.
func (s *Server) uploadRateLimit(next http.Handler) http.Handler {
	if s.uploadLimiter == nil {
		return next
	}
	return s.uploadLimiter.Handler(s.respondError)(next)
}

// Start listens on the configured address until Shutdown is called.
// Rate limiter cleanup runs until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	for _, rl := range []*mw.RateLimiter{s.generalLimiter, s.uploadLimiter} {
		if rl != nil {
			go rl.Cleanup(ctx)
		}
	}

	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
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
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy", contentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
