// Package web provides the HTTP server and handlers for the timesheet
// preview UI and its JSON API.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/timesheet/internal/config"
	"github.com/JonMunkholm/timesheet/internal/core"
	"github.com/JonMunkholm/timesheet/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

var errRateLimited = errors.New("rate limit exceeded")

// Server is the HTTP server for the preview application.
type Server struct {
	cfg      *config.Config
	sessions *core.SessionStore
	reports  core.ReportLog
	limiter  *core.ReportLimiter

	rateLimiter   *middleware.RateLimiter
	uploadLimiter *middleware.RateLimiter

	router *chi.Mux
	server *http.Server
}

// NewServer wires the router. reports may be nil, in which case an
// in-memory log is used.
func NewServer(cfg *config.Config, sessions *core.SessionStore, reports core.ReportLog) *Server {
	if reports == nil {
		reports = core.NewMemoryReportLog(cfg.Report.LogLimit)
	}

	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		reports:  reports,
		limiter:  core.NewReportLimiter(cfg.Report.MaxConcurrent, cfg.Report.MaxWaitTime),
		router:   chi.NewRouter(),
	}
	s.rateLimiter = middleware.NewRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute, s.rejectRateLimited)
	s.uploadLimiter = middleware.NewRateLimiter(cfg.Rate.UploadLimit, time.Minute, s.rejectRateLimited)

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.ClientInfo)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(middleware.SecurityHeaders(s.cfg.Security.EnableCSP))
	if s.cfg.Rate.Enabled {
		s.router.Use(s.rateLimiter.Handler)
	}
}

func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.Get("/healthz", s.handleHealth)

	// Pages
	s.router.Get("/", s.handleHome)
	s.router.Get("/sessions/{id}", s.handleSessionPage)
	s.router.Get("/reports", s.handleReportsPage)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security.RequireAPIKey, s.cfg.Security.APIKeys))

		r.Get("/reports", s.handleReportLog)

		r.With(s.limitUploads).Post("/sessions", s.handleCreateSession)

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetPreview)
			r.Get("/preview", s.handleGetPreview)
			r.Delete("/", s.handleDeleteSession)

			r.Post("/columns/toggle", s.handleToggleColumn)
			r.Post("/columns", s.handleSetColumns)

			r.Post("/filters/{field}", s.handleSetFilter)
			r.Delete("/filters", s.handleClearFilters)

			r.With(s.limitUploads).Post("/report", s.handleReport)
		})
	})
}

func (s *Server) limitUploads(next http.Handler) http.Handler {
	if !s.cfg.Rate.Enabled {
		return next
	}
	return s.uploadLimiter.Handler(next)
}

func (s *Server) rejectRateLimited(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, r, errRateLimited, http.StatusTooManyRequests)
}

// Start listens until the server is shut down. Background cleanup stops
// when ctx is done.
func (s *Server) Start(ctx context.Context) error {
	go s.rateLimiter.StartCleanup(ctx)
	go s.uploadLimiter.StartCleanup(ctx)

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

// Shutdown stops accepting requests and waits for running reports.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	if drainErr := s.limiter.WaitForDrain(ctx); drainErr != nil {
		slog.Warn("reports still running at shutdown", "error", drainErr)
	}
	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
