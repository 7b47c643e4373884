// Package server exposes the dashboard engines over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/KaramelBytes/musicdash/internal/analysis"
	"github.com/KaramelBytes/musicdash/internal/dataset"
	"github.com/KaramelBytes/musicdash/internal/logger"
	"github.com/KaramelBytes/musicdash/internal/view"
)

// Options configures a Server.
type Options struct {
	Dataset        *dataset.Dataset
	Sessions       *view.Registry
	Logger         *logger.Logger
	CORSOrigins    []string
	RateLimitRPS   float64 // <= 0 disables rate limiting
	RateLimitBurst int
	TrustProxy     bool // honour X-Forwarded-For / X-Real-IP from a fronting proxy
	TopN           int
	Bins           int
}

// Server routes API requests to the engines over one shared dataset.
type Server struct {
	ds       *dataset.Dataset
	sessions *view.Registry
	log      *slog.Logger
	router   *chi.Mux
	limiter  *RateLimiter
	validate *Validator
	topN     int
	bins     int
}

// New builds the router. The dataset must already be loaded.
func New(opt Options) *Server {
	if opt.Logger == nil {
		opt.Logger = logger.Discard()
	}
	if opt.Sessions == nil {
		opt.Sessions = view.NewRegistry(0)
	}
	if opt.TopN <= 0 {
		opt.TopN = analysis.DefaultTopN
	}
	if opt.Bins <= 0 {
		opt.Bins = analysis.DefaultBins
	}
	s := &Server{
		ds:       opt.Dataset,
		sessions: opt.Sessions,
		log:      opt.Logger.Logger,
		router:   chi.NewRouter(),
		validate: newValidator(),
		topN:     opt.TopN,
		bins:     opt.Bins,
	}
	if opt.RateLimitRPS > 0 {
		burst := opt.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = NewRateLimiter(opt.RateLimitRPS, burst)
	}
	s.setupMiddleware(opt.CORSOrigins, opt.TrustProxy)
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

func (s *Server) setupMiddleware(origins []string, trustProxy bool) {
	s.router.Use(middleware.RequestID)
	if trustProxy {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	if len(origins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}
	if s.limiter != nil {
		s.router.Use(rateLimit(s.limiter, s.log))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/schema", s.handleSchema)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleGetSession)
			r.Post("/{id}/navigate", s.handleNavigate)
			r.Get("/{id}/dashboard", s.handleDashboard)
		})

		r.Get("/rankings", s.handleRankings)
		r.Get("/projections", s.handleProjections)
		r.Get("/distributions", s.handleDistributions)
		r.Get("/charts/{kind}.{format}", s.handleChart)
	})
}

// requestLogger logs one line per request through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ListenAndServe runs h on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, log *logger.Logger, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 15 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
