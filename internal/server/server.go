// Package server exposes the arrow engine and the structure renderer over
// HTTP.
//
// Routes:
//
//	POST /render    RenderRequest  -> RenderResponse (400 "Invalid SMILES")
//	POST /suggest   SuggestRequest -> SuggestResponse
//	GET  /healthz   HealthResponse
//	GET  /rules     RulesResponse
//	GET  /metrics   Prometheus exposition (when metrics are configured)
//	OPTIONS *       CORS preflight, always 200
//
// Everything a request needs lives on Service; the package keeps no
// process-wide mutable state.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/arrowpush/internal/engine"
	"github.com/roach88/arrowpush/internal/metrics"
	"github.com/roach88/arrowpush/internal/molecule"
	"github.com/roach88/arrowpush/internal/render"
	"github.com/roach88/arrowpush/internal/store"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// Parser turns structure text into a molecule.
// Implemented by *molecule.Service.
type Parser interface {
	Parse(text string) (*molecule.Molecule, error)
}

// Service handles the HTTP API.
//
// INVARIANTS:
//   - the engine, parser and renderer are shared read-only across requests
//   - recorder and metrics may be nil; every use is guarded
type Service struct {
	engine       *engine.Engine
	parser       Parser
	renderer     *render.Renderer
	recorder     *store.Recorder
	metrics      *metrics.Metrics
	ids          RequestIDGenerator
	logger       *slog.Logger
	corsOrigin   string
	maxBodyBytes int64
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder records every suggest evaluation in the audit log.
func WithRecorder(r *store.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithMetrics enables request, evaluation and render metrics and the
// /metrics route.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRequestIDGenerator overrides the UUIDv7 request ID generator.
func WithRequestIDGenerator(g RequestIDGenerator) Option {
	return func(s *Service) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithLogger sets the request logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCORSOrigin sets Access-Control-Allow-Origin. Default: "*".
func WithCORSOrigin(origin string) Option {
	return func(s *Service) {
		if origin != "" {
			s.corsOrigin = origin
		}
	}
}

// WithMaxBodyBytes limits request body size. Default: DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// NewService creates a Service. The engine, parser and renderer are required.
func NewService(eng *engine.Engine, parser Parser, renderer *render.Renderer, opts ...Option) (*Service, error) {
	if eng == nil {
		return nil, errors.New("server: nil engine")
	}
	if parser == nil {
		return nil, errors.New("server: nil parser")
	}
	if renderer == nil {
		return nil, errors.New("server: nil renderer")
	}

	s := &Service{
		engine:       eng,
		parser:       parser,
		renderer:     renderer,
		ids:          UUIDv7Generator{},
		logger:       slog.Default(),
		corsOrigin:   "*",
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.observeMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(s.limitRequestBodyMiddleware)

	r.Post("/render", s.handleRender)
	r.Post("/suggest", s.handleSuggest)
	r.Get("/healthz", s.handleHealth)
	r.Get("/rules", s.handleRules)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	return r
}

// Serve runs an HTTP server on ln until ctx is cancelled, then shuts it
// down, waiting up to shutdownTimeout for in-flight requests.
func Serve(ctx context.Context, ln net.Listener, h http.Handler, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
