// Package server exposes the aggregate views, the calendar and the news feed
// over a JSON HTTP API with a websocket countdown stream.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/pitwall/internal/cache"
	"github.com/yourusername/pitwall/internal/health"
	"github.com/yourusername/pitwall/internal/logger"
	"github.com/yourusername/pitwall/internal/metrics"
	"github.com/yourusername/pitwall/internal/news"
	"github.com/yourusername/pitwall/internal/schedule"
	"github.com/yourusername/pitwall/internal/stats"
)

// Options wires the server to its stores
type Options struct {
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	CountdownInterval time.Duration
	MetricsPath       string // empty disables /metrics

	Engine   *stats.Engine
	Schedule *schedule.Store
	News     *news.Aggregator
	Health   *health.Handler

	// Loaders are ensured before the matching store is queried. Any may be nil.
	DatasetLoader  *cache.Loader
	ScheduleLoader *cache.Loader
	NewsLoader     *cache.Loader

	Clock  func() time.Time
	Logger *logrus.Logger
}

// Server is the HTTP API
type Server struct {
	opts   Options
	router chi.Router
	hub    *CountdownHub
	clock  func() time.Time
	logger *logrus.Entry
}

// New creates the server and its routes
func New(opts Options) *Server {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	interval := opts.CountdownInterval
	if interval <= 0 {
		interval = time.Second
	}

	s := &Server{
		opts:   opts,
		clock:  clock,
		logger: logger.OrDiscard(opts.Logger).WithField("component", "server"),
	}
	s.hub = NewCountdownHub(s.countdownMessage, interval, opts.Logger)
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the countdown broadcast hub
func (s *Server) Hub() *CountdownHub {
	return s.hub
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)

	if s.opts.Health != nil {
		s.opts.Health.Mount(r)
	}
	if s.opts.MetricsPath != "" {
		r.Handle(s.opts.MetricsPath, metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/seasons", s.handleSeasons)
		r.Get("/standings/drivers", s.handleDriverStandings)
		r.Get("/standings/drivers/{year}/final", s.handleFinalStandings)
		r.Get("/standings/constructors", s.handleConstructorStandings)
		r.Get("/constructors/heatmap", s.handleConstructorHeatmap)
		r.Get("/circuits", s.handleCircuits)
		r.Get("/circuits/{name}", s.handleCircuit)
		r.Get("/drivers/top", s.handleTopDrivers)
		r.Get("/drivers/compare", s.handleCompareDrivers)
		r.Get("/schedule", s.handleSchedule)
		r.Get("/schedule/next", s.handleNextRace)
		r.Get("/schedule/countdown", s.handleCountdown)
		r.Get("/news", s.handleNews)
	})
	r.Get("/ws/countdown", s.handleCountdownStream)

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  chimiddleware.GetReqID(r.Context()),
		}).Debug("Request served")
	})
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.opts.Port),
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("port", s.opts.Port).Info("API server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("API server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func ensure(ctx context.Context, loader *cache.Loader) error {
	if loader == nil {
		return nil
	}
	return loader.Ensure(ctx)
}
