// Package server exposes recorded run history over a small JSON API.
//
//	GET /healthz            liveness
//	GET /api/runs?limit=N   recent runs, newest first
//	GET /api/runs/latest    the most recent run with its entries
//	GET /api/runs/{id}      one run with its entries
//	GET /api/events         server-sent "run" events when a run is recorded
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

	"github.com/leapstack-labs/snipcheck/internal/watch"
	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// Config holds configuration for the server.
type Config struct {
	Store core.HistoryStore
	Port  int
	// Watcher, when set, re-runs the catalog through Rerun on document changes.
	Watcher *watch.Watcher
	// Rerun executes the catalog. Required when Watcher is set.
	Rerun  func(ctx context.Context) error
	Logger *slog.Logger
}

// Server serves the history API.
type Server struct {
	store    core.HistoryStore
	port     int
	watcher  *watch.Watcher
	rerun    func(ctx context.Context) error
	logger   *slog.Logger
	notifier *Notifier
}

// New creates a server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		store:    cfg.Store,
		port:     cfg.Port,
		watcher:  cfg.Watcher,
		rerun:    cfg.Rerun,
		logger:   logger,
		notifier: NewNotifier(),
	}
}

// Notifier returns the server's notifier for event-stream updates.
func (s *Server) Notifier() *Notifier {
	return s.notifier
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		s.requestLogger,
		middleware.Recoverer,
	)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/latest", s.handleLatestRun)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/events", s.handleEvents)
	})
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting history server", "addr", ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watcher != nil && s.rerun != nil {
		eg.Go(func() error {
			return s.watcher.Run(egctx, func(ctx context.Context, changed []string) {
				s.logger.Info("documents changed, re-running catalog", "files", len(changed))
				if err := s.rerun(ctx); err != nil {
					s.logger.Error("re-run failed", "error", err)
				}
				s.notifier.Broadcast()
			})
		})
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down history server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
