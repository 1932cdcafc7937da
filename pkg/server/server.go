// Package server exposes the solver over HTTP.
//
// Routes:
//
//	GET    /healthz              liveness and build version
//	GET    /v1/mechanisms        registered mechanisms
//	POST   /v1/solve             solve a market
//	GET    /v1/problems          stored problems, newest first
//	GET    /v1/problems/{id}     one stored problem with its matchings
//	DELETE /v1/problems/{id}     remove a stored problem
//
// The problem routes answer 501 when no store is configured. Errors are
// returned as {"error": {"code": "...", "message": "..."}}.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lnsongxf/gametheory/pkg/buildinfo"
	"github.com/lnsongxf/gametheory/pkg/pipeline"
	"github.com/lnsongxf/gametheory/pkg/store"
)

// DefaultMaxBodyBytes caps request bodies when Config.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 8 << 20

// Config wires a Server.
type Config struct {
	Runner *pipeline.Runner
	// Store keeps solved problems. Nil disables the problem routes.
	Store  store.Store
	Logger *log.Logger
	// Mechanisms are used when a request names none.
	Mechanisms []string
	// Outside forces the outside option on every submitted market.
	Outside      bool
	MaxBodyBytes int64
}

// Server is the HTTP API.
type Server struct {
	runner     *pipeline.Runner
	store      store.Store
	logger     *log.Logger
	mechanisms []string
	outside    bool
	maxBody    int64
	router     chi.Router
}

// New builds the router. A nil Runner gets an uncached one.
func New(cfg Config) *Server {
	s := &Server{
		runner:     cfg.Runner,
		store:      cfg.Store,
		logger:     cfg.Logger,
		mechanisms: cfg.Mechanisms,
		outside:    cfg.Outside,
		maxBody:    cfg.MaxBodyBytes,
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/mechanisms", s.handleMechanisms)
		r.Post("/solve", s.handleSolve)
		r.Route("/problems", func(r chi.Router) {
			r.Use(s.requireStore)
			r.Get("/", s.handleListProblems)
			r.Get("/{id}", s.handleGetProblem)
			r.Delete("/{id}", s.handleDeleteProblem)
		})
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "version", buildinfo.Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			writeError(w, errNoStore)
			return
		}
		next.ServeHTTP(w, r)
	})
}
