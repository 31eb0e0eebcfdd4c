// Package server exposes gleaner over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	readTimeout     = 30 * time.Second
	writeTimeout    = 2 * time.Minute // collector runs embed every fetched item
	idleTimeout     = 2 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// Server is the gleaner HTTP server.
type Server struct {
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. A nil logger selects slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// New builds a server listening on addr. metrics may be nil, in which case
// /metrics is not routed.
func New(addr string, svc Service, metrics http.Handler, opts ...Option) *Server {
	s := &Server{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "http")

	router := gin.New()
	router.Use(recoveryMiddleware(s.logger))
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(s.logger))

	h := &handlers{svc: svc}
	router.GET("/health", health)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	v1 := router.Group("/api/v1")
	v1.POST("/ingest", h.ingest)
	v1.POST("/collect/:source", h.collect)
	v1.POST("/commands", h.command)
	v1.POST("/search", h.search)
	v1.GET("/scheduler/results", h.results)
	v1.GET("/scheduler/jobs", h.jobs)

	s.router = router
	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return s
}

// Router returns the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "address", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
