// Package server exposes the service over HTTP with gin.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"NavSentinel/internal/service"
)

// Server is the HTTP front of the service.
type Server struct {
	svc      *service.Service
	log      zerolog.Logger
	registry *prometheus.Registry
	health   map[string]func() string
	router   *gin.Engine
	http     *http.Server
}

// Options configures a Server.
type Options struct {
	Addr     string
	Mode     string
	Registry *prometheus.Registry
	// Health reports named component states (e.g. circuit breakers) on /health.
	Health map[string]func() string
}

// New builds the router and registers all routes.
func New(svc *service.Service, opts Options, log zerolog.Logger) *Server {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	s := &Server{
		svc:      svc,
		log:      log,
		registry: opts.Registry,
		health:   opts.Health,
		router:   gin.New(),
	}
	s.router.Use(gin.Recovery(), requestID(), accessLog(log))
	s.routes()
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	api := s.router.Group("/api")
	api.GET("/list_mfs", s.handleListFunds)
	api.POST("/get_nav", s.handleGetNav)
	api.POST("/get_nifty", s.handleGetIndex)
	api.POST("/compare_mf_nifty", s.handleCompare)
	api.POST("/nav_pred", s.handlePredict)
	api.POST("/get_aum", s.handleGetAum)

	s.router.GET("/health", s.handleHealth)
	if s.registry != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.http.Addr).Msg("http server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(shutdownCtx)
}
