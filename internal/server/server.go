// Package server is the API host: one health route behind the CORS policy,
// with metrics on a separate listener.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/leslieo2/go-fullstack-starter/internal/config"
	"github.com/leslieo2/go-fullstack-starter/internal/constants"
	"github.com/leslieo2/go-fullstack-starter/internal/contract"
	"github.com/leslieo2/go-fullstack-starter/internal/observability"
	"github.com/leslieo2/go-fullstack-starter/internal/server/middleware"
	"github.com/leslieo2/go-fullstack-starter/internal/services"
)

// ConfigLoader re-reads configuration for a hot reload.
type ConfigLoader func() (*config.Config, error)

// Option configures a Server.
type Option func(*Server)

// WithConfigLoader enables Reload.
func WithConfigLoader(load ConfigLoader) Option {
	return func(s *Server) { s.loadConfig = load }
}

// WithContract replaces the embedded OpenAPI contract.
func WithContract(c *contract.Contract) Option {
	return func(s *Server) { s.contract = c }
}

type Server struct {
	config   *config.Config
	contract *contract.Contract
	services *services.Container

	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer

	cors       *middleware.CORSMiddleware
	healthBody []byte
	handler    http.Handler
	loadConfig ConfigLoader

	mu            sync.Mutex
	server        *http.Server
	metricsServer *http.Server
}

// New builds the API host. Every route it maps must be declared by the
// OpenAPI contract.
func New(cfg *config.Config, logger *observability.Logger, metrics *observability.Metrics,
	tracer *observability.Tracer, container *services.Container, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if container == nil {
		return nil, errors.New("service container is required")
	}

	s := &Server{
		config:     cfg,
		services:   container,
		logger:     logger,
		metrics:    metrics,
		tracer:     tracer,
		cors:       middleware.NewCORSMiddleware(cfg.CORS),
		healthBody: observability.HealthBody(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.contract == nil {
		c, err := contract.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load API contract: %w", err)
		}
		s.contract = c
	}

	handler, err := s.buildHandler()
	if err != nil {
		return nil, err
	}
	s.handler = handler

	s.metrics.SetRegisteredServices(container.Len())
	s.logger.Info("Service container ready",
		zap.Int("services", container.Len()),
		zap.Strings("names", container.Names()),
	)
	return s, nil
}

// Handler returns the complete API handler with its middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured addresses and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.Address(), err)
	}

	var metricsLn net.Listener
	if s.config.Metrics.Enabled {
		metricsLn, err = net.Listen("tcp", s.config.MetricsAddress())
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("failed to listen on %s: %w", s.config.MetricsAddress(), err)
		}
	}

	return s.Serve(ctx, ln, metricsLn)
}

// Serve serves the API on ln and, when metricsLn is non-nil, the metrics
// endpoint on metricsLn. It returns after a graceful shutdown, which starts
// when ctx is done or either server fails.
func (s *Server) Serve(ctx context.Context, ln, metricsLn net.Listener) error {
	apiServer, err := s.newHTTPServer(s.handler)
	if err != nil {
		_ = ln.Close()
		if metricsLn != nil {
			_ = metricsLn.Close()
		}
		return err
	}

	var metricsServer *http.Server
	if metricsLn != nil {
		mux := http.NewServeMux()
		mux.Handle("GET "+s.config.Metrics.Path, s.metrics.Handler())
		metricsServer = &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	s.mu.Lock()
	s.server = apiServer
	s.metricsServer = metricsServer
	s.mu.Unlock()

	errCh := make(chan error, 2)
	go func() {
		s.logger.Info("Starting API server",
			zap.String("address", ln.Addr().String()),
			zap.Bool("tls", s.config.TLS.Enabled),
			zap.Int("routes", len(s.contract.Routes())),
		)
		if s.config.TLS.Enabled {
			errCh <- apiServer.ServeTLS(ln, s.config.TLS.CertFile, s.config.TLS.KeyFile)
			return
		}
		errCh <- apiServer.Serve(ln)
	}()

	if metricsServer != nil {
		go func() {
			s.logger.Info("Starting metrics server",
				zap.String("address", metricsLn.Addr().String()),
				zap.String("path", s.config.Metrics.Path),
			)
			errCh <- metricsServer.Serve(metricsLn)
		}()
	}

	s.metrics.SetHealthStatus(true)

	var serveErr error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server...")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
			s.logger.Error("Server failed", zap.Error(err))
		}
	}

	s.metrics.SetHealthStatus(false)
	return errors.Join(serveErr, s.shutdown())
}

// shutdown stops both servers in parallel within the shutdown timeout.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	servers := map[string]*http.Server{"main": s.server, "metrics": s.metricsServer}
	s.mu.Unlock()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for name, srv := range servers {
		if srv == nil {
			continue
		}
		wg.Add(1)
		go func(name string, srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(ctx); err != nil {
				s.logger.Error("Failed to shutdown server", zap.String("server", name), zap.Error(err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s server shutdown: %w", name, err))
				mu.Unlock()
			}
		}(name, srv)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (s *Server) newHTTPServer(handler http.Handler) (*http.Server, error) {
	srv := &http.Server{
		Handler:        handler,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: constants.ServerMaxHeaderBytes,
		ErrorLog:       zap.NewStdLog(s.logger.Named("http")),
	}

	if s.config.TLS.Enabled {
		minVersion, err := s.config.TLS.TLSVersion()
		if err != nil {
			return nil, err
		}
		srv.TLSConfig = &tls.Config{MinVersion: minVersion}
	}
	return srv, nil
}
