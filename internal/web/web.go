// Package web is the frontend tier: it serves the landing page and, in
// development, forwards /api/ requests to the API host.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/leslieo2/go-fullstack-starter/internal/config"
	"github.com/leslieo2/go-fullstack-starter/internal/constants"
	"github.com/leslieo2/go-fullstack-starter/internal/observability"
	"github.com/leslieo2/go-fullstack-starter/internal/security"
	"github.com/leslieo2/go-fullstack-starter/internal/server/middleware"
)

type Server struct {
	config    config.WebConfig
	serverCfg config.ServerConfig
	logger    *observability.Logger
	proxy     *middleware.Proxy
	limiter   *security.RateLimiter
	page      []byte
	handler   http.Handler
}

// New builds the web tier from cfg. The server section supplies listener
// timeouts shared with the API host.
func New(cfg config.WebConfig, serverCfg config.ServerConfig, logger *observability.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid web configuration: %w", err)
	}

	page, err := RenderLandingPage()
	if err != nil {
		return nil, err
	}

	proxy, err := middleware.NewProxy(cfg.APITarget, cfg.ProxyTimeout, logger.Named("proxy"))
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		serverCfg: serverCfg,
		logger:    logger,
		proxy:     proxy,
		limiter:   security.NewRateLimiter(cfg.RateLimit),
		page:      page,
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	if s.config.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware(s.logger.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeadersMiddleware(s.config.SecurityHeaders))
	r.Use(s.limiter.Middleware)
	r.Use(chimw.GetHead)

	r.Get(constants.PathLanding, s.landingHandler)
	r.Handle(constants.PathAPIPrefix+"*", s.proxy)

	return otelhttp.NewHandler(r, "web",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func (s *Server) landingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeHTML)
	w.Header().Set("Content-Length", strconv.Itoa(len(s.page)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.page)
}

// Handler returns the web tier handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close releases the rate limiter.
func (s *Server) Close() {
	s.limiter.Close()
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.Close()

	srv := &http.Server{
		Handler:        s.handler,
		ReadTimeout:    s.serverCfg.ReadTimeout,
		WriteTimeout:   s.config.ProxyTimeout + s.serverCfg.WriteTimeout,
		IdleTimeout:    s.serverCfg.IdleTimeout,
		MaxHeaderBytes: constants.ServerMaxHeaderBytes,
		ErrorLog:       zap.NewStdLog(s.logger.Named("http")),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting web server",
			zap.String("address", ln.Addr().String()),
			zap.String("api_target", s.proxy.Target().String()),
		)
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down web server...")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server failed: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.serverCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown: %w", err)
	}
	return nil
}
