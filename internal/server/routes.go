package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/leslieo2/go-fullstack-starter/internal/constants"
	"github.com/leslieo2/go-fullstack-starter/internal/server/middleware"
)

// route is one operation mapped on the API mux.
type route struct {
	method  string
	path    string
	handler http.HandlerFunc
}

func (s *Server) routes() []route {
	return []route{
		{method: http.MethodGet, path: constants.PathHealth, handler: s.healthHandler},
	}
}

// buildHandler maps the routes and wraps them in the middleware chain,
// outermost first: request ID, logging, metrics, CORS, body limit, tracing.
func (s *Server) buildHandler() (http.Handler, error) {
	mux := http.NewServeMux()
	for _, rt := range s.routes() {
		if err := s.contract.RequireOperation(rt.method, rt.path); err != nil {
			return nil, fmt.Errorf("route missing from API contract: %w", err)
		}
		mux.HandleFunc(rt.method+" "+rt.path, rt.handler)
	}
	if err := s.checkHealthExample(); err != nil {
		return nil, err
	}

	var handler http.Handler = otelhttp.NewHandler(mux, "api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	handler = middleware.RequestSizeLimitMiddleware(s.config.Server.MaxRequestSize)(handler)
	handler = s.cors.Handler(handler)
	handler = middleware.MetricsMiddleware(s.metrics, endpointLabel)(handler)
	handler = middleware.LoggingMiddleware(s.logger.Logger)(handler)
	handler = middleware.RequestIDMiddleware(handler)
	return handler, nil
}

// checkHealthExample compares the precomputed health body with the 200
// response the contract documents.
func (s *Server) checkHealthExample() error {
	example, err := s.contract.Example(http.MethodGet, constants.PathHealth, http.StatusOK)
	if err != nil {
		return fmt.Errorf("health response missing from API contract: %w", err)
	}

	var body any
	if err := json.Unmarshal(s.healthBody, &body); err != nil {
		return fmt.Errorf("failed to decode health body: %w", err)
	}
	if !reflect.DeepEqual(example, body) {
		return fmt.Errorf("health body %s does not match API contract example %v", s.healthBody, example)
	}
	return nil
}

// endpointLabel keeps the metrics label set bounded to mapped routes.
func endpointLabel(r *http.Request) string {
	if r.URL.Path == constants.PathHealth {
		return constants.PathHealth
	}
	return "unmatched"
}

// healthHandler writes the precomputed health body. It reads no shared
// mutable state.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.StartSpan(r.Context(), "health_check",
		attribute.String("http.route", constants.PathHealth),
	)
	defer span.End()

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.healthBody)
}
