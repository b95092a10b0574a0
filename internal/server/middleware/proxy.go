package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/leslieo2/go-fullstack-starter/internal/constants"
)

// Proxy forwards requests to the API host.
type Proxy struct {
	target  *url.URL
	timeout time.Duration
	proxy   *httputil.ReverseProxy
}

// NewProxy creates a reverse proxy to target. A zero timeout leaves requests
// bound only by the client.
func NewProxy(target string, timeout time.Duration, logger *zap.Logger) (*Proxy, error) {
	targetURL, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proxy target URL: %w", err)
	}
	if targetURL.Scheme == "" || targetURL.Host == "" {
		return nil, fmt.Errorf("proxy target %q must be an absolute URL", target)
	}

	reverseProxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(targetURL)
			pr.SetXForwarded()
		},
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("Proxy request failed",
				zap.String("request_id", RequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("target", targetURL.String()),
				zap.Error(err),
			)
			WriteError(w, http.StatusBadGateway, constants.ErrorCodeBadGateway, "API host unavailable")
		},
	}

	return &Proxy{
		target:  targetURL,
		timeout: timeout,
		proxy:   reverseProxy,
	}, nil
}

// Target returns the upstream URL.
func (p *Proxy) Target() *url.URL {
	return p.target
}

// ServeHTTP handles the HTTP request by forwarding it to the target server
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if p.timeout > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
		defer cancel()
		r = r.WithContext(ctx)
	}
	p.proxy.ServeHTTP(w, r)
}
