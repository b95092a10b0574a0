package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leslieo2/go-fullstack-starter/internal/config"
	"github.com/leslieo2/go-fullstack-starter/internal/observability"
	"github.com/leslieo2/go-fullstack-starter/internal/server"
	"github.com/leslieo2/go-fullstack-starter/internal/server/middleware"
	"github.com/leslieo2/go-fullstack-starter/internal/services"
)

func newTestWeb(t *testing.T, cfg config.WebConfig) *Server {
	t.Helper()
	s, err := New(cfg, config.DefaultServerConfig(), observability.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.WebConfig)
	}{
		{"empty target", func(c *config.WebConfig) { c.APITarget = "" }},
		{"relative target", func(c *config.WebConfig) { c.APITarget = "/api" }},
		{"bad port", func(c *config.WebConfig) { c.Port = "http" }},
		{"zero proxy timeout", func(c *config.WebConfig) { c.ProxyTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultWebConfig()
			tt.mutate(&cfg)
			_, err := New(cfg, config.DefaultServerConfig(), observability.NewNopLogger())
			assert.Error(t, err)
		})
	}
}

func TestLandingPage(t *testing.T) {
	s := newTestWeb(t, config.DefaultWebConfig())
	want, err := RenderLandingPage()
	require.NoError(t, err)

	for range 3 {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, want, w.Body.Bytes())
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}
}

func TestLandingPage_Head(t *testing.T) {
	s := newTestWeb(t, config.DefaultWebConfig())

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestRouting(t *testing.T) {
	s := newTestWeb(t, config.DefaultWebConfig())

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"unknown page", http.MethodGet, "/about", http.StatusNotFound},
		{"post landing", http.MethodPost, "/", http.StatusMethodNotAllowed},
		{"api without slash", http.MethodGet, "/api", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestProxy_ForwardsAPIRequests(t *testing.T) {
	var gotMethod, gotPath, gotRequestID string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.RequestURI()
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer backend.Close()

	cfg := config.DefaultWebConfig()
	cfg.APITarget = backend.URL
	s := newTestWeb(t, cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/things?page=2", nil)
	req.Header.Set("X-Request-ID", "web-req-1")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/things?page=2", gotPath)
	assert.Equal(t, "web-req-1", gotRequestID)
}

func TestProxy_APIHostDown(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	target := backend.URL
	backend.Close()

	cfg := config.DefaultWebConfig()
	cfg.APITarget = target
	s := newTestWeb(t, cfg)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var body middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "BAD_GATEWAY", body.Code)
}

func TestProxy_EndToEndHealth(t *testing.T) {
	tracer, err := observability.NewTracer(config.DefaultTracingConfig())
	require.NoError(t, err)
	api, err := server.New(config.DefaultConfig(), observability.NewNopLogger(), observability.NewMetrics(), tracer,
		services.AddSharedServices(services.NewContainer()))
	require.NoError(t, err)

	apiHost := httptest.NewServer(api.Handler())
	defer apiHost.Close()

	cfg := config.DefaultWebConfig()
	cfg.APITarget = apiHost.URL
	s := newTestWeb(t, cfg)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"status":"healthy"}`, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestRateLimit(t *testing.T) {
	cfg := config.DefaultWebConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerSecond = 1
	cfg.RateLimit.BurstSize = 2
	s := newTestWeb(t, cfg)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_ForwardingHeaders(t *testing.T) {
	tests := []struct {
		name        string
		trustProxy  bool
		wantAllowed int
	}{
		{name: "untrusted headers share the peer bucket", trustProxy: false, wantAllowed: 1},
		{name: "trusted headers identify each client", trustProxy: true, wantAllowed: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultWebConfig()
			cfg.TrustProxyHeaders = tt.trustProxy
			cfg.RateLimit.Enabled = true
			cfg.RateLimit.RequestsPerSecond = 1
			cfg.RateLimit.BurstSize = 1
			s := newTestWeb(t, cfg)

			allowed := 0
			for i := range 20 {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				req.RemoteAddr = "203.0.113.8:5000"
				req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
				w := httptest.NewRecorder()
				s.Handler().ServeHTTP(w, req)
				if w.Code == http.StatusOK {
					allowed++
				}
			}
			assert.Equal(t, tt.wantAllowed, allowed)
		})
	}
}

func TestAllowedHosts(t *testing.T) {
	cfg := config.DefaultWebConfig()
	cfg.SecurityHeaders.AllowedHosts = []string{"localhost"}
	s := newTestWeb(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "http://localhost:3000/", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "http://evil.example/", nil)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestServe_GracefulShutdown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping listener test in short mode")
	}

	s := newTestWeb(t, config.DefaultWebConfig())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("web server did not shut down")
	}
}
