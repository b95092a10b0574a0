package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leslieo2/go-fullstack-starter/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name            string
		config          config.CORSConfig
		method          string
		headers         map[string]string
		wantStatus      int
		wantBody        string
		wantHeaders     map[string]string
		wantAbsent      []string
		wantVaryContent []string
	}{
		{
			name:   "allowed origin",
			config: config.DefaultCORSConfig(),
			method: http.MethodGet,
			headers: map[string]string{
				"Origin": "http://localhost:3000",
			},
			wantStatus:      http.StatusOK,
			wantBody:        `{"status":"healthy"}`,
			wantHeaders:     map[string]string{"Access-Control-Allow-Origin": "http://localhost:3000"},
			wantAbsent:      []string{"Access-Control-Allow-Credentials"},
			wantVaryContent: []string{"Origin"},
		},
		{
			name:   "disallowed origin still served",
			config: config.DefaultCORSConfig(),
			method: http.MethodGet,
			headers: map[string]string{
				"Origin": "http://evil.example",
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"healthy"}`,
			wantAbsent: []string{"Access-Control-Allow-Origin", "Access-Control-Allow-Credentials"},
		},
		{
			name:       "no origin",
			config:     config.DefaultCORSConfig(),
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"healthy"}`,
			wantAbsent: []string{"Access-Control-Allow-Origin"},
		},
		{
			name:   "preflight reflects wildcard method and headers",
			config: config.DefaultCORSConfig(),
			method: http.MethodOptions,
			headers: map[string]string{
				"Origin":                         "http://localhost:3000",
				"Access-Control-Request-Method":  "PUT",
				"Access-Control-Request-Headers": "X-Custom-Header, Content-Type",
			},
			wantStatus: http.StatusNoContent,
			wantHeaders: map[string]string{
				"Access-Control-Allow-Origin":  "http://localhost:3000",
				"Access-Control-Allow-Methods": "PUT",
				"Access-Control-Allow-Headers": "X-Custom-Header, Content-Type",
			},
			wantAbsent:      []string{"Access-Control-Allow-Credentials", "Access-Control-Max-Age"},
			wantVaryContent: []string{"Origin", "Access-Control-Request-Method", "Access-Control-Request-Headers"},
		},
		{
			name:   "preflight from disallowed origin",
			config: config.DefaultCORSConfig(),
			method: http.MethodOptions,
			headers: map[string]string{
				"Origin":                        "http://evil.example",
				"Access-Control-Request-Method": "GET",
			},
			wantStatus: http.StatusNoContent,
			wantAbsent: []string{"Access-Control-Allow-Origin", "Access-Control-Allow-Methods"},
		},
		{
			name: "explicit lists and credentials",
			config: config.CORSConfig{
				Enabled:          true,
				AllowedOrigins:   []string{"https://app.example.com"},
				AllowedMethods:   []string{"GET", "POST"},
				AllowedHeaders:   []string{"Content-Type"},
				AllowCredentials: true,
				MaxAge:           600,
			},
			method: http.MethodOptions,
			headers: map[string]string{
				"Origin":                        "https://app.example.com",
				"Access-Control-Request-Method": "DELETE",
			},
			wantStatus: http.StatusNoContent,
			wantHeaders: map[string]string{
				"Access-Control-Allow-Origin":      "https://app.example.com",
				"Access-Control-Allow-Methods":     "GET, POST",
				"Access-Control-Allow-Headers":     "Content-Type",
				"Access-Control-Allow-Credentials": "true",
				"Access-Control-Max-Age":           "600",
			},
		},
		{
			name: "wildcard origin",
			config: config.CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET"},
			},
			method:      http.MethodGet,
			headers:     map[string]string{"Origin": "https://anywhere.example"},
			wantStatus:  http.StatusOK,
			wantBody:    `{"status":"healthy"}`,
			wantHeaders: map[string]string{"Access-Control-Allow-Origin": "https://anywhere.example"},
		},
		{
			name: "disabled",
			config: config.CORSConfig{
				Enabled:        false,
				AllowedOrigins: []string{"http://localhost:3000"},
			},
			method:     http.MethodGet,
			headers:    map[string]string{"Origin": "http://localhost:3000"},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"healthy"}`,
			wantAbsent: []string{"Access-Control-Allow-Origin", "Vary"},
		},
		{
			name:       "plain options is not a preflight",
			config:     config.DefaultCORSConfig(),
			method:     http.MethodOptions,
			headers:    map[string]string{"Origin": "http://localhost:3000"},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"healthy"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewCORSMiddleware(tt.config).Handler(okHandler())

			req := httptest.NewRequest(tt.method, "/api/health", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
			for k, v := range tt.wantHeaders {
				assert.Equal(t, v, w.Header().Get(k), "header %s", k)
			}
			for _, k := range tt.wantAbsent {
				assert.Empty(t, w.Header().Values(k), "header %s should be absent", k)
			}
			for _, v := range tt.wantVaryContent {
				assert.Contains(t, w.Header().Values("Vary"), v)
			}
		})
	}
}

func TestCORSMiddleware_Update(t *testing.T) {
	cors := NewCORSMiddleware(config.DefaultCORSConfig())
	handler := cors.Handler(okHandler())

	request := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Empty(t, request("https://app.example.com").Header().Get("Access-Control-Allow-Origin"))

	updated := config.DefaultCORSConfig()
	updated.AllowedOrigins = []string{"https://app.example.com"}
	cors.Update(updated)

	assert.Equal(t, "https://app.example.com", request("https://app.example.com").Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, request("http://localhost:3000").Header().Get("Access-Control-Allow-Origin"))
}
