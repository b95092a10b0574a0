package security

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/leslieo2/go-fullstack-starter/internal/config"
)

// MockClock allows controlling time in tests
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

func (mc *MockClock) Now() time.Time {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.now
}

func (mc *MockClock) Advance(d time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.now = mc.now.Add(d)
}

func newTestRateLimiter(rps, burst int) (*RateLimiter, *MockClock) {
	clock := &MockClock{now: time.Unix(1_700_000_000, 0)}
	cfg := config.DefaultRateLimitConfig()
	cfg.Enabled = true
	cfg.RequestsPerSecond = rps
	cfg.BurstSize = burst
	// no eviction goroutine in tests
	return newRateLimiter(cfg, clock), clock
}

func serve(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiter_Success(t *testing.T) {
	rl, _ := newTestRateLimiter(5, 10)

	rr := serve(rl.Middleware(okHandler), "192.0.2.1:12345")

	assert.Equal(t, http.StatusOK, rr.Code, "Request within limit should succeed")
	assert.Equal(t, "10", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", rr.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiter_Exceeded(t *testing.T) {
	rl, _ := newTestRateLimiter(2, 1)
	handler := rl.Middleware(okHandler)

	assert.Equal(t, http.StatusOK, serve(handler, "192.0.2.2:12345").Code)

	rr := serve(handler, "192.0.2.2:12345")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code, "Request exceeding limit should fail")
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl, _ := newTestRateLimiter(1, 1)
	handler := rl.Middleware(okHandler)

	assert.Equal(t, http.StatusOK, serve(handler, "192.0.2.3:12345").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(handler, "192.0.2.3:12345").Code)
	assert.Equal(t, http.StatusOK, serve(handler, "192.0.2.4:12345").Code)
}

func TestRateLimiter_IgnoresForwardedHeaders(t *testing.T) {
	rl, _ := newTestRateLimiter(1, 1)
	handler := rl.Middleware(okHandler)

	allowed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.9:12345"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("203.0.113.%d", i))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code == http.StatusOK {
			allowed++
		}
	}

	assert.Equal(t, 1, allowed, "rotating forwarding headers must not yield new buckets")
	assert.Equal(t, 1, rl.limiters.ItemCount())
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(config.DefaultRateLimitConfig())
	defer rl.Close()
	handler := rl.Middleware(okHandler)

	for i := 0; i < 5; i++ {
		rr := serve(handler, "192.0.2.5:12345")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("X-RateLimit-Limit"), "Should not have rate limit headers when disabled")
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	rl, clock := newTestRateLimiter(1, 1)
	handler := rl.Middleware(okHandler)

	assert.Equal(t, http.StatusOK, serve(handler, "192.0.2.6:12345").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(handler, "192.0.2.6:12345").Code)

	clock.Advance(time.Second)

	rr := serve(handler, "192.0.2.6:12345")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiter_ResetHeader(t *testing.T) {
	rl, clock := newTestRateLimiter(10, 10)

	rr := serve(rl.Middleware(okHandler), "192.0.2.7:12345")
	assert.Equal(t, http.StatusOK, rr.Code)

	reset, err := strconv.ParseInt(rr.Header().Get("X-RateLimit-Reset"), 10, 64)
	assert.NoError(t, err)
	assert.False(t, time.Unix(reset, 0).Before(clock.Now()))
}

func TestRateLimiter_EvictOverflow(t *testing.T) {
	rl, _ := newTestRateLimiter(1, 1)
	rl.config.MaxCacheSize = 10

	for i := 0; i < 20; i++ {
		rl.Allow(fmt.Sprintf("ip:192.0.2.%d", i))
	}
	rl.evictOverflow()

	assert.Equal(t, 9, rl.limiters.ItemCount())
}

func TestRateLimiter_CloseIsIdempotent(t *testing.T) {
	cfg := config.DefaultRateLimitConfig()
	cfg.Enabled = true
	rl := NewRateLimiter(cfg)
	rl.Close()
	rl.Close()
}

func TestClientIP(t *testing.T) {
	testCases := []struct {
		name    string
		headers map[string]string
		remote  string
		wantIP  string
	}{
		{
			name:    "Ignores X-Forwarded-For",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.1, 198.51.100.2"},
			remote:  "192.0.2.1:12345",
			wantIP:  "192.0.2.1",
		},
		{
			name:    "Ignores X-Real-IP",
			headers: map[string]string{"X-Real-IP": "203.0.113.2"},
			remote:  "192.0.2.1:12345",
			wantIP:  "192.0.2.1",
		},
		{
			name:   "From RemoteAddr",
			remote: "203.0.113.3:12345",
			wantIP: "203.0.113.3",
		},
		{
			name:   "RemoteAddr without port",
			remote: "203.0.113.4",
			wantIP: "203.0.113.4",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			req.RemoteAddr = tc.remote

			assert.Equal(t, tc.wantIP, ClientIP(req))
		})
	}
}
