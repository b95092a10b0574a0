// Package security holds request throttling for the public-facing web tier.
package security

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/leslieo2/go-fullstack-starter/internal/config"
	"github.com/leslieo2/go-fullstack-starter/internal/constants"
	"github.com/leslieo2/go-fullstack-starter/internal/server/middleware"
)

// Clock abstracts time so token refills can be tested without sleeping.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than the cleanup interval are evicted.
type RateLimiter struct {
	limiters *cache.Cache
	config   config.RateLimitConfig
	clock    Clock

	stop      chan struct{}
	closeOnce sync.Once
}

// RateLimitStatus describes a client's bucket after a request.
type RateLimitStatus struct {
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	Reset      time.Time     `json:"reset"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// NewRateLimiter creates a rate limiter. When cfg is enabled a background
// goroutine caps the number of tracked clients until Close is called.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	rl := newRateLimiter(cfg, RealClock{})
	if cfg.Enabled {
		go rl.enforceMaxSize()
	}
	return rl
}

func newRateLimiter(cfg config.RateLimitConfig, clock Clock) *RateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = constants.RateLimitCleanupInterval
	}
	if cfg.MaxCacheSize <= 0 {
		cfg.MaxCacheSize = constants.RateLimitMaxCacheSize
	}

	return &RateLimiter{
		limiters: cache.New(cfg.CleanupInterval, cfg.CleanupInterval*2),
		config:   cfg,
		clock:    clock,
		stop:     make(chan struct{}),
	}
}

// Close stops the background eviction goroutine.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) enforceMaxSize() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictOverflow()
		}
	}
}

// evictOverflow drops clients once the cache grows past MaxCacheSize, plus
// a tenth of the limit so eviction does not run on every tick.
func (rl *RateLimiter) evictOverflow() {
	size := rl.limiters.ItemCount()
	if size <= rl.config.MaxCacheSize {
		return
	}

	toRemove := size - rl.config.MaxCacheSize + rl.config.MaxCacheSize/10
	for key := range rl.limiters.Items() {
		if toRemove == 0 {
			return
		}
		rl.limiters.Delete(key)
		toRemove--
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if item, found := rl.limiters.Get(key); found {
		return item.(*rate.Limiter)
	}

	l := rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize)
	if err := rl.limiters.Add(key, l, cache.DefaultExpiration); err != nil {
		// lost the race to another request from the same client
		if item, found := rl.limiters.Get(key); found {
			return item.(*rate.Limiter)
		}
	}
	return l
}

// Allow takes one token from the identifier's bucket.
func (rl *RateLimiter) Allow(identifier string) (RateLimitStatus, bool) {
	now := rl.clock.Now()
	if !rl.config.Enabled {
		return RateLimitStatus{Limit: rl.config.BurstSize, Remaining: rl.config.BurstSize, Reset: now}, true
	}

	l := rl.limiter(identifier)
	allowed := l.AllowN(now, 1)
	// touch the entry so active clients are not evicted
	rl.limiters.Set(identifier, l, cache.DefaultExpiration)

	tokens := l.TokensAt(now)
	rps := float64(rl.config.RequestsPerSecond)

	status := RateLimitStatus{
		Limit:     rl.config.BurstSize,
		Remaining: int(math.Max(0, math.Floor(tokens))),
		Reset:     now.Add(secondsToDuration((float64(rl.config.BurstSize) - tokens) / rps)),
	}
	if !allowed {
		retry := secondsToDuration((1 - tokens) / rps)
		if retry < time.Second {
			retry = time.Second
		}
		status.RetryAfter = retry
	}
	return status, allowed
}

func secondsToDuration(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

// Middleware rejects requests over the client's limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if !rl.config.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, allowed := rl.Allow("ip:" + ClientIP(r))

		h := w.Header()
		h.Set(constants.HeaderXRateLimitLimit, strconv.Itoa(status.Limit))
		h.Set(constants.HeaderXRateLimitRemaining, strconv.Itoa(status.Remaining))
		h.Set(constants.HeaderXRateLimitReset, strconv.FormatInt(status.Reset.Unix(), 10))

		if !allowed {
			seconds := int(math.Ceil(status.RetryAfter.Seconds()))
			h.Set(constants.HeaderRetryAfter, strconv.Itoa(seconds))
			middleware.WriteError(w, http.StatusTooManyRequests, constants.ErrorCodeRateLimitExceeded,
				fmt.Sprintf("Rate limit exceeded. Try again in %ds", seconds))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the host part of the peer address. Forwarding headers are
// ignored here; a router that trusts its proxy rewrites RemoteAddr first.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
