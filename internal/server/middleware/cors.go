package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/leslieo2/go-fullstack-starter/internal/config"
	"github.com/leslieo2/go-fullstack-starter/internal/constants"
)

// corsPolicy is an immutable snapshot of a CORSConfig.
type corsPolicy struct {
	enabled          bool
	anyOrigin        bool
	origins          map[string]struct{}
	anyMethod        bool
	methods          string
	anyHeader        bool
	headers          string
	allowCredentials bool
	maxAge           string
}

func newCORSPolicy(cfg config.CORSConfig) *corsPolicy {
	p := &corsPolicy{
		enabled:          cfg.Enabled,
		origins:          make(map[string]struct{}, len(cfg.AllowedOrigins)),
		anyMethod:        slices.Contains(cfg.AllowedMethods, constants.CORSWildcard),
		anyHeader:        slices.Contains(cfg.AllowedHeaders, constants.CORSWildcard),
		methods:          strings.Join(cfg.AllowedMethods, ", "),
		headers:          strings.Join(cfg.AllowedHeaders, ", "),
		allowCredentials: cfg.AllowCredentials,
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin == constants.CORSWildcard {
			p.anyOrigin = true
			continue
		}
		p.origins[origin] = struct{}{}
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return p
}

func (p *corsPolicy) allows(origin string) bool {
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// CORSMiddleware applies a cross-origin policy that can be replaced while
// requests are in flight.
type CORSMiddleware struct {
	policy atomic.Pointer[corsPolicy]
}

// NewCORSMiddleware creates a new CORS middleware
func NewCORSMiddleware(cfg config.CORSConfig) *CORSMiddleware {
	c := &CORSMiddleware{}
	c.Update(cfg)
	return c
}

// Update swaps the policy. Requests already past the policy check keep the
// previous one.
func (c *CORSMiddleware) Update(cfg config.CORSConfig) {
	c.policy.Store(newCORSPolicy(cfg))
}

// Handler returns the CORS middleware handler. Preflight requests are
// answered with 204 and never reach next. Requests from origins outside the
// policy are served without CORS headers so the browser withholds the body.
func (c *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := c.policy.Load()
		if !p.enabled {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Add(constants.HeaderVary, constants.HeaderOrigin)

		origin := r.Header.Get(constants.HeaderOrigin)
		preflight := r.Method == http.MethodOptions && r.Header.Get(constants.HeaderAccessControlRequestMethod) != ""

		if preflight {
			h.Add(constants.HeaderVary, constants.HeaderAccessControlRequestMethod)
			h.Add(constants.HeaderVary, constants.HeaderAccessControlRequestHeaders)
		}

		if origin == "" || !p.allows(origin) {
			if preflight {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		h.Set(constants.HeaderAccessControlAllowOrigin, origin)
		if p.allowCredentials {
			h.Set(constants.HeaderAccessControlAllowCredentials, "true")
		}

		if !preflight {
			next.ServeHTTP(w, r)
			return
		}

		if p.anyMethod {
			h.Set(constants.HeaderAccessControlAllowMethods, r.Header.Get(constants.HeaderAccessControlRequestMethod))
		} else if p.methods != "" {
			h.Set(constants.HeaderAccessControlAllowMethods, p.methods)
		}

		requested := r.Header.Get(constants.HeaderAccessControlRequestHeaders)
		if p.anyHeader {
			if requested != "" {
				h.Set(constants.HeaderAccessControlAllowHeaders, requested)
			}
		} else if p.headers != "" {
			h.Set(constants.HeaderAccessControlAllowHeaders, p.headers)
		}

		if p.maxAge != "" {
			h.Set(constants.HeaderAccessControlMaxAge, p.maxAge)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
