package middleware

import (
	"net"
	"net/http"
	"slices"
	"strconv"

	"github.com/leslieo2/go-fullstack-starter/internal/config"
	"github.com/leslieo2/go-fullstack-starter/internal/constants"
)

// SecurityHeadersMiddleware sets response hardening headers and, when
// AllowedHosts is non-empty, rejects requests for other hosts.
func SecurityHeadersMiddleware(cfg config.SecurityHeadersConfig) func(http.Handler) http.Handler {
	hsts := ""
	if cfg.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(cfg.HSTSMaxAge) + "; includeSubDomains"
	}

	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(cfg.AllowedHosts) > 0 && !hostAllowed(r.Host, cfg.AllowedHosts) {
				WriteError(w, http.StatusForbidden, constants.ErrorCodeHostNotAllowed, "Host not allowed")
				return
			}

			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}
			if cfg.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", cfg.ContentSecurityPolicy)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// hostAllowed matches the request host with or without its port.
func hostAllowed(host string, allowed []string) bool {
	if slices.Contains(allowed, host) {
		return true
	}
	if name, _, err := net.SplitHostPort(host); err == nil {
		return slices.Contains(allowed, name)
	}
	return false
}
