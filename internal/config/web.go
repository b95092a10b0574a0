package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// WebConfig contains configuration of the frontend tier: the landing page
// listener and its development reverse proxy to the API host.
type WebConfig struct {
	Host              string                `json:"host" yaml:"host"`
	Port              string                `json:"port" yaml:"port"`
	APITarget         string                `json:"api_target" yaml:"api_target"`
	ProxyTimeout      time.Duration         `json:"proxy_timeout" yaml:"proxy_timeout"`
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable it only behind a proxy that sets them.
	TrustProxyHeaders bool                  `json:"trust_proxy_headers" yaml:"trust_proxy_headers"`
	RateLimit         RateLimitConfig       `json:"rate_limit" yaml:"rate_limit"`
	SecurityHeaders   SecurityHeadersConfig `json:"security_headers" yaml:"security_headers"`
}

// RateLimitConfig contains per-client rate limiting for the web tier
type RateLimitConfig struct {
	Enabled           bool          `json:"enabled" yaml:"enabled"`
	RequestsPerSecond int           `json:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int           `json:"burst_size" yaml:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
	MaxCacheSize      int           `json:"max_cache_size" yaml:"max_cache_size"`
}

// SecurityHeadersConfig contains response hardening headers for the web tier
type SecurityHeadersConfig struct {
	Enabled               bool     `json:"enabled" yaml:"enabled"`
	HSTSMaxAge            int      `json:"hsts_max_age" yaml:"hsts_max_age"`
	ContentSecurityPolicy string   `json:"content_security_policy" yaml:"content_security_policy"`
	AllowedHosts          []string `json:"allowed_hosts" yaml:"allowed_hosts"`
}

// DefaultWebConfig returns default web tier configuration
func DefaultWebConfig() WebConfig {
	return WebConfig{
		Host:            "localhost",
		Port:            "3000",
		APITarget:       "http://localhost:8080",
		ProxyTimeout:    30 * time.Second,
		RateLimit:       DefaultRateLimitConfig(),
		SecurityHeaders: DefaultSecurityHeadersConfig(),
	}
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           false,
		RequestsPerSecond: 60,
		BurstSize:         120,
		CleanupInterval:   5 * time.Minute,
		MaxCacheSize:      10000,
	}
}

// DefaultSecurityHeadersConfig returns default security headers. HSTS is off
// because the development listener is plain HTTP.
func DefaultSecurityHeadersConfig() SecurityHeadersConfig {
	return SecurityHeadersConfig{
		Enabled:               true,
		HSTSMaxAge:            0,
		ContentSecurityPolicy: "default-src 'self'",
		AllowedHosts:          []string{},
	}
}

// Validate validates the web tier configuration
func (w *WebConfig) Validate() error {
	var errs []error

	if w.Host == "" {
		errs = append(errs, errors.New("host cannot be empty"))
	}
	if err := validatePort(w.Port, "port"); err != nil {
		errs = append(errs, err)
	}
	if err := validateTarget(w.APITarget); err != nil {
		errs = append(errs, err)
	}
	if w.ProxyTimeout <= 0 {
		errs = append(errs, errors.New("proxy_timeout must be positive"))
	}
	if err := w.RateLimit.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("rate_limit: %w", err))
	}
	if w.SecurityHeaders.HSTSMaxAge < 0 {
		errs = append(errs, errors.New("security_headers.hsts_max_age must be non-negative"))
	}

	return errors.Join(errs...)
}

// Validate validates the rate limit configuration
func (r *RateLimitConfig) Validate() error {
	if !r.Enabled {
		return nil
	}

	var errs []error
	if r.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("requests_per_second must be positive"))
	}
	if r.BurstSize <= 0 {
		errs = append(errs, errors.New("burst_size must be positive"))
	}
	if r.CleanupInterval < 0 {
		errs = append(errs, errors.New("cleanup_interval must be non-negative"))
	}
	if r.MaxCacheSize < 0 {
		errs = append(errs, errors.New("max_cache_size must be non-negative"))
	}
	return errors.Join(errs...)
}

// Address returns the web tier listen address
func (w WebConfig) Address() string {
	return fmt.Sprintf("%s:%s", w.Host, w.Port)
}

func validateTarget(target string) error {
	if target == "" {
		return errors.New("api_target cannot be empty")
	}
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("api_target is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_target must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("api_target must include a host")
	}
	return nil
}
