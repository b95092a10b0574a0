package constants

import "time"

// Environment variable constants
const (
	EnvPrefix = "STARTER_"

	EnvHost            = "STARTER_HOST"
	EnvPort            = "STARTER_PORT"
	EnvReadTimeout     = "STARTER_READ_TIMEOUT"
	EnvWriteTimeout    = "STARTER_WRITE_TIMEOUT"
	EnvIdleTimeout     = "STARTER_IDLE_TIMEOUT"
	EnvMaxRequestSize  = "STARTER_MAX_REQUEST_SIZE"
	EnvShutdownTimeout = "STARTER_SHUTDOWN_TIMEOUT"

	EnvMetricsEnabled = "STARTER_METRICS_ENABLED"
	EnvMetricsPort    = "STARTER_METRICS_PORT"

	EnvCORSEnabled          = "STARTER_CORS_ENABLED"
	EnvCORSAllowedOrigins   = "STARTER_CORS_ALLOWED_ORIGINS"
	EnvCORSAllowCredentials = "STARTER_CORS_ALLOW_CREDENTIALS"

	EnvWebHost         = "STARTER_WEB_HOST"
	EnvWebPort         = "STARTER_WEB_PORT"
	EnvWebAPITarget    = "STARTER_WEB_API_TARGET"
	EnvWebProxyTimeout = "STARTER_WEB_PROXY_TIMEOUT"
	EnvWebTrustProxy   = "STARTER_WEB_TRUST_PROXY_HEADERS"

	EnvLogLevel  = "STARTER_LOG_LEVEL"
	EnvLogFormat = "STARTER_LOG_FORMAT"
	EnvLogOutput = "STARTER_LOG_OUTPUT"

	EnvTracingEnabled = "STARTER_TRACING_ENABLED"

	EnvHotReload         = "STARTER_HOT_RELOAD"
	EnvHotReloadDebounce = "STARTER_HOT_RELOAD_DEBOUNCE"

	EnvTLSEnabled  = "STARTER_TLS_ENABLED"
	EnvTLSCertFile = "STARTER_TLS_CERT_FILE"
	EnvTLSKeyFile  = "STARTER_TLS_KEY_FILE"

	// EnvFile names a single dotenv file to load instead of .env.local/.env
	EnvFile = "ENV_FILE"
)

// HTTP method constants
const (
	MethodGET     = "GET"
	MethodHEAD    = "HEAD"
	MethodPOST    = "POST"
	MethodPUT     = "PUT"
	MethodDELETE  = "DELETE"
	MethodPATCH   = "PATCH"
	MethodOPTIONS = "OPTIONS"
)

// HTTP header constants
const (
	HeaderContentType   = "Content-Type"
	HeaderOrigin        = "Origin"
	HeaderVary          = "Vary"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXRealIP       = "X-Real-IP"
)

// Content type constants
const (
	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// CORS headers
const (
	HeaderAccessControlAllowOrigin      = "Access-Control-Allow-Origin"
	HeaderAccessControlAllowMethods     = "Access-Control-Allow-Methods"
	HeaderAccessControlAllowHeaders     = "Access-Control-Allow-Headers"
	HeaderAccessControlAllowCredentials = "Access-Control-Allow-Credentials"
	HeaderAccessControlMaxAge           = "Access-Control-Max-Age"
	HeaderAccessControlRequestMethod    = "Access-Control-Request-Method"
	HeaderAccessControlRequestHeaders   = "Access-Control-Request-Headers"
)

// CORSWildcard allows any origin, method or header depending on the list it appears in.
const CORSWildcard = "*"

// DevFrontendOrigin is the origin the web tier serves from in development.
const DevFrontendOrigin = "http://localhost:3000"

// Rate limiting headers
const (
	HeaderXRateLimitLimit     = "X-RateLimit-Limit"
	HeaderXRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderXRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter          = "Retry-After"
)

// Rate limiter internal constants
const (
	// RateLimitCleanupInterval is the interval for cleaning up rate limit cache
	RateLimitCleanupInterval = 5 * time.Minute
	// RateLimitMaxCacheSize is the maximum size of the rate limit cache
	RateLimitMaxCacheSize = 10000
)

// Server defaults
const (
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 15 * time.Second
	ServerIdleTimeout     = 60 * time.Second
	ServerMaxRequestSize  = 10 * 1024 * 1024
	ServerShutdownTimeout = 30 * time.Second
	// ServerMaxHeaderBytes caps request header size on every listener
	ServerMaxHeaderBytes = 1 << 20
)

// Error code constants
const (
	ErrorCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrorCodeRequestTooLarge   = "REQUEST_TOO_LARGE"
	ErrorCodeHostNotAllowed    = "HOST_NOT_ALLOWED"
	ErrorCodeBadGateway        = "BAD_GATEWAY"
)

// Path constants
const (
	PathAPIPrefix = "/api/"
	PathHealth    = "/api/health"
	PathMetrics   = "/metrics"
	PathLanding   = "/"
)

// HealthStatusHealthy is the only status the health route reports.
const HealthStatusHealthy = "healthy"
