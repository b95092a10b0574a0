package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/leslieo2/go-fullstack-starter/internal/constants"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration with precedence:
// 1. Explicitly changed CLI flags (highest priority)
// 2. Environment variables
// 3. .env.local / .env files (never override variables already set)
// 4. Configuration file values
// 5. Default configuration values (lowest priority)
func LoadConfig(configFile string, cliFlags *CLIFlags) (*Config, error) {
	config := DefaultConfig()

	if configFile != "" {
		if err := loadFromFile(configFile, config); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := loadEnvFiles(); err != nil {
		return nil, err
	}
	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if cliFlags != nil {
		cliFlags.apply(config)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// CLIFlags carries CLI flag values that can override configuration.
// When FlagSet is set only flags it reports as changed are applied;
// otherwise every non-nil field is applied.
type CLIFlags struct {
	FlagSet *pflag.FlagSet

	Host            *string
	Port            *string
	MetricsPort     *string
	ReadTimeout     *time.Duration
	WriteTimeout    *time.Duration
	IdleTimeout     *time.Duration
	MaxRequestSize  *int64
	ShutdownTimeout *time.Duration

	CORSOrigins *[]string

	WebHost      *string
	WebPort      *string
	APITarget    *string
	ProxyTimeout *time.Duration
	RateLimit    *bool

	LogLevel  *string
	LogFormat *string

	HotReload   *bool
	TLSEnabled  *bool
	TLSCertFile *string
	TLSKeyFile  *string
}

// BindCLIFlags registers the shared configuration flags on fs and returns
// the CLIFlags bound to them.
func BindCLIFlags(fs *pflag.FlagSet) *CLIFlags {
	d := DefaultConfig()

	return &CLIFlags{
		FlagSet: fs,

		Host:            fs.String("host", d.Server.Host, "API host listen address"),
		Port:            fs.String("port", d.Server.Port, "API host listen port"),
		MetricsPort:     fs.String("metrics-port", d.Metrics.Port, "Prometheus metrics listen port"),
		ReadTimeout:     fs.Duration("read-timeout", d.Server.ReadTimeout, "HTTP server read timeout"),
		WriteTimeout:    fs.Duration("write-timeout", d.Server.WriteTimeout, "HTTP server write timeout"),
		IdleTimeout:     fs.Duration("idle-timeout", d.Server.IdleTimeout, "HTTP server idle timeout"),
		MaxRequestSize:  fs.Int64("max-request-size", d.Server.MaxRequestSize, "Maximum request size in bytes"),
		ShutdownTimeout: fs.Duration("shutdown-timeout", d.Server.ShutdownTimeout, "Graceful shutdown timeout"),

		CORSOrigins: fs.StringSlice("cors-origins", d.CORS.AllowedOrigins, "Origins allowed to read API responses"),

		WebHost:      fs.String("web-host", d.Web.Host, "Web tier listen address"),
		WebPort:      fs.String("web-port", d.Web.Port, "Web tier listen port"),
		APITarget:    fs.String("api-target", d.Web.APITarget, "API origin the web tier forwards /api/ to"),
		ProxyTimeout: fs.Duration("proxy-timeout", d.Web.ProxyTimeout, "Timeout for proxied API requests"),
		RateLimit:    fs.Bool("rate-limit-enabled", d.Web.RateLimit.Enabled, "Enable per-client rate limiting on the web tier"),

		LogLevel:  fs.String("log-level", d.Observability.Logging.Level, "Log level: debug, info, warn, error"),
		LogFormat: fs.String("log-format", d.Observability.Logging.Format, "Log format: json, console"),

		HotReload:   fs.Bool("hot-reload", d.HotReload.Enabled, "Reload CORS policy and log level when the config file changes"),
		TLSEnabled:  fs.Bool("tls-enabled", d.TLS.Enabled, "Serve the API host over TLS"),
		TLSCertFile: fs.String("tls-cert-file", d.TLS.CertFile, "TLS certificate file"),
		TLSKeyFile:  fs.String("tls-key-file", d.TLS.KeyFile, "TLS private key file"),
	}
}

func (f *CLIFlags) changed(name string) bool {
	if f.FlagSet == nil {
		return true
	}
	return f.FlagSet.Changed(name)
}

// apply overrides configuration with CLI flag values
func (f *CLIFlags) apply(config *Config) {
	setString(&config.Server.Host, f.Host, f.changed("host"))
	setString(&config.Server.Port, f.Port, f.changed("port"))
	setString(&config.Metrics.Port, f.MetricsPort, f.changed("metrics-port"))
	setValue(&config.Server.ReadTimeout, f.ReadTimeout, f.changed("read-timeout"))
	setValue(&config.Server.WriteTimeout, f.WriteTimeout, f.changed("write-timeout"))
	setValue(&config.Server.IdleTimeout, f.IdleTimeout, f.changed("idle-timeout"))
	setValue(&config.Server.MaxRequestSize, f.MaxRequestSize, f.changed("max-request-size"))
	setValue(&config.Server.ShutdownTimeout, f.ShutdownTimeout, f.changed("shutdown-timeout"))

	if f.CORSOrigins != nil && f.changed("cors-origins") {
		config.CORS.AllowedOrigins = append([]string(nil), (*f.CORSOrigins)...)
	}

	setString(&config.Web.Host, f.WebHost, f.changed("web-host"))
	setString(&config.Web.Port, f.WebPort, f.changed("web-port"))
	setString(&config.Web.APITarget, f.APITarget, f.changed("api-target"))
	setValue(&config.Web.ProxyTimeout, f.ProxyTimeout, f.changed("proxy-timeout"))
	setValue(&config.Web.RateLimit.Enabled, f.RateLimit, f.changed("rate-limit-enabled"))

	setString(&config.Observability.Logging.Level, f.LogLevel, f.changed("log-level"))
	setString(&config.Observability.Logging.Format, f.LogFormat, f.changed("log-format"))

	setValue(&config.HotReload.Enabled, f.HotReload, f.changed("hot-reload"))
	setValue(&config.TLS.Enabled, f.TLSEnabled, f.changed("tls-enabled"))
	setString(&config.TLS.CertFile, f.TLSCertFile, f.changed("tls-cert-file"))
	setString(&config.TLS.KeyFile, f.TLSKeyFile, f.changed("tls-key-file"))
}

func setString(dst *string, src *string, changed bool) {
	if src != nil && changed && *src != "" {
		*dst = *src
	}
}

func setValue[T any](dst *T, src *T, changed bool) {
	if src != nil && changed {
		*dst = *src
	}
}

// loadFromFile decodes a YAML or JSON file on top of config; fields absent
// from the file keep their current values.
func loadFromFile(filePath string, config *Config) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for %s: %w", filePath, err)
	}
	absPath = filepath.Clean(absPath)

	data, err := os.ReadFile(absPath) // #nosec G304 - operator supplied path
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", absPath, err)
	}

	ext := strings.ToLower(filepath.Ext(absPath))
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	case ".json":
		err = json.Unmarshal(data, config)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", absPath, err)
	}

	return nil
}

// loadEnvFiles loads dotenv files into the process environment:
// ENV_FILE alone when set, otherwise .env.local then .env.
// Missing files are ignored.
func loadEnvFiles() error {
	if envFile := os.Getenv(constants.EnvFile); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// loadFromEnv loads configuration from STARTER_* environment variables
func loadFromEnv(config *Config) error {
	e := &envReader{}

	e.str(constants.EnvHost, &config.Server.Host)
	e.str(constants.EnvPort, &config.Server.Port)
	e.duration(constants.EnvReadTimeout, &config.Server.ReadTimeout)
	e.duration(constants.EnvWriteTimeout, &config.Server.WriteTimeout)
	e.duration(constants.EnvIdleTimeout, &config.Server.IdleTimeout)
	e.int64(constants.EnvMaxRequestSize, &config.Server.MaxRequestSize)
	e.duration(constants.EnvShutdownTimeout, &config.Server.ShutdownTimeout)

	e.boolean(constants.EnvMetricsEnabled, &config.Metrics.Enabled)
	e.str(constants.EnvMetricsPort, &config.Metrics.Port)

	e.boolean(constants.EnvCORSEnabled, &config.CORS.Enabled)
	e.list(constants.EnvCORSAllowedOrigins, &config.CORS.AllowedOrigins)
	e.boolean(constants.EnvCORSAllowCredentials, &config.CORS.AllowCredentials)

	e.str(constants.EnvWebHost, &config.Web.Host)
	e.str(constants.EnvWebPort, &config.Web.Port)
	e.str(constants.EnvWebAPITarget, &config.Web.APITarget)
	e.duration(constants.EnvWebProxyTimeout, &config.Web.ProxyTimeout)
	e.boolean(constants.EnvWebTrustProxy, &config.Web.TrustProxyHeaders)

	e.str(constants.EnvLogLevel, &config.Observability.Logging.Level)
	e.str(constants.EnvLogFormat, &config.Observability.Logging.Format)
	e.str(constants.EnvLogOutput, &config.Observability.Logging.Output)
	e.boolean(constants.EnvTracingEnabled, &config.Observability.Tracing.Enabled)

	e.boolean(constants.EnvHotReload, &config.HotReload.Enabled)
	e.duration(constants.EnvHotReloadDebounce, &config.HotReload.Debounce)

	e.boolean(constants.EnvTLSEnabled, &config.TLS.Enabled)
	e.str(constants.EnvTLSCertFile, &config.TLS.CertFile)
	e.str(constants.EnvTLSKeyFile, &config.TLS.KeyFile)

	return e.err
}

// envReader parses environment variables and keeps the first parse error
type envReader struct {
	err error
}

func (e *envReader) lookup(key string) (string, bool) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

func (e *envReader) fail(key, val string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("%s=%q: %w", key, val, err)
	}
}

func (e *envReader) str(key string, dst *string) {
	if val, ok := e.lookup(key); ok {
		*dst = val
	}
}

func (e *envReader) list(key string, dst *[]string) {
	val, ok := e.lookup(key)
	if !ok {
		return
	}
	var items []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dst = items
}

func (e *envReader) boolean(key string, dst *bool) {
	val, ok := e.lookup(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		e.fail(key, val, err)
		return
	}
	*dst = b
}

func (e *envReader) duration(key string, dst *time.Duration) {
	val, ok := e.lookup(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		e.fail(key, val, err)
		return
	}
	*dst = d
}

func (e *envReader) int64(key string, dst *int64) {
	val, ok := e.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		e.fail(key, val, err)
		return
	}
	*dst = n
}
