package config

// Config represents the unified configuration structure shared by the API
// host and the web tier.
type Config struct {
	Server        ServerConfig        `json:"server" yaml:"server"`
	Metrics       MetricsConfig       `json:"metrics" yaml:"metrics"`
	CORS          CORSConfig          `json:"cors" yaml:"cors"`
	Web           WebConfig           `json:"web" yaml:"web"`
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
	HotReload     HotReloadConfig     `json:"hot_reload" yaml:"hot_reload"`
	TLS           TLSConfig           `json:"tls" yaml:"tls"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server:        DefaultServerConfig(),
		Metrics:       DefaultMetricsConfig(),
		CORS:          DefaultCORSConfig(),
		Web:           DefaultWebConfig(),
		Observability: DefaultObservabilityConfig(),
		HotReload:     DefaultHotReloadConfig(),
		TLS:           DefaultTLSConfig(),
	}
}
