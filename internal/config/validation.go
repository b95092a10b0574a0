package config

import (
	"errors"
	"fmt"
)

// Validate validates the entire configuration and reports every problem found
func (c *Config) Validate() error {
	var errs []error

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := c.Metrics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("metrics: %w", err))
	}
	if err := c.CORS.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("cors: %w", err))
	}
	if err := c.Web.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("web: %w", err))
	}
	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observability: %w", err))
	}
	if err := c.HotReload.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("hot_reload: %w", err))
	}
	if err := c.TLS.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tls: %w", err))
	}
	if err := c.validatePortCollisions(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// validatePortCollisions rejects listeners sharing a port on the same host
func (c *Config) validatePortCollisions() error {
	var errs []error

	if c.Metrics.Enabled && c.Server.Port == c.Metrics.Port {
		errs = append(errs, errors.New("server.port and metrics.port cannot be the same"))
	}
	if c.Server.Host == c.Web.Host && c.Server.Port == c.Web.Port {
		errs = append(errs, errors.New("server.port and web.port cannot be the same"))
	}
	if c.Metrics.Enabled && c.Metrics.Port == c.Web.Port {
		errs = append(errs, errors.New("metrics.port and web.port cannot be the same"))
	}

	return errors.Join(errs...)
}

// MetricsAddress returns the full metrics listener address
func (c *Config) MetricsAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Metrics.Port)
}
