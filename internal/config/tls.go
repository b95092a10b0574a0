package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
)

// TLSConfig contains optional TLS settings for the API host listener
type TLSConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	CertFile   string `json:"cert_file" yaml:"cert_file"`
	KeyFile    string `json:"key_file" yaml:"key_file"`
	MinVersion string `json:"min_version" yaml:"min_version"`
}

// DefaultTLSConfig returns default TLS configuration
func DefaultTLSConfig() TLSConfig {
	return TLSConfig{
		Enabled:    false,
		MinVersion: "1.2",
	}
}

// Validate validates the TLS configuration
func (c TLSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	var errs []error
	if c.CertFile == "" {
		errs = append(errs, errors.New("cert_file is required when TLS is enabled"))
	} else if _, err := os.Stat(c.CertFile); err != nil {
		errs = append(errs, fmt.Errorf("cert file not readable: %w", err))
	}
	if c.KeyFile == "" {
		errs = append(errs, errors.New("key_file is required when TLS is enabled"))
	} else if _, err := os.Stat(c.KeyFile); err != nil {
		errs = append(errs, fmt.Errorf("key file not readable: %w", err))
	}
	if _, err := c.TLSVersion(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TLSVersion maps MinVersion to a crypto/tls constant. Empty means 1.2.
func (c TLSConfig) TLSVersion() (uint16, error) {
	switch c.MinVersion {
	case "", "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("min_version must be 1.2 or 1.3, got %q", c.MinVersion)
	}
}
