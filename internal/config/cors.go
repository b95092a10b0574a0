package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"

	"github.com/leslieo2/go-fullstack-starter/internal/constants"
)

// CORSConfig contains the cross-origin policy of the API host.
// A "*" entry in AllowedMethods or AllowedHeaders allows any method or header.
type CORSConfig struct {
	Enabled          bool     `json:"enabled" yaml:"enabled"`
	AllowedOrigins   []string `json:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers" yaml:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `json:"max_age" yaml:"max_age"`
}

// DefaultCORSConfig returns the development policy: the frontend origin,
// any header, any method, no credentials.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		Enabled:          true,
		AllowedOrigins:   []string{constants.DevFrontendOrigin},
		AllowedMethods:   []string{constants.CORSWildcard},
		AllowedHeaders:   []string{constants.CORSWildcard},
		AllowCredentials: false,
		MaxAge:           0,
	}
}

// Validate validates the CORS configuration
func (c *CORSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	var errs []error
	if len(c.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("allowed_origins must not be empty"))
	}
	if len(c.AllowedMethods) == 0 {
		errs = append(errs, errors.New("allowed_methods must not be empty"))
	}
	for _, origin := range c.AllowedOrigins {
		if err := validateOrigin(origin); err != nil {
			errs = append(errs, err)
		}
	}
	if c.AllowCredentials && slices.Contains(c.AllowedOrigins, constants.CORSWildcard) {
		errs = append(errs, errors.New("allow_credentials cannot be combined with a wildcard origin"))
	}
	if c.MaxAge < 0 {
		errs = append(errs, errors.New("max_age must be non-negative"))
	}

	return errors.Join(errs...)
}

// validateOrigin accepts "*" or a scheme://host[:port] origin without path.
func validateOrigin(origin string) error {
	if origin == constants.CORSWildcard {
		return nil
	}
	if origin == "" {
		return errors.New("allowed_origins cannot contain empty strings")
	}

	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("allowed origin %q is not a valid URL: %w", origin, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("allowed origin %q must include scheme and host", origin)
	}
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("allowed origin %q must not include a path", origin)
	}
	return nil
}
