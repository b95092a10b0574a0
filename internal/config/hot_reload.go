package config

import (
	"errors"
	"time"
)

// HotReloadConfig controls watching of the config file. When a watched file
// changes the API host re-reads its configuration and swaps the CORS policy
// and log level in place. ExtraPaths lists further files to watch, such as
// a dotenv file.
type HotReloadConfig struct {
	Enabled    bool          `json:"enabled" yaml:"enabled"`
	Debounce   time.Duration `json:"debounce" yaml:"debounce"`
	ExtraPaths []string      `json:"extra_paths" yaml:"extra_paths"`
}

// DefaultHotReloadConfig returns default hot reload configuration
func DefaultHotReloadConfig() HotReloadConfig {
	return HotReloadConfig{
		Enabled:  true,
		Debounce: 500 * time.Millisecond,
	}
}

// Validate validates hot reload configuration
func (h HotReloadConfig) Validate() error {
	if h.Debounce < 0 {
		return errors.New("debounce must be non-negative")
	}
	for _, p := range h.ExtraPaths {
		if p == "" {
			return errors.New("extra_paths cannot contain empty strings")
		}
	}
	return nil
}
