package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Name identifies the API host to the hot reload coordinator.
func (s *Server) Name() string {
	return "api-server"
}

// Reload re-reads configuration and applies the settings that can change
// while serving: the CORS policy and the log level. Listener settings are
// only read at start. When the new configuration is invalid nothing changes.
func (s *Server) Reload(ctx context.Context) error {
	if s.loadConfig == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg, err := s.loadConfig()
	if err != nil {
		s.logger.Warn("Ignoring invalid configuration, keeping the current one", zap.Error(err))
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	if err := s.logger.SetLevel(cfg.Observability.Logging.Level); err != nil {
		return err
	}
	s.cors.Update(cfg.CORS)

	if cfg.Server.Address() != s.config.Server.Address() || cfg.TLS != s.config.TLS {
		s.logger.Warn("Listener settings changed; restart to apply them",
			zap.String("current", s.config.Server.Address()),
			zap.String("configured", cfg.Server.Address()),
		)
	}

	s.logger.Info("Configuration reloaded",
		zap.Strings("cors_allowed_origins", cfg.CORS.AllowedOrigins),
		zap.Bool("cors_enabled", cfg.CORS.Enabled),
		zap.String("log_level", cfg.Observability.Logging.Level),
	)
	return nil
}
