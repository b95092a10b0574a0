package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leslieo2/go-fullstack-starter/internal/config"
	"github.com/leslieo2/go-fullstack-starter/internal/hotreload"
	"github.com/leslieo2/go-fullstack-starter/internal/observability"
	"github.com/leslieo2/go-fullstack-starter/internal/server"
	"github.com/leslieo2/go-fullstack-starter/internal/services"
)

func newAPICommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "api",
		Short: "Run the API host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAPI(ctx, opts)
		},
	}
}

func runAPI(ctx context.Context, opts *options) (err error) {
	cfg, err := opts.load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Observability.Tracing.Version == "" {
		cfg.Observability.Tracing.Version = Version
	}
	tracer, err := observability.NewTracer(cfg.Observability.Tracing)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	defer func() {
		err = errors.Join(err, tracer.Shutdown(context.Background()))
	}()

	container := services.AddSharedServices(services.NewContainer())

	srv, err := server.New(cfg, logger, observability.NewMetrics(), tracer, container,
		server.WithConfigLoader(opts.load))
	if err != nil {
		return fmt.Errorf("failed to create API host: %w", err)
	}

	reload := srv.Reload
	if cfg.HotReload.Enabled {
		manager, err := startHotReload(cfg, opts.configFile, logger, srv)
		if err != nil {
			return err
		}
		if manager != nil {
			defer manager.Stop()
			reload = manager.Reload
		}
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go reloadOnSignal(ctx, hup, reload, logger.Logger)

	return srv.Start(ctx)
}

// watchedFiles lists the files whose changes trigger a reload.
func watchedFiles(cfg *config.Config, configFile string) []string {
	var paths []string
	if configFile != "" {
		paths = append(paths, configFile)
	}
	return append(paths, cfg.HotReload.ExtraPaths...)
}

// startHotReload watches the config file and any extra paths. It returns a
// nil manager when there is nothing to watch.
func startHotReload(cfg *config.Config, configFile string, logger *observability.Logger, srv *server.Server) (*hotreload.Manager, error) {
	paths := watchedFiles(cfg, configFile)
	if len(paths) == 0 {
		logger.Info("Hot reload enabled but no config file given; send SIGHUP to reload")
		return nil, nil
	}

	manager, err := hotreload.NewManager(logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create hot reload manager: %w", err)
	}
	manager.SetDebounceTime(cfg.HotReload.Debounce)

	for _, p := range paths {
		if err := manager.AddWatch(p); err != nil {
			manager.Stop()
			return nil, fmt.Errorf("failed to watch %s: %w", p, err)
		}
	}
	if err := manager.RegisterReloadable(srv); err != nil {
		manager.Stop()
		return nil, fmt.Errorf("failed to register API host for hot reload: %w", err)
	}
	if err := manager.Start(); err != nil {
		manager.Stop()
		return nil, fmt.Errorf("failed to start hot reload: %w", err)
	}

	logger.Info("Watching configuration for changes",
		zap.Strings("paths", manager.WatchedPaths()),
		zap.Duration("debounce", cfg.HotReload.Debounce),
	)
	return manager, nil
}

// reloadOnSignal calls reload for every signal received until ctx is done.
func reloadOnSignal(ctx context.Context, sig <-chan os.Signal, reload func(context.Context) error, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-sig:
			logger.Info("Signal received, reloading configuration", zap.String("signal", s.String()))
			if err := reload(ctx); err != nil {
				logger.Warn("Reload failed, keeping previous configuration", zap.Error(err))
			}
		}
	}
}
