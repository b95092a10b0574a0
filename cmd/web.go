package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leslieo2/go-fullstack-starter/internal/observability"
	"github.com/leslieo2/go-fullstack-starter/internal/web"
)

func newWebCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "web",
		Short: "Run the web tier and its development proxy to the API host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWeb(ctx, opts)
		},
	}
}

func runWeb(ctx context.Context, opts *options) (err error) {
	cfg, err := opts.load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	tracer, err := observability.NewTracer(cfg.Observability.Tracing)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	defer func() {
		err = errors.Join(err, tracer.Shutdown(context.Background()))
	}()

	srv, err := web.New(cfg.Web, cfg.Server, logger)
	if err != nil {
		return fmt.Errorf("failed to create web tier: %w", err)
	}
	return srv.Start(ctx)
}
