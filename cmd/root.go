// Package cmd implements the starter command line: the API host, the web
// tier and build information.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/leslieo2/go-fullstack-starter/internal/config"
)

// options holds the flags shared by every subcommand.
type options struct {
	configFile string
	flags      *config.CLIFlags
}

// load reads configuration with precedence CLI > env > dotenv > file > defaults.
func (o *options) load() (*config.Config, error) {
	return config.LoadConfig(o.configFile, o.flags)
}

// NewRootCommand builds the starter command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "starter",
		Short:         "Full-stack starter: API host and web tier",
		Long:          "A minimal API host, a shared service library and a web front end wired together.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to configuration file (YAML or JSON)")
	opts.flags = config.BindCLIFlags(root.PersistentFlags())

	root.AddCommand(
		newAPICommand(opts),
		newWebCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}
