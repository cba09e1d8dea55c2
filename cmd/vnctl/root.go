package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"vnmcp/internal/app"
	"vnmcp/internal/domain"
)

type cliOptions struct {
	catalogPath string
	logLevel    string
	logger      *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{
		catalogPath: domain.DefaultCatalogPath,
		logLevel:    "warn",
		logger:      zap.NewNop(),
	}

	root := &cobra.Command{
		Use:           "vnctl",
		Short:         "Operator tools for vnmcp catalogs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			applyRootFlagBindings(cmd, &opts)
			level, err := zap.ParseAtomicLevel(opts.logLevel)
			if err != nil {
				return err
			}
			logger, err := app.NewProcessLogger(level)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.catalogPath, "catalog", opts.catalogPath, "catalog file to read")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level written to stderr")

	root.AddCommand(
		newQueryCmd(&opts),
		newPackCmd(&opts),
		newScrapeCmd(&opts),
	)
	return root
}

func applyRootFlagBindings(cmd *cobra.Command, opts *cliOptions) {
	flags := cmd.Flags()
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "catalog":
			opts.catalogPath, _ = flags.GetString("catalog")
		case "log-level":
			opts.logLevel, _ = flags.GetString("log-level")
		}
	})
}
