package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"vnmcp/internal/app"
	"vnmcp/internal/domain"
)

type rootOptions struct {
	configPath string
	logger     *zap.Logger
	level      zap.AtomicLevel
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{
		logger: zap.NewNop(),
		level:  zap.NewAtomicLevel(),
	}

	root := &cobra.Command{
		Use:           "vnmcp",
		Short:         "MCP server answering visual novel catalog queries",
		Version:       fmt.Sprintf("%s (%s)", app.Version, app.Build),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logger, err := app.NewProcessLogger(opts.level)
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

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to vnmcp.yaml (defaults apply when empty)")
	registerOverrideFlags(root.PersistentFlags())

	root.AddCommand(
		newServeCmd(opts),
		newValidateCmd(opts),
	)
	return root
}

func registerOverrideFlags(flags *pflag.FlagSet) {
	flags.String("catalog", domain.DefaultCatalogPath, "catalog file (json, jsonc, yaml, toml, .zst or bbolt snapshot)")
	flags.String("transport", string(domain.DefaultTransport), "server transport (stdio or streamable-http)")
	flags.String("http-addr", domain.DefaultHTTPAddr, "streamable HTTP listen address")
	flags.String("http-path", domain.DefaultHTTPPath, "streamable HTTP endpoint path")
	flags.String("http-token", "", "streamable HTTP bearer token (required for non-localhost)")
	flags.StringArray("http-allowed-origin", nil, "allowed CORS origin (repeatable or *)")
	flags.Bool("http-json-response", false, "use application/json responses instead of SSE")
	flags.Int("http-session-timeout", 0, "streamable HTTP session idle timeout in seconds (0 disables)")
	flags.String("observability-addr", domain.DefaultObservabilityListenAddress, "listen address for /metrics and /healthz")
	flags.Bool("metrics", false, "expose Prometheus metrics")
	flags.Bool("healthz", false, "expose the health endpoint")
	flags.String("log-level", domain.DefaultLogLevel, "log level (debug, info, warn, error)")
}

// applyOverrideFlags copies explicitly set flags onto cfg so they win over
// the config file.
func applyOverrideFlags(flags *pflag.FlagSet, cfg *domain.Config) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "catalog":
			cfg.Catalog.Path, _ = flags.GetString("catalog")
		case "transport":
			transport, _ := flags.GetString("transport")
			cfg.Transport = domain.TransportKind(transport)
		case "http-addr":
			cfg.HTTP.Addr, _ = flags.GetString("http-addr")
		case "http-path":
			cfg.HTTP.Path, _ = flags.GetString("http-path")
		case "http-token":
			cfg.HTTP.Token, _ = flags.GetString("http-token")
		case "http-allowed-origin":
			cfg.HTTP.AllowedOrigins, _ = flags.GetStringArray("http-allowed-origin")
		case "http-json-response":
			cfg.HTTP.JSONResponse, _ = flags.GetBool("http-json-response")
		case "http-session-timeout":
			cfg.HTTP.SessionTimeoutSeconds, _ = flags.GetInt("http-session-timeout")
		case "observability-addr":
			cfg.Observability.ListenAddress, _ = flags.GetString("observability-addr")
		case "metrics":
			cfg.Observability.Metrics, _ = flags.GetBool("metrics")
		case "healthz":
			cfg.Observability.Healthz, _ = flags.GetBool("healthz")
		case "log-level":
			cfg.Logging.Level, _ = flags.GetString("log-level")
		}
	})
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog tools over MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			flags := cmd.Flags()
			application := app.New(opts.logger, &opts.level)
			return application.Serve(ctx, app.ServeConfig{
				ConfigPath: opts.configPath,
				Override: func(cfg *domain.Config) {
					applyOverrideFlags(flags, cfg)
				},
			})
		},
	}
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the config and catalog without serving",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			application := app.New(opts.logger, &opts.level)
			report, err := application.ValidateConfig(cmd.Context(), app.ValidateConfig{
				ConfigPath: opts.configPath,
				Override: func(cfg *domain.Config) {
					applyOverrideFlags(flags, cfg)
				},
			})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
