package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"vnmcp/internal/domain"
	"vnmcp/internal/infra/catalog"
	"vnmcp/internal/infra/config"
	"vnmcp/internal/infra/gateway"
	"vnmcp/internal/infra/telemetry"
)

// Application holds the wired runtime for one serve invocation.
type Application struct {
	ctx        context.Context
	configPath string
	override   func(*domain.Config)

	config   domain.Config
	logging  Logging
	logger   *zap.Logger
	registry *prometheus.Registry
	health   *telemetry.HealthTracker
	store    *catalog.Store
	gateway  *gateway.Gateway
}

type ApplicationOptions struct {
	Context     context.Context
	ServeConfig ServeConfig
	Config      domain.Config
	Logging     Logging
	Registry    *prometheus.Registry
	Health      *telemetry.HealthTracker
	Store       *catalog.Store
	Gateway     *gateway.Gateway
}

func NewApplication(opts ApplicationOptions) *Application {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return &Application{
		ctx:        ctx,
		configPath: opts.ServeConfig.ConfigPath,
		override:   opts.ServeConfig.Override,
		config:     opts.Config,
		logging:    opts.Logging,
		logger:     opts.Logging.Logger,
		registry:   opts.Registry,
		health:     opts.Health,
		store:      opts.Store,
		gateway:    opts.Gateway,
	}
}

// Run serves until the context is canceled. The observability server and
// config watcher stop with it.
func (a *Application) Run() error {
	applyLevel(a.logging, a.config.Logging.Level)
	a.logger.Info("configuration loaded",
		zap.String("config", a.configPath),
		zap.String("transport", string(a.config.Transport)),
		telemetry.EntriesField(a.store.Len()),
	)

	ctx, cancel := context.WithCancel(a.ctx)
	defer cancel()

	if a.config.Observability.Enabled() {
		obs := telemetry.NewObservability(a.config.Observability, a.health, a.registry, a.logger)
		go func() {
			if err := obs.Run(ctx); err != nil {
				a.logger.Warn("observability server stopped", zap.Error(err))
			}
		}()
	}

	if a.configPath != "" {
		watcher := config.NewWatcher(a.configPath, config.NewLoader(a.logger), a.onConfigChange, a.logger)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				a.logger.Warn("config watcher stopped", zap.Error(err))
			}
		}()
	}

	var err error
	switch a.config.Transport {
	case domain.TransportStdio:
		err = a.gateway.Run(ctx)
	case domain.TransportStreamableHTTP:
		err = a.gateway.RunStreamableHTTP(ctx, gateway.HTTPOptionsFromConfig(a.config.HTTP))
	default:
		err = fmt.Errorf("unsupported transport: %s", a.config.Transport)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// onConfigChange applies the reloadable part of a new config. The catalog
// and transport are fixed for the life of the process.
func (a *Application) onConfigChange(cfg domain.Config) {
	if a.override != nil {
		a.override(&cfg)
	}
	applyLevel(a.logging, cfg.Logging.Level)
	if cfg.Catalog.Path != a.config.Catalog.Path || cfg.Transport != a.config.Transport {
		a.logger.Info("catalog and transport changes apply on restart",
			zap.String("catalog", cfg.Catalog.Path),
			zap.String("transport", string(cfg.Transport)),
		)
	}
}
