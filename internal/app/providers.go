package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"vnmcp/internal/domain"
	"vnmcp/internal/infra/catalog"
	"vnmcp/internal/infra/config"
	"vnmcp/internal/infra/dispatch"
	"vnmcp/internal/infra/gateway"
	"vnmcp/internal/infra/query"
	"vnmcp/internal/infra/telemetry"
)

func NewConfig(ctx context.Context, serve ServeConfig, logger *zap.Logger) (domain.Config, error) {
	return loadConfig(ctx, serve.ConfigPath, serve.Override, logger)
}

func loadConfig(ctx context.Context, path string, override func(*domain.Config), logger *zap.Logger) (domain.Config, error) {
	cfg, err := config.NewLoader(logger).Load(ctx, path)
	if err != nil {
		return domain.Config{}, err
	}
	if override != nil {
		override(&cfg)
	}
	if err := checkOverrides(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// checkOverrides re-checks the fields command-line flags can change.
func checkOverrides(cfg domain.Config) error {
	switch cfg.Transport {
	case domain.TransportStdio:
	case domain.TransportStreamableHTTP:
		if err := gateway.HTTPOptionsFromConfig(cfg.HTTP).Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported transport: %s", cfg.Transport)
	}
	if cfg.Catalog.Path == "" {
		return errors.New("catalog path is required")
	}
	_, err := config.ParseLevel(cfg.Logging.Level)
	return err
}

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	registry.MustRegister(prometheus.NewGoCollector())
	return registry
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

func NewHealthTracker() *telemetry.HealthTracker {
	return telemetry.NewHealthTracker()
}

// NewCatalogStore loads the catalog once. Any failure aborts startup before
// the observability server is up, so health only ever reports a loaded catalog.
func NewCatalogStore(
	ctx context.Context,
	cfg domain.Config,
	metrics domain.Metrics,
	health *telemetry.HealthTracker,
	logger *zap.Logger,
) (*catalog.Store, error) {
	source := cfg.Catalog.Path
	start := time.Now()
	store, err := catalog.NewLoader(logger).Load(ctx, source)
	if err != nil {
		logger.Error("catalog load failed",
			telemetry.EventField(telemetry.EventCatalogFailed),
			zap.String("source", source),
			zap.Error(err),
		)
		return nil, fmt.Errorf("load catalog %s: %w", source, err)
	}

	metrics.SetCatalogEntries(store.Len())
	health.CatalogLoaded(source, store.Len(), store.Fingerprint())
	logger.Info("catalog loaded",
		telemetry.EventField(telemetry.EventCatalogLoaded),
		zap.String("source", source),
		telemetry.EntriesField(store.Len()),
		telemetry.FingerprintField(store.Fingerprint()),
		telemetry.DurationField(time.Since(start)),
	)
	return store, nil
}

func NewQueryEngine(store *catalog.Store) *query.Engine {
	return query.NewEngine(store)
}

func NewDispatcher(querier dispatch.Querier, logger *zap.Logger) (*dispatch.Dispatcher, error) {
	return dispatch.NewDispatcher(querier, dispatch.Options{Logger: logger})
}

func NewToolDispatcher(dispatcher *dispatch.Dispatcher, metrics domain.Metrics, logger *zap.Logger) domain.ToolDispatcher {
	return dispatch.NewMetricDispatcher(dispatcher, metrics, logger)
}

func NewGateway(handler domain.ToolDispatcher, dispatcher *dispatch.Dispatcher, store *catalog.Store, cfg domain.Config, logger *zap.Logger) *gateway.Gateway {
	gw := gateway.NewGateway(handler, dispatcher.Tools(), cfg.Server, logger)
	gw.SetCatalog(store.Fingerprint())
	return gw
}
