package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"vnmcp/internal/domain"
)

// CatalogFingerprintHeader is set on /healthz once a catalog is being served.
const CatalogFingerprintHeader = "X-Catalog-Fingerprint"

const shutdownTimeout = 5 * time.Second

// Observability serves /metrics and /healthz beside the MCP transport.
type Observability struct {
	cfg      domain.ObservabilityConfig
	health   *HealthTracker
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

func NewObservability(cfg domain.ObservabilityConfig, health *HealthTracker, gatherer prometheus.Gatherer, logger *zap.Logger) *Observability {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = domain.DefaultObservabilityListenAddress
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Observability{
		cfg:      cfg,
		health:   health,
		gatherer: gatherer,
		logger:   logger.Named("observability"),
	}
}

// Handler routes only the endpoints the config enables.
func (o *Observability) Handler() http.Handler {
	mux := http.NewServeMux()
	if o.cfg.Metrics {
		mux.Handle("GET /metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))
	}
	if o.cfg.Healthz {
		mux.Handle("GET /healthz", healthHandler(o.health))
	}
	return mux
}

// Run listens until ctx ends. It returns at once when both endpoints are off.
func (o *Observability) Run(ctx context.Context) error {
	if !o.cfg.Enabled() {
		return nil
	}

	listener, err := net.Listen("tcp", o.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("observability server failed to start: %w", err)
	}
	server := &http.Server{
		Handler:           o.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		o.logger.Info("observability server listening",
			zap.String("addr", listener.Addr().String()),
			zap.Bool("metrics", o.cfg.Metrics),
			zap.Bool("healthz", o.cfg.Healthz),
		)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("observability server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			o.logger.Error("observability server shutdown error", zap.Error(err))
			return err
		}
		o.logger.Info("observability server stopped")
		return nil
	}
}

// healthHandler answers 503 until a catalog is loaded, then 200 with the
// catalog's fingerprint in a header so probes can spot a changed catalog.
func healthHandler(tracker *HealthTracker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		report := tracker.Report()

		status := http.StatusOK
		if report.Status != HealthStatusOK {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if report.Catalog.Fingerprint != "" {
			w.Header().Set(CatalogFingerprintHeader, report.Catalog.Fingerprint)
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	})
}
