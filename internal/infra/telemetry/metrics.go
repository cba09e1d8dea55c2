package telemetry

import "vnmcp/internal/domain"

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveDispatch(_ domain.DispatchMetric) {}

func (n *NoopMetrics) SetCatalogEntries(_ int) {}

var _ domain.Metrics = (*NoopMetrics)(nil)
