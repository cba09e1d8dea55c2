package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vnmcp/internal/domain"
)

type PrometheusMetrics struct {
	dispatchDuration *prometheus.HistogramVec
	dispatchResults  *prometheus.HistogramVec
	catalogEntries   prometheus.Gauge
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		dispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vnmcp_dispatch_duration_seconds",
				Help:    "Duration of tool dispatches in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"tool", "status", "reason"},
		),
		dispatchResults: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vnmcp_dispatch_results",
				Help:    "Number of items returned by list-shaped tool results",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500},
			},
			[]string{"tool"},
		),
		catalogEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "vnmcp_catalog_entries",
				Help: "Number of entries in the loaded catalog",
			},
		),
	}
}

func (p *PrometheusMetrics) ObserveDispatch(metric domain.DispatchMetric) {
	p.dispatchDuration.WithLabelValues(metric.Tool, string(metric.Status), string(metric.Reason)).Observe(metric.Duration.Seconds())
	if metric.Status == domain.DispatchStatusSuccess {
		p.dispatchResults.WithLabelValues(metric.Tool).Observe(float64(metric.Results))
	}
}

func (p *PrometheusMetrics) SetCatalogEntries(count int) {
	p.catalogEntries.Set(float64(count))
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
