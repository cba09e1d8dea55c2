package dispatch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"vnmcp/internal/domain"
	"vnmcp/internal/infra/telemetry"
)

// unknownToolLabel bounds metric cardinality for names outside the tool set.
const unknownToolLabel = "unknown"

type MetricDispatcher struct {
	inner   domain.ToolDispatcher
	metrics domain.Metrics
	logger  *zap.Logger
}

func NewMetricDispatcher(inner domain.ToolDispatcher, metrics domain.Metrics, logger *zap.Logger) *MetricDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricDispatcher{
		inner:   inner,
		metrics: metrics,
		logger:  logger.Named("dispatch"),
	}
}

func (d *MetricDispatcher) Handle(ctx context.Context, name string, args map[string]any) (domain.ToolResult, error) {
	start := time.Now()
	result, err := d.inner.Handle(ctx, name, args)
	d.observe(ctx, name, result, time.Since(start), err)
	return result, err
}

func (d *MetricDispatcher) observe(ctx context.Context, name string, result domain.ToolResult, duration time.Duration, err error) {
	status, reason := classifyDispatchResult(result, err)
	tool := name
	if _, ok := domain.ParseToolName(name); !ok {
		tool = unknownToolLabel
	}

	logger := telemetry.LoggerWithRequest(ctx, d.logger)
	fields := []zap.Field{
		telemetry.StatusField(string(status)),
		telemetry.ReasonField(string(reason)),
		telemetry.ResultsField(result.ResultCount()),
		telemetry.DurationField(duration),
	}
	// Calls that did not come through the gateway carry no request metadata.
	if meta, ok := telemetry.RequestMetaFromContext(ctx); !ok || meta.Tool == "" {
		fields = append(fields, telemetry.ToolField(name))
		if call, ok := domain.CallContextFrom(ctx); ok {
			fields = append(fields, telemetry.TransportField(string(call.Transport)))
		}
	}
	if err != nil {
		logger.Warn("tool call failed", append(fields, telemetry.EventField(telemetry.EventToolError), zap.Error(err))...)
	} else {
		logger.Debug("tool call", append(fields, telemetry.EventField(telemetry.EventToolCall))...)
	}

	if d.metrics == nil {
		return
	}
	d.metrics.ObserveDispatch(domain.DispatchMetric{
		Tool:     tool,
		Status:   status,
		Reason:   reason,
		Results:  result.ResultCount(),
		Duration: duration,
	})
}

func classifyDispatchResult(result domain.ToolResult, err error) (domain.DispatchStatus, domain.DispatchReason) {
	if err == nil {
		if result.Failed() {
			return domain.DispatchStatusSuccess, domain.DispatchReasonNoResult
		}
		return domain.DispatchStatusSuccess, domain.DispatchReasonSuccess
	}
	if errors.Is(err, domain.ErrToolNotFound) {
		return domain.DispatchStatusError, domain.DispatchReasonToolNotFound
	}
	if errors.Is(err, domain.ErrInvalidArguments) {
		return domain.DispatchStatusError, domain.DispatchReasonInvalidArguments
	}
	if stage, ok := domain.DispatchStageFrom(err); ok && stage == domain.DispatchStageValidate {
		return domain.DispatchStatusError, domain.DispatchReasonInvalidArguments
	}
	return domain.DispatchStatusError, domain.DispatchReasonUnknown
}

var _ domain.ToolDispatcher = (*MetricDispatcher)(nil)
var _ domain.ToolDispatcher = (*Dispatcher)(nil)
