package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"vnmcp/internal/domain"
	"vnmcp/internal/infra/telemetry"
)

type recordingMetrics struct {
	dispatches []domain.DispatchMetric
	entries    int
}

func (m *recordingMetrics) ObserveDispatch(metric domain.DispatchMetric) {
	m.dispatches = append(m.dispatches, metric)
}

func (m *recordingMetrics) SetCatalogEntries(count int) {
	m.entries = count
}

func TestMetricDispatcher_Classification(t *testing.T) {
	cases := []struct {
		name       string
		tool       string
		args       map[string]any
		wantTool   string
		wantStatus domain.DispatchStatus
		wantReason domain.DispatchReason
		wantCount  int
	}{
		{
			name:       "success",
			tool:       "search_visual_novels",
			args:       map[string]any{"query": ""},
			wantTool:   "search_visual_novels",
			wantStatus: domain.DispatchStatusSuccess,
			wantReason: domain.DispatchReasonSuccess,
			wantCount:  3,
		},
		{
			name:       "not found payload",
			tool:       "get_visual_novel_details",
			args:       map[string]any{"name": "missing"},
			wantTool:   "get_visual_novel_details",
			wantStatus: domain.DispatchStatusSuccess,
			wantReason: domain.DispatchReasonNoResult,
		},
		{
			name:       "unknown tool",
			tool:       "rm_rf",
			wantTool:   unknownToolLabel,
			wantStatus: domain.DispatchStatusError,
			wantReason: domain.DispatchReasonToolNotFound,
		},
		{
			name:       "invalid arguments",
			tool:       "calculate_sum",
			args:       map[string]any{"a": "x"},
			wantTool:   "calculate_sum",
			wantStatus: domain.DispatchStatusError,
			wantReason: domain.DispatchReasonInvalidArguments,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			metrics := &recordingMetrics{}
			d := NewMetricDispatcher(newTestDispatcher(t), metrics, zap.NewNop())

			_, _ = d.Handle(context.Background(), tc.tool, tc.args)

			require.Len(t, metrics.dispatches, 1)
			got := metrics.dispatches[0]
			require.Equal(t, tc.wantTool, got.Tool)
			require.Equal(t, tc.wantStatus, got.Status)
			require.Equal(t, tc.wantReason, got.Reason)
			require.Equal(t, tc.wantCount, got.Results)
		})
	}
}

func TestMetricDispatcher_NilMetrics(t *testing.T) {
	d := NewMetricDispatcher(newTestDispatcher(t), nil, nil)

	result, err := d.Handle(context.Background(), "get_encode_extra_password", map[string]any{"a": "x"})
	require.NoError(t, err)
	require.Equal(t, "x123", result.Payload)
}

func TestMetricDispatcher_LogsCallMetadata(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	d := NewMetricDispatcher(newTestDispatcher(t), nil, zap.New(core))

	ctx, _ := telemetry.StartToolCall(context.Background(), telemetry.ToolCall{
		RequestID: "req-1",
		Tool:      "search_visual_novels",
		Transport: string(domain.TransportStdio),
		Catalog:   "abcdef0123456789",
	})
	_, err := d.Handle(ctx, "search_visual_novels", map[string]any{"query": ""})
	require.NoError(t, err)

	_, err = d.Handle(context.Background(), "calculate_sum", map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)

	fromGateway := entries[0].ContextMap()
	require.Equal(t, "req-1", fromGateway[telemetry.FieldRequestID])
	require.Equal(t, "search_visual_novels", fromGateway[telemetry.FieldTool])
	require.Equal(t, "abcdef012345", fromGateway[telemetry.FieldCatalog])
	require.Equal(t, telemetry.EventToolCall, fromGateway[telemetry.FieldEvent])

	direct := entries[1].ContextMap()
	require.Equal(t, "calculate_sum", direct[telemetry.FieldTool])
	require.NotContains(t, direct, telemetry.FieldRequestID)
}
