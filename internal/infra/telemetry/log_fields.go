package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldEvent       = "event"
	FieldTool        = "tool"
	FieldStatus      = "status"
	FieldReason      = "reason"
	FieldResults     = "results"
	FieldEntries     = "entries"
	FieldFingerprint = "fingerprint"
	FieldTransport   = "transport"
	FieldCatalog     = "catalog"
	FieldDurationMs  = "duration_ms"
	FieldRequestID   = "request_id"
	FieldSessionID   = "session_id"
	FieldTraceID     = "trace_id"
	FieldSpanID      = "span_id"
)

const (
	EventCatalogLoaded  = "catalog_loaded"
	EventCatalogFailed  = "catalog_failed"
	EventToolCall       = "tool_call"
	EventToolError      = "tool_error"
	EventServeStart     = "serve_start"
	EventServeStop      = "serve_stop"
	EventConfigReloaded = "config_reloaded"
	EventScrapeFailure  = "scrape_failure"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func ToolField(tool string) zap.Field {
	return zap.String(FieldTool, tool)
}

func StatusField(status string) zap.Field {
	return zap.String(FieldStatus, status)
}

func ReasonField(reason string) zap.Field {
	return zap.String(FieldReason, reason)
}

func ResultsField(count int) zap.Field {
	return zap.Int(FieldResults, count)
}

func EntriesField(count int) zap.Field {
	return zap.Int(FieldEntries, count)
}

func FingerprintField(value string) zap.Field {
	return zap.String(FieldFingerprint, value)
}

func TransportField(value string) zap.Field {
	return zap.String(FieldTransport, value)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}
