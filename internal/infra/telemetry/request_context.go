package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RequestIDHeader lets HTTP callers supply their own request ID.
const RequestIDHeader = "X-Request-Id"

// catalogTagLen is how much of a catalog fingerprint is kept in log lines.
const catalogTagLen = 12

type requestContextKey struct{}

// RequestMeta identifies one tool call in logs: the caller, the tool it
// invoked and the catalog that answered.
type RequestMeta struct {
	RequestID string
	SessionID string
	Tool      string
	Transport string
	Catalog   string
	TraceID   string
	SpanID    string
}

// ToolCall describes a call as the gateway sees it before dispatch.
type ToolCall struct {
	RequestID string
	SessionID string
	Tool      string
	Transport string
	// Catalog is the full fingerprint of the serving catalog.
	Catalog string
}

func (m RequestMeta) IsZero() bool {
	return m == RequestMeta{}
}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	if meta.IsZero() {
		return ctx
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestContextKey{}, meta)
}

func RequestMetaFromContext(ctx context.Context) (RequestMeta, bool) {
	if ctx == nil {
		return RequestMeta{}, false
	}
	meta, ok := ctx.Value(requestContextKey{}).(RequestMeta)
	return meta, ok && !meta.IsZero()
}

func NewRequestID() string {
	return uuid.NewString()
}

func TraceSpanFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return "", ""
	}
	return spanCtx.TraceID().String(), spanCtx.SpanID().String()
}

// CatalogTag shortens a catalog fingerprint for log lines.
func CatalogTag(fingerprint string) string {
	if len(fingerprint) <= catalogTagLen {
		return fingerprint
	}
	return fingerprint[:catalogTagLen]
}

// StartToolCall attaches metadata for one tool call to ctx. A request ID or
// session already on ctx is kept when call leaves it empty, and a request ID
// is generated when neither has one.
func StartToolCall(ctx context.Context, call ToolCall) (context.Context, RequestMeta) {
	if existing, ok := RequestMetaFromContext(ctx); ok {
		if call.RequestID == "" {
			call.RequestID = existing.RequestID
		}
		if call.SessionID == "" {
			call.SessionID = existing.SessionID
		}
	}
	if call.RequestID == "" {
		call.RequestID = NewRequestID()
	}
	traceID, spanID := TraceSpanFromContext(ctx)
	meta := RequestMeta{
		RequestID: call.RequestID,
		SessionID: call.SessionID,
		Tool:      call.Tool,
		Transport: call.Transport,
		Catalog:   CatalogTag(call.Catalog),
		TraceID:   traceID,
		SpanID:    spanID,
	}
	return WithRequestMeta(ctx, meta), meta
}

func RequestFields(meta RequestMeta) []zap.Field {
	fields := make([]zap.Field, 0, 7)
	for _, f := range []struct {
		key, value string
	}{
		{FieldRequestID, meta.RequestID},
		{FieldSessionID, meta.SessionID},
		{FieldTool, meta.Tool},
		{FieldTransport, meta.Transport},
		{FieldCatalog, meta.Catalog},
		{FieldTraceID, meta.TraceID},
		{FieldSpanID, meta.SpanID},
	} {
		if f.value != "" {
			fields = append(fields, zap.String(f.key, f.value))
		}
	}
	return fields
}

// LoggerWithRequest returns base annotated with the call metadata on ctx.
func LoggerWithRequest(ctx context.Context, base *zap.Logger) *zap.Logger {
	logger := base
	if logger == nil {
		logger = zap.NewNop()
	}
	meta, ok := RequestMetaFromContext(ctx)
	if !ok {
		return logger
	}
	return logger.With(RequestFields(meta)...)
}
