package domain

import "context"

// CallContext carries caller metadata for a dispatched call.
type CallContext struct {
	Transport TransportKind
	SessionID string
}

type callContextKey struct{}

// WithCallContext attaches caller metadata to a context.
func WithCallContext(ctx context.Context, meta CallContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callContextKey{}, meta)
}

// CallContextFrom extracts caller metadata from a context.
func CallContextFrom(ctx context.Context) (CallContext, bool) {
	if ctx == nil {
		return CallContext{}, false
	}
	meta, ok := ctx.Value(callContextKey{}).(CallContext)
	return meta, ok
}
