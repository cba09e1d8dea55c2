package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vnmcp/internal/domain"
	"vnmcp/internal/infra/catalog"
	"vnmcp/internal/infra/dispatch"
	"vnmcp/internal/infra/query"
	"vnmcp/internal/infra/telemetry"
)

type metaRecorder struct {
	inner domain.ToolDispatcher

	mu    sync.Mutex
	metas []telemetry.RequestMeta
}

func (r *metaRecorder) Handle(ctx context.Context, name string, args map[string]any) (domain.ToolResult, error) {
	meta, _ := telemetry.RequestMetaFromContext(ctx)
	r.mu.Lock()
	r.metas = append(r.metas, meta)
	r.mu.Unlock()
	return r.inner.Handle(ctx, name, args)
}

func (r *metaRecorder) last(t *testing.T) telemetry.RequestMeta {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.metas)
	return r.metas[len(r.metas)-1]
}

type headerRoundTripper struct {
	key, value string
}

func (h headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(h.key, h.value)
	return http.DefaultTransport.RoundTrip(req)
}

func newRecordingGateway(t *testing.T) (*Gateway, *metaRecorder, *catalog.Store) {
	t.Helper()
	store := catalog.NewStore([]domain.Entry{
		{Name: "Ever17", Description: []string{"Underwater."}, URL: "u17", Tags: [][]string{{"mystery"}}},
	})
	inner, err := dispatch.NewDispatcher(query.NewEngine(store), dispatch.Options{Logger: zap.NewNop()})
	require.NoError(t, err)
	recorder := &metaRecorder{inner: inner}
	gw := NewGateway(recorder, inner.Tools(), domain.ServerInfo{}, zap.NewNop())
	gw.SetCatalog(store.Fingerprint())
	return gw, recorder, store
}

func TestGateway_CallMetadata(t *testing.T) {
	gw, recorder, store := newRecordingGateway(t)
	_, session := connectClient(t, context.Background(), gw.Server())
	t.Cleanup(func() { _ = session.Close() })

	_, err := callTool(t, session, "search_visual_novels", map[string]any{"query": "ever"})
	require.NoError(t, err)

	meta := recorder.last(t)
	require.NotEmpty(t, meta.RequestID)
	require.Equal(t, "search_visual_novels", meta.Tool)
	require.Equal(t, string(domain.TransportStdio), meta.Transport)
	require.Equal(t, telemetry.CatalogTag(store.Fingerprint()), meta.Catalog)
	require.Len(t, meta.Catalog, 12)

	_, err = callTool(t, session, "search_visual_novels", map[string]any{"query": "ever"})
	require.NoError(t, err)
	require.NotEqual(t, meta.RequestID, recorder.last(t).RequestID)
}

func TestGateway_RequestIDHeader(t *testing.T) {
	gw, recorder, _ := newRecordingGateway(t)
	server := httptest.NewServer(gw.Handler(HTTPOptions{
		Addr:         "127.0.0.1:0",
		Path:         "/mcp",
		JSONResponse: true,
	}))
	t.Cleanup(server.Close)

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "0.1.0"}, nil)
	session, err := client.Connect(context.Background(), &mcp.StreamableClientTransport{
		Endpoint:   server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: headerRoundTripper{key: telemetry.RequestIDHeader, value: "req-from-header"}},
		MaxRetries: -1,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	_, err = callTool(t, session, "get_visual_novel_details", map[string]any{"name": "Ever17"})
	require.NoError(t, err)

	meta := recorder.last(t)
	require.Equal(t, "req-from-header", meta.RequestID)
	require.Equal(t, "get_visual_novel_details", meta.Tool)
	require.NotEmpty(t, meta.SessionID)
}
