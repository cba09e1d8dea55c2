package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vnmcp/internal/domain"
	"vnmcp/internal/infra/catalog"
	"vnmcp/internal/infra/dispatch"
	"vnmcp/internal/infra/query"
	"vnmcp/internal/infra/telemetry"
)

type testHarness struct {
	gateway  *Gateway
	session  *mcp.ClientSession
	registry *prometheus.Registry
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	ctx := context.Background()

	store := catalog.NewStore([]domain.Entry{
		{
			Name:        "Clannad",
			Description: []string{"A story about family"},
			URL:         "u1",
			Tags:        [][]string{{"drama", "slice of life"}},
		},
		{
			Name:        "Rance",
			Description: []string{"Action"},
			URL:         "u2",
			Tags:        [][]string{{"action", "romance"}},
		},
		{
			Name:        "Gekkou",
			Description: []string{"Comedy"},
			URL:         "u3",
			Tags:        [][]string{{"comedy"}},
		},
	})
	inner, err := dispatch.NewDispatcher(query.NewEngine(store), dispatch.Options{Logger: zap.NewNop()})
	require.NoError(t, err)
	registry := prometheus.NewRegistry()
	metered := dispatch.NewMetricDispatcher(inner, telemetry.NewPrometheusMetrics(registry), zap.NewNop())

	gw := NewGateway(metered, inner.Tools(), domain.ServerInfo{Name: "vnmcp-test", Version: "1.2.3"}, zap.NewNop())
	_, session := connectClient(t, ctx, gw.Server())
	t.Cleanup(func() { _ = session.Close() })

	return &testHarness{gateway: gw, session: session, registry: registry}
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) (*mcp.CallToolResult, error) {
	t.Helper()
	return session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
}

func resultPayload(t *testing.T, res *mcp.CallToolResult) json.RawMessage {
	t.Helper()
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	structured, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var wrapper map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(structured, &wrapper))
	require.JSONEq(t, text.Text, string(wrapper["toolResult"]))
	return json.RawMessage(text.Text)
}

func TestGateway_ListTools(t *testing.T) {
	h := newHarness(t)

	res, err := h.session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	want := make([]string, 0)
	for _, name := range domain.ToolNames() {
		want = append(want, string(name))
	}
	require.ElementsMatch(t, want, names)
}

func TestGateway_CatalogTools(t *testing.T) {
	h := newHarness(t)

	cases := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{
			name: "search",
			tool: "search_visual_novels",
			args: map[string]any{"query": "FAMILY"},
			want: `[{"name":"Clannad","url":"u1"}]`,
		},
		{
			name: "details partial",
			tool: "get_visual_novel_details",
			args: map[string]any{"name": "clan"},
			want: `{"name":"Clannad","description":["A story about family"],"url":"u1","tags":[["drama","slice of life"]]}`,
		},
		{
			name: "details missing",
			tool: "get_visual_novel_details",
			args: map[string]any{"name": "Nonexistent"},
			want: `{"error":"visual novel not found"}`,
		},
		{
			name: "tags",
			tool: "search_visual_novels_by_tags",
			args: map[string]any{"tags": []string{"rom"}},
			want: `[{"name":"Rance","url":"u2","matched_tags":["rom"]}]`,
		},
		{
			name: "empty tags",
			tool: "search_visual_novels_by_tags",
			args: map[string]any{"tags": []string{}},
			want: `{"error":"at least one tag is required"}`,
		},
		{
			name: "no matches",
			tool: "search_visual_novels",
			args: map[string]any{"query": "zzz"},
			want: `[]`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := callTool(t, h.session, tc.tool, tc.args)
			require.NoError(t, err)
			require.JSONEq(t, tc.want, string(resultPayload(t, res)))
		})
	}
}

func TestGateway_TrivialTools(t *testing.T) {
	h := newHarness(t)

	res, err := callTool(t, h.session, "calculate_sum", map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	require.JSONEq(t, `3`, string(resultPayload(t, res)))

	res, err = callTool(t, h.session, "get_encode_extra_password", map[string]any{"a": "abc"})
	require.NoError(t, err)
	require.JSONEq(t, `"abc123"`, string(resultPayload(t, res)))

	res, err = callTool(t, h.session, "get_random_password", map[string]any{})
	require.NoError(t, err)
	var password string
	require.NoError(t, json.Unmarshal(resultPayload(t, res), &password))
	require.Len(t, password, 26)
}

func TestGateway_UnknownToolIsInternalError(t *testing.T) {
	h := newHarness(t)

	_, err := callTool(t, h.session, "format_disk", map[string]any{})
	require.Error(t, err)

	var rpcErr *jsonrpc.Error
	require.True(t, errors.As(err, &rpcErr), "unexpected error type %T: %v", err, err)
	require.Equal(t, int64(domain.ErrCodeInternal), rpcErr.Code)
	require.Equal(t, "Tool not found", rpcErr.Message)

	count, err := testutil.GatherAndCount(h.registry, "vnmcp_dispatch_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestGateway_InvalidArgumentsIsInvalidParams(t *testing.T) {
	h := newHarness(t)

	_, err := callTool(t, h.session, "search_visual_novels", map[string]any{"query": 7})
	require.Error(t, err)

	var rpcErr *jsonrpc.Error
	require.True(t, errors.As(err, &rpcErr), "unexpected error type %T: %v", err, err)
	require.Equal(t, int64(domain.ErrCodeInvalidParams), rpcErr.Code)
	require.Contains(t, rpcErr.Message, "search_visual_novels")
}

func TestGateway_MissingArgumentsIsInvalidParams(t *testing.T) {
	h := newHarness(t)

	_, err := callTool(t, h.session, "get_visual_novel_details", map[string]any{})
	require.Error(t, err)

	var rpcErr *jsonrpc.Error
	require.True(t, errors.As(err, &rpcErr))
	require.Equal(t, int64(domain.ErrCodeInvalidParams), rpcErr.Code)
}

func TestDecodeArguments(t *testing.T) {
	args, err := decodeArguments(nil)
	require.NoError(t, err)
	require.Empty(t, args)

	args, err = decodeArguments(json.RawMessage(`null`))
	require.NoError(t, err)
	require.NotNil(t, args)

	_, err = decodeArguments(json.RawMessage(`[1,2]`))
	require.Error(t, err)
}
