package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vnmcp/internal/domain"
	"vnmcp/internal/infra/catalog"
	"vnmcp/internal/infra/query"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	store := catalog.NewStore([]domain.Entry{
		{
			Name:        "Clannad",
			Description: []string{"A story about family"},
			URL:         "u1",
			Tags:        [][]string{{"drama", "slice of life"}},
			Record: map[string]any{
				"name":        "Clannad",
				"description": []any{"A story about family"},
				"url":         "u1",
				"tags":        []any{[]any{"drama", "slice of life"}},
				"developer":   "Key",
			},
		},
		{
			Name:        "Rance",
			Description: []string{"Action RPG"},
			URL:         "u2",
			Tags:        [][]string{{"action", "romance"}},
		},
		{
			Name:        "Comedy Club",
			Description: []string{"Laughs"},
			URL:         "u3",
			Tags:        [][]string{{"comedy"}},
		},
	})
	dispatcher, err := NewDispatcher(query.NewEngine(store), Options{Logger: zap.NewNop()})
	require.NoError(t, err)
	return dispatcher
}

func TestDispatcher_SearchVisualNovels(t *testing.T) {
	d := newTestDispatcher(t)

	result, err := d.Handle(context.Background(), "search_visual_novels", map[string]any{"query": "family"})
	require.NoError(t, err)
	require.Equal(t, domain.ToolSearchVisualNovels, result.Tool)
	require.Equal(t, []domain.SearchHit{{Name: "Clannad", URL: "u1"}}, result.Payload)
	require.False(t, result.Failed())
}

func TestDispatcher_GetVisualNovelDetails(t *testing.T) {
	d := newTestDispatcher(t)

	result, err := d.Handle(context.Background(), "get_visual_novel_details", map[string]any{"name": "clan"})
	require.NoError(t, err)
	entry, ok := result.Payload.(domain.Entry)
	require.True(t, ok)
	require.Equal(t, "Clannad", entry.Name)

	raw, err := json.Marshal(entry)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"name": "Clannad",
		"description": ["A story about family"],
		"url": "u1",
		"tags": [["drama", "slice of life"]],
		"developer": "Key"
	}`, string(raw))
}

func TestDispatcher_NotFoundIsErrorPayload(t *testing.T) {
	d := newTestDispatcher(t)

	result, err := d.Handle(context.Background(), "get_visual_novel_details", map[string]any{"name": "Nonexistent"})
	require.NoError(t, err)
	require.True(t, result.Failed())
	require.Equal(t, domain.ErrorPayload{Error: domain.ErrEntryNotFound.Error()}, result.Payload)
}

func TestDispatcher_SearchByTags(t *testing.T) {
	d := newTestDispatcher(t)

	result, err := d.Handle(context.Background(), "search_visual_novels_by_tags", map[string]any{"tags": []string{"ROM"}})
	require.NoError(t, err)
	require.Equal(t, []domain.TagHit{{Name: "Rance", URL: "u2", MatchedTags: []string{"rom"}}}, result.Payload)
}

func TestDispatcher_EmptyTagsIsErrorPayload(t *testing.T) {
	d := newTestDispatcher(t)

	cases := []struct {
		name string
		args map[string]any
	}{
		{name: "empty list", args: map[string]any{"tags": []any{}}},
		{name: "absent", args: map[string]any{}},
		{name: "nil args", args: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := d.Handle(context.Background(), "search_visual_novels_by_tags", tc.args)
			require.NoError(t, err)
			require.Equal(t, domain.ErrorPayload{Error: domain.ErrEmptyTags.Error()}, result.Payload)
		})
	}
}

func TestDispatcher_UnknownTool(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Handle(context.Background(), "delete_everything", map[string]any{})
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrToolNotFound)

	stage, ok := domain.DispatchStageFrom(err)
	require.True(t, ok)
	require.Equal(t, domain.DispatchStageResolve, stage)

	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	require.Equal(t, domain.CodeInternal, code)

	protocolErr := domain.ProtocolErrorFrom(err)
	require.Equal(t, int64(domain.ErrCodeInternal), protocolErr.Code)
	require.Equal(t, "Tool not found", protocolErr.Message)
}

func TestDispatcher_InvalidArguments(t *testing.T) {
	d := newTestDispatcher(t)

	cases := []struct {
		name string
		tool string
		args map[string]any
	}{
		{name: "missing query", tool: "search_visual_novels", args: map[string]any{}},
		{name: "query wrong type", tool: "search_visual_novels", args: map[string]any{"query": 42}},
		{name: "missing name", tool: "get_visual_novel_details", args: map[string]any{"other": "x"}},
		{name: "tags not a list", tool: "search_visual_novels_by_tags", args: map[string]any{"tags": "drama"}},
		{name: "tag not a string", tool: "search_visual_novels_by_tags", args: map[string]any{"tags": []any{"drama", 3}}},
		{name: "sum missing operand", tool: "calculate_sum", args: map[string]any{"a": 1}},
		{name: "sum string operand", tool: "calculate_sum", args: map[string]any{"a": 1, "b": "2"}},
		{name: "encode missing", tool: "get_encode_extra_password", args: map[string]any{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.Handle(context.Background(), tc.tool, tc.args)
			require.Error(t, err)
			require.ErrorIs(t, err, domain.ErrInvalidArguments)

			code, ok := domain.CodeFrom(err)
			require.True(t, ok)
			require.Equal(t, domain.CodeInvalidArgument, code)
			require.Equal(t, int64(domain.ErrCodeInvalidParams), domain.ProtocolErrorFrom(err).Code)
			require.True(t, strings.Contains(err.Error(), tc.tool))
		})
	}
}

func TestDispatcher_TrivialTools(t *testing.T) {
	d := newTestDispatcher(t)

	sum, err := d.Handle(context.Background(), "calculate_sum", map[string]any{"a": 2, "b": 3.5})
	require.NoError(t, err)
	require.Equal(t, 5.5, sum.Payload)

	encoded, err := d.Handle(context.Background(), "get_encode_extra_password", map[string]any{"a": "hunter"})
	require.NoError(t, err)
	require.Equal(t, "hunter123", encoded.Payload)

	password, err := d.Handle(context.Background(), "get_random_password", nil)
	require.NoError(t, err)
	text, ok := password.Payload.(string)
	require.True(t, ok)
	require.Len(t, text, passwordLength)
	for _, r := range text {
		require.True(t, strings.ContainsRune(passwordAlphabet, r), "unexpected rune %q", r)
	}
}

func TestDispatcher_RandomSourceFailure(t *testing.T) {
	store := catalog.NewStore(nil)
	d, err := NewDispatcher(query.NewEngine(store), Options{Random: bytes.NewReader(nil)})
	require.NoError(t, err)

	_, err = d.Handle(context.Background(), "get_random_password", nil)
	require.Error(t, err)
	stage, ok := domain.DispatchStageFrom(err)
	require.True(t, ok)
	require.Equal(t, domain.DispatchStageCall, stage)
	require.Equal(t, int64(domain.ErrCodeInternal), domain.ProtocolErrorFrom(err).Code)
}

func TestDispatcher_CanceledContext(t *testing.T) {
	d := newTestDispatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Handle(ctx, "search_visual_novels", map[string]any{"query": "x"})
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
	code, _ := domain.CodeFrom(err)
	require.Equal(t, domain.CodeCanceled, code)
}

func TestDispatcher_ToolsAdvertised(t *testing.T) {
	d := newTestDispatcher(t)

	tools := d.Tools()
	require.Len(t, tools, len(domain.ToolNames()))
	for i, name := range domain.ToolNames() {
		require.Equal(t, name, tools[i].Name)
		require.Equal(t, "object", tools[i].InputSchema.Type)
		require.NotEmpty(t, tools[i].Description)
	}
}
