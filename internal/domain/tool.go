package domain

import "context"

// ToolName enumerates the operations the dispatcher can route to.
type ToolName string

const (
	ToolSearchVisualNovels       ToolName = "search_visual_novels"
	ToolGetVisualNovelDetails    ToolName = "get_visual_novel_details"
	ToolSearchVisualNovelsByTags ToolName = "search_visual_novels_by_tags"
	ToolCalculateSum             ToolName = "calculate_sum"
	ToolGetRandomPassword        ToolName = "get_random_password"
	ToolGetEncodeExtraPassword   ToolName = "get_encode_extra_password"
)

var toolNames = []ToolName{
	ToolSearchVisualNovels,
	ToolGetVisualNovelDetails,
	ToolSearchVisualNovelsByTags,
	ToolCalculateSum,
	ToolGetRandomPassword,
	ToolGetEncodeExtraPassword,
}

// ToolNames returns the supported tools in advertisement order.
func ToolNames() []ToolName {
	out := make([]ToolName, len(toolNames))
	copy(out, toolNames)
	return out
}

func ParseToolName(name string) (ToolName, bool) {
	for _, tool := range toolNames {
		if string(tool) == name {
			return tool, true
		}
	}
	return "", false
}

// ToolResult is the successful outcome of a dispatch. Payload may itself be
// an ErrorPayload when a catalog lookup had nothing to return.
type ToolResult struct {
	Tool    ToolName
	Payload any
}

// Failed reports whether the payload is error-shaped.
func (r ToolResult) Failed() bool {
	switch r.Payload.(type) {
	case ErrorPayload, *ErrorPayload:
		return true
	default:
		return false
	}
}

// ResultCount returns the number of items carried by a list payload.
func (r ToolResult) ResultCount() int {
	switch payload := r.Payload.(type) {
	case []SearchHit:
		return len(payload)
	case []TagHit:
		return len(payload)
	case Entry:
		return 1
	default:
		return 0
	}
}

// ToolDispatcher routes a named tool call to its handler.
type ToolDispatcher interface {
	Handle(ctx context.Context, name string, args map[string]any) (ToolResult, error)
}
