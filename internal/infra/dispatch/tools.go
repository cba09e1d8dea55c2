package dispatch

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"vnmcp/internal/domain"
)

// Tool describes one advertised operation and its argument schema.
type Tool struct {
	Name        domain.ToolName
	Title       string
	Description string
	InputSchema *jsonschema.Schema

	resolved *jsonschema.Resolved
}

func objectSchema(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	if properties == nil {
		properties = map[string]*jsonschema.Schema{}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func stringProperty(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func numberProperty(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number", Description: description}
}

func toolTable() []Tool {
	return []Tool{
		{
			Name:        domain.ToolSearchVisualNovels,
			Title:       "Search visual novels",
			Description: "Search visual novels by a text query matched against titles and descriptions.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"query": stringProperty("Text to look for in titles and descriptions"),
			}, "query"),
		},
		{
			Name:        domain.ToolGetVisualNovelDetails,
			Title:       "Get visual novel details",
			Description: "Get the full record of a visual novel by name. Falls back to a partial name match.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"name": stringProperty("Name of the visual novel"),
			}, "name"),
		},
		{
			Name:        domain.ToolSearchVisualNovelsByTags,
			Title:       "Search visual novels by tags",
			Description: "Find visual novels whose tags contain every given tag fragment.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"tags": {
					Type:        "array",
					Description: "Tag fragments that must all be present",
					Items:       &jsonschema.Schema{Type: "string"},
				},
			}),
		},
		{
			Name:        domain.ToolCalculateSum,
			Title:       "Calculate sum",
			Description: "Add two numbers together.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"a": numberProperty("First number"),
				"b": numberProperty("Second number"),
			}, "a", "b"),
		},
		{
			Name:        domain.ToolGetRandomPassword,
			Title:       "Get random password",
			Description: "Generate a random alphanumeric password.",
			InputSchema: objectSchema(nil),
		},
		{
			Name:        domain.ToolGetEncodeExtraPassword,
			Title:       "Get encoded extra password",
			Description: "Append the extra suffix to a password.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"a": stringProperty("Password to extend"),
			}, "a"),
		},
	}
}

func resolveTools(tools []Tool) (map[domain.ToolName]Tool, error) {
	byName := make(map[domain.ToolName]Tool, len(tools))
	for _, tool := range tools {
		resolved, err := tool.InputSchema.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("resolve schema for %s: %w", tool.Name, err)
		}
		tool.resolved = resolved
		byName[tool.Name] = tool
	}
	return byName, nil
}
