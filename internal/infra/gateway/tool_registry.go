package gateway

import (
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"vnmcp/internal/domain"
	"vnmcp/internal/infra/dispatch"
)

type toolRegistry struct {
	server     *mcp.Server
	handler    func(name domain.ToolName) mcp.ToolHandler
	logger     *zap.Logger
	registered []string
}

func newToolRegistry(server *mcp.Server, handler func(name domain.ToolName) mcp.ToolHandler, logger *zap.Logger) *toolRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &toolRegistry{
		server:  server,
		handler: handler,
		logger:  logger.Named("tool_registry"),
	}
}

// Register advertises every tool with a valid object input schema.
func (r *toolRegistry) Register(tools []dispatch.Tool) {
	for _, def := range tools {
		if !isObjectSchema(def.InputSchema) {
			r.logger.Warn("skip tool with invalid input schema", zap.String("tool", string(def.Name)))
			continue
		}
		r.server.AddTool(&mcp.Tool{
			Name:        string(def.Name),
			Title:       def.Title,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, r.handler(def.Name))
		r.registered = append(r.registered, string(def.Name))
	}
	r.logger.Debug("tools registered", zap.Strings("tools", r.registered))
}

func (r *toolRegistry) Names() []string {
	return append([]string(nil), r.registered...)
}

func isObjectSchema(schema any) bool {
	if schema == nil {
		return false
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return false
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	if typ, ok := obj["type"]; ok {
		if val, ok := typ.(string); ok {
			return strings.EqualFold(val, "object")
		}
	}
	return false
}
