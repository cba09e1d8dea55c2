package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"vnmcp/internal/domain"
	"vnmcp/internal/infra/dispatch"
	"vnmcp/internal/infra/telemetry"
)

const (
	methodCallTool = "tools/call"
	resultKey      = "toolResult"
)

// Gateway exposes the dispatcher's tools as an MCP server.
type Gateway struct {
	dispatcher domain.ToolDispatcher
	logger     *zap.Logger
	server     *mcp.Server
	registry   *toolRegistry
	transport  domain.TransportKind
	catalog    string
}

func NewGateway(dispatcher domain.ToolDispatcher, tools []dispatch.Tool, info domain.ServerInfo, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if info.Name == "" {
		info.Name = domain.DefaultServerName
	}
	if info.Version == "" {
		info.Version = domain.DefaultServerVersion
	}
	g := &Gateway{
		dispatcher: dispatcher,
		logger:     logger.Named("gateway"),
		transport:  domain.TransportStdio,
	}
	g.server = mcp.NewServer(&mcp.Implementation{
		Name:    info.Name,
		Version: info.Version,
	}, &mcp.ServerOptions{
		HasTools: true,
	})
	g.server.AddReceivingMiddleware(g.unknownToolMiddleware())
	g.registry = newToolRegistry(g.server, g.toolHandler, g.logger)
	g.registry.Register(tools)
	return g
}

// SetCatalog records the fingerprint of the catalog behind the tools so call
// logs can name it.
func (g *Gateway) SetCatalog(fingerprint string) {
	g.catalog = fingerprint
}

// Server returns the underlying MCP server.
func (g *Gateway) Server() *mcp.Server {
	return g.server
}

// Run serves MCP over stdin/stdout until ctx is canceled or the peer disconnects.
func (g *Gateway) Run(ctx context.Context) error {
	g.transport = domain.TransportStdio
	g.logger.Info("gateway starting (stdio transport)",
		telemetry.EventField(telemetry.EventServeStart),
		zap.Strings("tools", g.registry.Names()),
	)
	err := g.server.Run(ctx, &mcp.StdioTransport{})
	g.logger.Info("gateway stopped", telemetry.EventField(telemetry.EventServeStop))
	return err
}

// unknownToolMiddleware answers calls to unadvertised tools with an internal
// error instead of the SDK's invalid-params response.
func (g *Gateway) unknownToolMiddleware() mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodCallTool {
				return next(ctx, method, req)
			}
			call, ok := req.(*mcp.CallToolRequest)
			if !ok || call.Params == nil {
				return next(ctx, method, req)
			}
			if _, known := domain.ParseToolName(call.Params.Name); known {
				return next(ctx, method, req)
			}
			ctx = g.callContext(ctx, domain.ToolName(call.Params.Name), call)
			_, err := g.dispatcher.Handle(ctx, call.Params.Name, nil)
			if err == nil {
				err = domain.E(domain.CodeInternal, "gateway.callTool", domain.ToolNotFoundMessage, domain.ErrToolNotFound)
			}
			return nil, wireError(err)
		}
	}
}

func (g *Gateway) toolHandler(name domain.ToolName) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := decodeArguments(req.Params.Arguments)
		if err != nil {
			return nil, &jsonrpc.Error{
				Code:    domain.ErrCodeInvalidParams,
				Message: fmt.Sprintf("invalid arguments for %s: %v", name, err),
			}
		}
		ctx = g.callContext(ctx, name, req)
		result, err := g.dispatcher.Handle(ctx, string(name), args)
		if err != nil {
			return nil, wireError(err)
		}
		return buildCallToolResult(result)
	}
}

// callContext tags ctx with the call's metadata. Streamable HTTP callers may
// pick the request ID through the X-Request-Id header.
func (g *Gateway) callContext(ctx context.Context, name domain.ToolName, req *mcp.CallToolRequest) context.Context {
	call := telemetry.ToolCall{
		Tool:      string(name),
		Transport: string(g.transport),
		Catalog:   g.catalog,
	}
	if req != nil && req.Session != nil {
		call.SessionID = req.Session.ID()
	}
	if req != nil && req.Extra != nil && req.Extra.Header != nil {
		call.RequestID = req.Extra.Header.Get(telemetry.RequestIDHeader)
	}
	ctx, _ = telemetry.StartToolCall(ctx, call)
	return domain.WithCallContext(ctx, domain.CallContext{
		Transport: g.transport,
		SessionID: call.SessionID,
	})
}

func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, errors.New("arguments must be a JSON object")
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// buildCallToolResult renders the payload as a JSON text block and mirrors it
// under the toolResult key of the structured content.
func buildCallToolResult(result domain.ToolResult) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(result.Payload)
	if err != nil {
		return nil, wireError(domain.E(domain.CodeInternal, "gateway.buildCallToolResult", "encode tool result", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		StructuredContent: map[string]json.RawMessage{
			resultKey: payload,
		},
	}, nil
}

func wireError(err error) error {
	protocolErr := domain.ProtocolErrorFrom(err)
	if protocolErr == nil {
		return nil
	}
	return &jsonrpc.Error{
		Code:    protocolErr.Code,
		Message: protocolErr.Message,
		Data:    protocolErr.Data,
	}
}
