package dispatch

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"vnmcp/internal/domain"
	"vnmcp/internal/infra/telemetry"
)

const dispatchOp = "dispatch.Handle"

// Querier is the catalog query surface used by the catalog tools.
type Querier interface {
	SearchByText(query string) []domain.SearchHit
	LookupByName(name string) (domain.Entry, error)
	SearchByTags(tags []string) ([]domain.TagHit, error)
}

type Options struct {
	Logger *zap.Logger
	// Random feeds password generation; defaults to crypto/rand.
	Random io.Reader
}

// Dispatcher validates tool calls against their schemas and invokes the
// matching handler. It keeps no per-call state.
type Dispatcher struct {
	querier Querier
	tools   map[domain.ToolName]Tool
	order   []Tool
	logger  *zap.Logger
	random  io.Reader
}

func NewDispatcher(querier Querier, opts Options) (*Dispatcher, error) {
	table := toolTable()
	tools, err := resolveTools(table)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	random := opts.Random
	if random == nil {
		random = rand.Reader
	}
	return &Dispatcher{
		querier: querier,
		tools:   tools,
		order:   table,
		logger:  logger.Named("dispatch"),
		random:  random,
	}, nil
}

// Tools returns the advertised tools in a stable order.
func (d *Dispatcher) Tools() []Tool {
	out := make([]Tool, len(d.order))
	copy(out, d.order)
	return out
}

func (d *Dispatcher) Handle(ctx context.Context, name string, args map[string]any) (domain.ToolResult, error) {
	toolName, ok := domain.ParseToolName(name)
	if !ok {
		d.logger.Debug("tool not found", telemetry.ToolField(name))
		return domain.ToolResult{}, domain.NewDispatchError(domain.DispatchStageResolve,
			domain.E(domain.CodeInternal, dispatchOp, domain.ToolNotFoundMessage, domain.ErrToolNotFound))
	}
	if err := ctx.Err(); err != nil {
		return domain.ToolResult{}, domain.NewDispatchError(domain.DispatchStageResolve,
			domain.E(domain.CodeCanceled, dispatchOp, "", err))
	}

	normalized, err := d.validate(toolName, args)
	if err != nil {
		return domain.ToolResult{}, domain.NewDispatchError(domain.DispatchStageValidate, err)
	}

	payload, err := d.invoke(toolName, arguments(normalized))
	if err != nil {
		return domain.ToolResult{}, domain.NewDispatchError(domain.DispatchStageCall,
			domain.Wrap(domain.CodeInternal, dispatchOp, err))
	}
	return domain.ToolResult{Tool: toolName, Payload: payload}, nil
}

func (d *Dispatcher) invoke(tool domain.ToolName, args arguments) (any, error) {
	switch tool {
	case domain.ToolSearchVisualNovels:
		return d.querier.SearchByText(args.text("query")), nil
	case domain.ToolGetVisualNovelDetails:
		entry, err := d.querier.LookupByName(args.text("name"))
		if err != nil {
			return missPayload(err)
		}
		return entry, nil
	case domain.ToolSearchVisualNovelsByTags:
		hits, err := d.querier.SearchByTags(args.list("tags"))
		if err != nil {
			return missPayload(err)
		}
		return hits, nil
	case domain.ToolCalculateSum:
		return args.number("a") + args.number("b"), nil
	case domain.ToolGetRandomPassword:
		return randomPassword(d.random)
	case domain.ToolGetEncodeExtraPassword:
		return encodeExtraPassword(args.text("a")), nil
	default:
		return nil, fmt.Errorf("no handler for tool %s", tool)
	}
}

// missPayload turns catalog misses into error-shaped results.
func missPayload(err error) (any, error) {
	if errors.Is(err, domain.ErrEntryNotFound) || errors.Is(err, domain.ErrEmptyTags) {
		return domain.ErrorPayload{Error: err.Error()}, nil
	}
	return nil, err
}

func (d *Dispatcher) validate(tool domain.ToolName, args map[string]any) (map[string]any, error) {
	normalized, err := normalizeArguments(args)
	if err != nil {
		return nil, domain.E(domain.CodeInvalidArgument, dispatchOp,
			fmt.Sprintf("invalid arguments for %s: %v", tool, err), domain.ErrInvalidArguments)
	}
	spec := d.tools[tool]
	if err := spec.resolved.Validate(normalized); err != nil {
		return nil, domain.E(domain.CodeInvalidArgument, dispatchOp,
			fmt.Sprintf("invalid arguments for %s: %v", tool, err), domain.ErrInvalidArguments)
	}
	return normalized, nil
}

// normalizeArguments re-encodes caller arguments so validation and
// extraction only ever see JSON-decoded values.
func normalizeArguments(args map[string]any) (map[string]any, error) {
	if len(args) == 0 {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// arguments reads values that already passed schema validation.
type arguments map[string]any

func (a arguments) text(key string) string {
	value, _ := a[key].(string)
	return value
}

func (a arguments) number(key string) float64 {
	value, _ := a[key].(float64)
	return value
}

func (a arguments) list(key string) []string {
	raw, _ := a[key].([]any)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if text, ok := item.(string); ok {
			out = append(out, text)
		}
	}
	return out
}
