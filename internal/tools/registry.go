// Package tools implements the tool registry the agents expose to the
// model: schema generation from declared parameters, dispatch by name,
// and the result-emitter tools that carry structured agent output.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/irfndi/tradecouncil/internal/llm"
)

// ParamType is a JSON-schema scalar or array tag.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)

// Param declares one tool parameter. Parameters without a default are
// required. Array parameters name their element type in Items; non-scalar
// element types fall back to string.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Items       ParamType
	Default     interface{}
}

// Handler executes a tool against the decoded argument mapping.
type Handler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Tool is one registered tool.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// ErrUnknownTool reports dispatch to an unregistered name.
type ErrUnknownTool struct {
	Name string
}

func (e ErrUnknownTool) Error() string {
	return "unknown tool: " + e.Name
}

// Registry holds the tools one agent advertises. Read-only after
// construction; safe for concurrent schema reads and dispatch.
type Registry struct {
	mu     sync.RWMutex
	logger *zap.Logger
	tools  map[string]*Tool
	order  []string
}

// NewRegistry builds an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger: logger,
		tools:  make(map[string]*Tool),
	}
}

// Register adds a tool. Re-registering a name replaces the tool; the
// generated schema is deterministic for identical declarations.
func (r *Registry) Register(name, description string, params []Param, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = &Tool{
		Name:        name,
		Description: description,
		Params:      params,
		Handler:     handler,
	}
	r.logger.Debug("registered tool", zap.String("tool", name), zap.Int("params", len(params)))
}

// Has reports whether a tool name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Definitions generates the tool schemas advertised to the model, in
// registration order.
func (r *Registry) Definitions() []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Definition generates the JSON-schema advertisement for one tool.
func (t *Tool) Definition() llm.ToolDefinition {
	properties := make(map[string]interface{}, len(t.Params))
	required := make([]string, 0, len(t.Params))

	for _, p := range t.Params {
		prop := map[string]interface{}{
			"type": string(schemaType(p.Type)),
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Type == TypeArray {
			prop["items"] = map[string]interface{}{"type": string(itemType(p.Items))}
		}
		properties[p.Name] = prop
		if p.Default == nil {
			required = append(required, p.Name)
		}
	}

	return llm.ToolDefinition{
		Type: "function",
		Function: llm.FunctionDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		},
	}
}

func schemaType(t ParamType) ParamType {
	switch t {
	case TypeInteger, TypeNumber, TypeBoolean, TypeArray:
		return t
	default:
		return TypeString
	}
}

// itemType maps array element types; non-scalar elements fall back to string.
func itemType(t ParamType) ParamType {
	switch t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean:
		return t
	default:
		return TypeString
	}
}

// Execute dispatches a call by name. Unknown names return ErrUnknownTool.
// Tool-internal failures are returned to the caller; the tool-call loop
// decides whether to absorb them (non-emitter tools) or fail (emitters).
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrUnknownTool{Name: name}
	}

	if args == nil {
		args = map[string]interface{}{}
	}
	for _, p := range tool.Params {
		if _, present := args[p.Name]; !present && p.Default != nil {
			args[p.Name] = p.Default
		}
	}

	result, err := tool.Handler(ctx, args)
	if err != nil {
		r.logger.Warn("tool execution failed", zap.String("tool", name), zap.Error(err))
		return nil, err
	}
	return result, nil
}

// Stringify renders a tool result for the transcript: strings pass
// through, everything else is JSON-encoded.
func Stringify(result interface{}) string {
	if s, ok := result.(string); ok {
		return s
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(encoded)
}
