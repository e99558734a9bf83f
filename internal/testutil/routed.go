package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/irfndi/tradecouncil/internal/llm"
)

// RoutedClient implements llm.Client by answering according to the tool
// schemas advertised in each request: when a request carries a tool the
// client has a routed answer for, it replies with that tool call;
// otherwise it replies with fixed text. This keeps multi-agent pipeline
// tests deterministic under parallel fan-out, where a positional script
// would interleave.
type RoutedClient struct {
	mu       sync.Mutex
	answers  map[string]routedAnswer
	fallback string
	failures map[string]error
	calls    int
}

type routedAnswer struct {
	args map[string]interface{}
}

// NewRoutedClient builds a routed client with a default plain-text reply.
func NewRoutedClient(fallbackText string) *RoutedClient {
	return &RoutedClient{
		answers:  make(map[string]routedAnswer),
		failures: make(map[string]error),
		fallback: fallbackText,
	}
}

// Answer routes requests advertising the tool to a call of that tool
// with the given arguments.
func (c *RoutedClient) Answer(tool string, args map[string]interface{}) *RoutedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answers[tool] = routedAnswer{args: args}
	return c
}

// Fail makes requests advertising the tool fail with err, simulating a
// transport failure for just that agent.
func (c *RoutedClient) Fail(tool string, err error) *RoutedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[tool] = err
	return c
}

// Complete answers by routing on the advertised tools.
func (c *RoutedClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++

	for _, def := range req.Tools {
		if err, ok := c.failures[def.Function.Name]; ok {
			return nil, err
		}
	}
	for _, def := range req.Tools {
		answer, ok := c.answers[def.Function.Name]
		if !ok {
			continue
		}
		encoded, err := json.Marshal(answer.args)
		if err != nil {
			return nil, fmt.Errorf("testutil: encode routed args: %v", err)
		}
		call := llm.ToolCall{
			ID:        fmt.Sprintf("call_%d", c.calls),
			Name:      def.Function.Name,
			Arguments: encoded,
		}
		return &llm.CompletionResponse{
			Model:        "routed",
			Provider:     llm.ProviderOpenAI,
			Message:      llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{call}},
			ToolCalls:    []llm.ToolCall{call},
			FinishReason: "tool_calls",
		}, nil
	}

	return &llm.CompletionResponse{
		Model:        "routed",
		Provider:     llm.ProviderOpenAI,
		Message:      llm.Message{Role: llm.RoleAssistant, Content: c.fallback},
		FinishReason: "stop",
	}, nil
}

// Provider returns the routed backend family.
func (c *RoutedClient) Provider() llm.Provider { return llm.ProviderOpenAI }

// Close is a no-op.
func (c *RoutedClient) Close() error { return nil }

// Calls returns how many completions were served.
func (c *RoutedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
