// Package testutil provides a scripted chat-completion client for agent
// and pipeline tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/irfndi/tradecouncil/internal/llm"
)

// ScriptedClient implements llm.Client by replaying a fixed sequence of
// responses (or errors). Safe for concurrent use; requests are recorded
// for assertions.
type ScriptedClient struct {
	mu        sync.Mutex
	steps     []step
	next      int
	requests  []*llm.CompletionRequest
	provider  llm.Provider
	repeatEnd bool
}

type step struct {
	resp *llm.CompletionResponse
	err  error
}

// NewScriptedClient builds an empty scripted client.
func NewScriptedClient() *ScriptedClient {
	return &ScriptedClient{provider: llm.ProviderOpenAI}
}

// QueueText enqueues a plain-text assistant reply.
func (c *ScriptedClient) QueueText(content string) *ScriptedClient {
	return c.queue(&llm.CompletionResponse{
		Model:        "scripted",
		Provider:     c.provider,
		Message:      llm.Message{Role: llm.RoleAssistant, Content: content},
		FinishReason: "stop",
	}, nil)
}

// QueueToolCall enqueues a response carrying one tool call with the
// given arguments (JSON-encoded).
func (c *ScriptedClient) QueueToolCall(tool string, args map[string]interface{}) *ScriptedClient {
	encoded, err := json.Marshal(args)
	if err != nil {
		panic(fmt.Sprintf("testutil: encode args for %s: %v", tool, err))
	}
	call := llm.ToolCall{
		ID:        fmt.Sprintf("call_%d", len(c.steps)+1),
		Name:      tool,
		Arguments: encoded,
	}
	return c.queue(&llm.CompletionResponse{
		Model:        "scripted",
		Provider:     c.provider,
		Message:      llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{call}},
		ToolCalls:    []llm.ToolCall{call},
		FinishReason: "tool_calls",
	}, nil)
}

// QueueToolCalls enqueues one response carrying several tool calls, in
// the given order.
func (c *ScriptedClient) QueueToolCalls(calls ...llm.ToolCall) *ScriptedClient {
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = fmt.Sprintf("call_%d_%d", len(c.steps)+1, i+1)
		}
	}
	return c.queue(&llm.CompletionResponse{
		Model:        "scripted",
		Provider:     c.provider,
		Message:      llm.Message{Role: llm.RoleAssistant, ToolCalls: calls},
		ToolCalls:    calls,
		FinishReason: "tool_calls",
	}, nil)
}

// ToolCallWith builds a tool call with JSON-encoded arguments, for
// QueueToolCalls.
func ToolCallWith(tool string, args map[string]interface{}) llm.ToolCall {
	encoded, err := json.Marshal(args)
	if err != nil {
		panic(fmt.Sprintf("testutil: encode args for %s: %v", tool, err))
	}
	return llm.ToolCall{Name: tool, Arguments: encoded}
}

// QueueRawToolCall enqueues a tool call with a verbatim argument string,
// for malformed-argument scenarios.
func (c *ScriptedClient) QueueRawToolCall(tool, rawArgs string) *ScriptedClient {
	call := llm.ToolCall{
		ID:        fmt.Sprintf("call_%d", len(c.steps)+1),
		Name:      tool,
		Arguments: json.RawMessage(rawArgs),
	}
	return c.queue(&llm.CompletionResponse{
		Model:        "scripted",
		Provider:     c.provider,
		Message:      llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{call}},
		ToolCalls:    []llm.ToolCall{call},
		FinishReason: "tool_calls",
	}, nil)
}

// QueueError enqueues a transport failure.
func (c *ScriptedClient) QueueError(err error) *ScriptedClient {
	return c.queue(nil, err)
}

// RepeatLast keeps replaying the final step once the script runs out,
// instead of failing. Useful when call counts vary across agents.
func (c *ScriptedClient) RepeatLast() *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repeatEnd = true
	return c
}

func (c *ScriptedClient) queue(resp *llm.CompletionResponse, err error) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, step{resp: resp, err: err})
	return c
}

// Complete replays the next scripted step.
func (c *ScriptedClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)

	if c.next >= len(c.steps) {
		if c.repeatEnd && len(c.steps) > 0 {
			s := c.steps[len(c.steps)-1]
			return s.resp, s.err
		}
		return nil, fmt.Errorf("scripted client exhausted after %d calls", len(c.steps))
	}
	s := c.steps[c.next]
	c.next++
	return s.resp, s.err
}

// Provider returns the scripted backend family.
func (c *ScriptedClient) Provider() llm.Provider { return c.provider }

// Close is a no-op.
func (c *ScriptedClient) Close() error { return nil }

// Requests returns the recorded completion requests in call order.
func (c *ScriptedClient) Requests() []*llm.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*llm.CompletionRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// Calls returns how many completions were served.
func (c *ScriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}
