// Package llm provides the chat-completion transport used by every agent.
// Responses are a tagged union: plain assistant content, or a set of
// structured tool-call requests the caller is expected to execute.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Provider identifies an LLM backend family. Opaque to the engine.
type Provider string

const (
	ProviderOpenAI   Provider = "openai"
	ProviderDeepseek Provider = "deepseek"
)

// Role is a chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one chat message. Assistant messages carrying tool calls set
// ToolCalls; tool result messages set ToolID to the originating call id.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolID    string     `json:"tool_call_id,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is one tool invocation requested by the model. Arguments is the
// raw argument string as returned upstream, typically JSON.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDefinition advertises a callable tool to the model.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes a function tool and its parameter schema.
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// CompletionRequest is one chat-completion call.
type CompletionRequest struct {
	Messages    []Message        `json:"messages"`
	Model       string           `json:"model"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
}

// CompletionResponse is the transport's tagged result. When the model
// requested tool invocations, ToolCalls is non-empty and FinishReason is
// "tool_calls"; otherwise Message.Content carries the plain reply.
type CompletionResponse struct {
	ID           string       `json:"id"`
	Model        string       `json:"model"`
	Provider     Provider     `json:"provider"`
	Created      time.Time    `json:"created"`
	Message      Message      `json:"message"`
	ToolCalls    []ToolCall   `json:"tool_calls,omitempty"`
	Usage        UsageMetrics `json:"usage"`
	Cost         CostMetrics  `json:"cost"`
	LatencyMs    int64        `json:"latency_ms"`
	FinishReason string       `json:"finish_reason"`
}

// HasToolCalls reports whether the response requests tool execution.
func (r *CompletionResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// UsageMetrics tracks token usage for one call.
type UsageMetrics struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// CostMetrics tracks per-call cost.
type CostMetrics struct {
	InputCost  decimal.Decimal `json:"input_cost"`
	OutputCost decimal.Decimal `json:"output_cost"`
	TotalCost  decimal.Decimal `json:"total_cost"`
}

// ModelPricing is the per-million-token price used for cost accounting.
type ModelPricing struct {
	InputCost  decimal.Decimal
	OutputCost decimal.Decimal
}

// ClientConfig holds transport configuration.
type ClientConfig struct {
	APIKey      string
	BaseURL     string
	HTTPTimeout time.Duration
	Retry       RetryPolicy
	Pricing     *ModelPricing // optional, for cost calculation
}

// Client is the chat-completion transport interface.
type Client interface {
	// Complete sends one completion request, retrying retryable failures
	// per the configured policy, and returns the tagged response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Provider returns the backend family.
	Provider() Provider

	// Close releases transport resources.
	Close() error
}

// Error types

// ErrProviderNotConfigured indicates a provider has no configuration.
type ErrProviderNotConfigured struct {
	Provider Provider
}

func (e ErrProviderNotConfigured) Error() string {
	return "provider not configured: " + string(e.Provider)
}

// ErrRateLimited indicates upstream rate limiting. Retryable.
type ErrRateLimited struct {
	Provider   Provider
	RetryAfter time.Duration
}

func (e ErrRateLimited) Error() string {
	return "rate limited by " + string(e.Provider) + ", retry after " + e.RetryAfter.String()
}

// ErrServerError indicates an upstream 5xx. Retryable.
type ErrServerError struct {
	Provider   Provider
	StatusCode int
	Message    string
}

func (e ErrServerError) Error() string {
	return fmt.Sprintf("%s server error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// ErrContextLengthExceeded indicates the prompt exceeded the model window.
type ErrContextLengthExceeded struct {
	Provider Provider
}

func (e ErrContextLengthExceeded) Error() string {
	return "context length exceeded on " + string(e.Provider)
}

// ErrContentFiltered indicates the provider blocked the content.
type ErrContentFiltered struct {
	Provider Provider
	Reason   string
}

func (e ErrContentFiltered) Error() string {
	return "content filtered by " + string(e.Provider) + ": " + e.Reason
}
