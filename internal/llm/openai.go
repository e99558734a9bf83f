package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	OpenAIDefaultBaseURL = "https://api.openai.com/v1"
	OpenAIDefaultTimeout = 120 * time.Second
)

// OpenAIClient talks to any OpenAI-compatible chat-completion endpoint
// (OpenAI, Deepseek, and most hosted gateways share this wire shape).
type OpenAIClient struct {
	config     ClientConfig
	provider   Provider
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAIClient builds a transport for an OpenAI-compatible endpoint.
func NewOpenAIClient(config ClientConfig) *OpenAIClient {
	return newCompatClient(config, ProviderOpenAI)
}

// NewDeepseekClient builds a transport tagged as the Deepseek provider.
// Deepseek serves the OpenAI wire format on its own base URL.
func NewDeepseekClient(config ClientConfig) *OpenAIClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.deepseek.com/v1"
	}
	return newCompatClient(config, ProviderDeepseek)
}

func newCompatClient(config ClientConfig, provider Provider) *OpenAIClient {
	timeout := config.HTTPTimeout
	if timeout == 0 {
		timeout = OpenAIDefaultTimeout
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = OpenAIDefaultBaseURL
	}
	if config.Retry.MaxAttempts == 0 {
		config.Retry = DefaultRetryPolicy()
	}

	return &OpenAIClient{
		config: ClientConfig{
			APIKey:      config.APIKey,
			BaseURL:     baseURL,
			HTTPTimeout: timeout,
			Retry:       config.Retry,
			Pricing:     config.Pricing,
		},
		provider:   provider,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
}

// SetLogger injects the structured logger used for per-attempt events.
func (c *OpenAIClient) SetLogger(logger *zap.Logger) {
	c.logger = logger
}

func (c *OpenAIClient) Provider() Provider {
	return c.provider
}

func (c *OpenAIClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Tools       []openAITool    `json:"tools,omitempty"`
	ToolChoice  string          `json:"tool_choice,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolID    string           `json:"tool_call_id,omitempty"`
	ToolCalls []openAIToolCall `json:"tool_calls,omitempty"`
}

type openAIToolCall struct {
	ID       string             `json:"id,omitempty"`
	Type     string             `json:"type"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAITool struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

type openAIResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []openAIChoice `json:"choices"`
	Usage   openAIUsage    `json:"usage"`
}

type openAIChoice struct {
	Index        int           `json:"index"`
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openAIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Complete sends one chat completion, retrying retryable failures per the
// configured policy. Each attempt emits one observability event.
func (c *OpenAIClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	var resp *CompletionResponse
	attempt := 0
	err := c.config.Retry.Do(ctx, func() error {
		attempt++
		startTime := time.Now()
		var attemptErr error
		resp, attemptErr = c.complete(ctx, req)

		fields := []zap.Field{
			zap.String("provider", string(c.provider)),
			zap.String("model", req.Model),
			zap.Int("attempt", attempt),
			zap.Int64("latency_ms", time.Since(startTime).Milliseconds()),
			zap.Bool("success", attemptErr == nil),
		}
		if attemptErr != nil {
			c.logger.Warn("llm call failed", append(fields, zap.Error(attemptErr))...)
			return attemptErr
		}
		c.logger.Info("llm call", append(fields, zap.Int("tokens", resp.Usage.TotalTokens))...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *OpenAIClient) complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	startTime := time.Now()

	body, err := json.Marshal(c.convertRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, resp.Header, respBody)
	}

	var apiResp openAIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return c.convertResponse(&apiResp, time.Since(startTime).Milliseconds()), nil
}

func (c *OpenAIClient) convertRequest(req *CompletionRequest) *openAIRequest {
	messages := make([]openAIMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openAIMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
			ToolID:  msg.ToolID,
		}
		for _, tc := range msg.ToolCalls {
			messages[i].ToolCalls = append(messages[i].ToolCalls, openAIToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: openAIFunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
	}

	out := &openAIRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	if len(req.Tools) > 0 {
		out.Tools = make([]openAITool, len(req.Tools))
		for i, tool := range req.Tools {
			out.Tools[i] = openAITool{Type: tool.Type, Function: tool.Function}
		}
		out.ToolChoice = "auto"
	}

	return out
}

func (c *OpenAIClient) convertResponse(resp *openAIResponse, latencyMs int64) *CompletionResponse {
	usage := UsageMetrics{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}

	out := &CompletionResponse{
		ID:        resp.ID,
		Model:     resp.Model,
		Provider:  c.provider,
		Created:   time.Unix(resp.Created, 0),
		Usage:     usage,
		Cost:      c.calculateCost(usage),
		LatencyMs: latencyMs,
	}

	if len(resp.Choices) == 0 {
		return out
	}

	choice := resp.Choices[0]
	out.Message = Message{
		Role:    Role(choice.Message.Role),
		Content: choice.Message.Content,
	}
	out.FinishReason = choice.FinishReason

	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}

	return out
}

func (c *OpenAIClient) calculateCost(usage UsageMetrics) CostMetrics {
	if c.config.Pricing == nil {
		return CostMetrics{}
	}

	million := decimal.NewFromInt(1000000)
	inputCost := decimal.NewFromInt(int64(usage.InputTokens)).Div(million).Mul(c.config.Pricing.InputCost)
	outputCost := decimal.NewFromInt(int64(usage.OutputTokens)).Div(million).Mul(c.config.Pricing.OutputCost)

	return CostMetrics{
		InputCost:  inputCost,
		OutputCost: outputCost,
		TotalCost:  inputCost.Add(outputCost),
	}
}

func (c *OpenAIClient) handleErrorResponse(statusCode int, header http.Header, body []byte) error {
	var apiErr openAIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		if statusCode >= http.StatusInternalServerError {
			return ErrServerError{Provider: c.provider, StatusCode: statusCode, Message: string(body)}
		}
		return fmt.Errorf("%s API error (status %d): %s", c.provider, statusCode, string(body))
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		retryAfter := 30 * time.Second
		if secs, err := strconv.Atoi(header.Get("Retry-After")); err == nil && secs > 0 {
			retryAfter = time.Duration(secs) * time.Second
		}
		return ErrRateLimited{Provider: c.provider, RetryAfter: retryAfter}
	case statusCode >= http.StatusInternalServerError:
		return ErrServerError{Provider: c.provider, StatusCode: statusCode, Message: apiErr.Error.Message}
	case statusCode == http.StatusBadRequest && apiErr.Error.Code == "context_length_exceeded":
		return ErrContextLengthExceeded{Provider: c.provider}
	case statusCode == http.StatusForbidden && apiErr.Error.Type == "content_filter":
		return ErrContentFiltered{Provider: c.provider, Reason: apiErr.Error.Message}
	}

	return fmt.Errorf("%s API error: %s (type: %s, code: %s)", c.provider, apiErr.Error.Message, apiErr.Error.Type, apiErr.Error.Code)
}
