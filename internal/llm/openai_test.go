package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionBody(t *testing.T, content string, toolCalls []openAIToolCall) []byte {
	t.Helper()
	finish := "stop"
	if len(toolCalls) > 0 {
		finish = "tool_calls"
	}
	body, err := json.Marshal(openAIResponse{
		ID:      "chatcmpl-test",
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   "gpt-4o",
		Choices: []openAIChoice{{
			Message:      openAIMessage{Role: "assistant", Content: content, ToolCalls: toolCalls},
			FinishReason: finish,
		}},
		Usage: openAIUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	})
	require.NoError(t, err)
	return body
}

func testClient(serverURL string) *OpenAIClient {
	return NewOpenAIClient(ClientConfig{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Retry:   RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
	})
}

func TestCompletePlainText(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/chat/completions", r.URL.Path)
		_, _ = w.Write(completionBody(t, "hello there", nil))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	resp, err := client.Complete(context.Background(), &CompletionRequest{
		Model:    "gpt-4o",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "hello there", resp.Message.Content)
	assert.False(t, resp.HasToolCalls())
	assert.Equal(t, 150, resp.Usage.TotalTokens)
	assert.Equal(t, ProviderOpenAI, resp.Provider)
}

func TestCompleteToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "auto", req.ToolChoice)
		require.Len(t, req.Tools, 1)

		_, _ = w.Write(completionBody(t, "", []openAIToolCall{{
			ID:   "call_1",
			Type: "function",
			Function: openAIFunctionCall{
				Name:      "emit_result",
				Arguments: `{"score": 0.7}`,
			},
		}}))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	resp, err := client.Complete(context.Background(), &CompletionRequest{
		Model:    "gpt-4o",
		Messages: []Message{{Role: RoleUser, Content: "go"}},
		Tools: []ToolDefinition{{
			Type:     "function",
			Function: FunctionDefinition{Name: "emit_result", Parameters: map[string]interface{}{"type": "object"}},
		}},
	})
	require.NoError(t, err)

	require.True(t, resp.HasToolCalls())
	assert.Equal(t, "emit_result", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"score": 0.7}`, string(resp.ToolCalls[0].Arguments))
	assert.Equal(t, "tool_calls", resp.FinishReason)
}

func TestCompleteRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit_error"}}`))
			return
		}
		_, _ = w.Write(completionBody(t, "recovered", nil))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	resp, err := client.Complete(context.Background(), &CompletionRequest{
		Model:    "gpt-4o",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Message.Content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHandleErrorResponseMapping(t *testing.T) {
	client := NewOpenAIClient(ClientConfig{APIKey: "k"})

	err := client.handleErrorResponse(http.StatusTooManyRequests,
		http.Header{"Retry-After": []string{"7"}},
		[]byte(`{"error": {"message": "slow down"}}`))
	var rl ErrRateLimited
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 7*time.Second, rl.RetryAfter)

	err = client.handleErrorResponse(http.StatusBadGateway, http.Header{},
		[]byte(`{"error": {"message": "upstream"}}`))
	var srvErr ErrServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, http.StatusBadGateway, srvErr.StatusCode)

	err = client.handleErrorResponse(http.StatusBadRequest, http.Header{},
		[]byte(`{"error": {"message": "too long", "code": "context_length_exceeded"}}`))
	var ctxErr ErrContextLengthExceeded
	assert.ErrorAs(t, err, &ctxErr)

	err = client.handleErrorResponse(http.StatusForbidden, http.Header{},
		[]byte(`{"error": {"message": "blocked", "type": "content_filter"}}`))
	var filtered ErrContentFiltered
	assert.ErrorAs(t, err, &filtered)
}

func TestCalculateCostPerMillionTokens(t *testing.T) {
	client := NewOpenAIClient(ClientConfig{
		APIKey: "k",
		Pricing: &ModelPricing{
			InputCost:  decimal.NewFromFloat(2.50),
			OutputCost: decimal.NewFromFloat(10.00),
		},
	})

	cost := client.calculateCost(UsageMetrics{InputTokens: 1_000_000, OutputTokens: 500_000})
	assert.True(t, cost.InputCost.Equal(decimal.NewFromFloat(2.50)), "input cost %s", cost.InputCost)
	assert.True(t, cost.OutputCost.Equal(decimal.NewFromFloat(5.00)), "output cost %s", cost.OutputCost)
	assert.True(t, cost.TotalCost.Equal(decimal.NewFromFloat(7.50)), "total cost %s", cost.TotalCost)
}

func TestDeepseekClientDefaults(t *testing.T) {
	client := NewDeepseekClient(ClientConfig{APIKey: "k"})
	assert.Equal(t, ProviderDeepseek, client.Provider())
	assert.Equal(t, "https://api.deepseek.com/v1", client.config.BaseURL)
}
