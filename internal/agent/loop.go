package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/irfndi/tradecouncil/internal/convo"
	"github.com/irfndi/tradecouncil/internal/llm"
	"github.com/irfndi/tradecouncil/internal/tools"
)

// ErrTerminalToolNotCalled reports a tool-call loop that exhausted its
// iteration budget without the model ever calling the agent's terminal
// emitter.
var ErrTerminalToolNotCalled = errors.New("terminal tool not called within iteration limit")

// ToolExecutionError reports a terminal-tool failure inside the loop.
// Non-terminal tool failures are absorbed into the transcript instead.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// RunUntilTool drives the tool-call loop: the model is given the agent's
// tool schemas and queried repeatedly until it calls the terminal
// emitter, whose structured result is returned. Plain-text replies are
// appended to the transcript and the loop continues; non-terminal tool
// failures are reported back to the model as tool results rather than
// failing the task.
func (a *Agent) RunUntilTool(ctx context.Context, userPrompt string) (map[string]interface{}, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: a.systemPrompt},
		{Role: llm.RoleUser, Content: userPrompt},
	}
	defs := a.registry.Definitions()

	for iteration := 0; iteration < a.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		temp := a.temperature
		resp, err := a.client.Complete(ctx, &llm.CompletionRequest{
			Messages:    messages,
			Model:       a.model,
			Tools:       defs,
			Temperature: &temp,
			MaxTokens:   a.maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("%s completion (iteration %d): %w", a.name, iteration+1, err)
		}

		a.recorder.RecordCall(messages, resp, convo.Metadata{
			Model:     resp.Model,
			Provider:  resp.Provider,
			Tokens:    resp.Usage,
			Cost:      resp.Cost,
			Latency:   time.Duration(resp.LatencyMs) * time.Millisecond,
			Timestamp: time.Now(),
		})

		if !resp.HasToolCalls() {
			// Plain text: keep it in the transcript and press on.
			messages = append(messages, llm.Message{
				Role:    llm.RoleAssistant,
				Content: resp.Message.Content,
			})
			a.logger.Debug("assistant returned text without tool call",
				zap.Int("iteration", iteration+1))
			continue
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Message.Content,
			ToolCalls: resp.ToolCalls,
		})

		// Every requested call executes in order, the terminal one
		// included, before its result ends the loop.
		var results []convo.ToolResult
		var terminalResult map[string]interface{}
		for _, call := range resp.ToolCalls {
			output, terminal, execErr := a.executeCall(ctx, call)
			if execErr != nil {
				a.recorder.AttachToolResults(results)
				return nil, execErr
			}
			if terminal != nil {
				output = tools.Stringify(terminal)
				if terminalResult == nil {
					terminalResult = terminal
				}
			}

			results = append(results, convo.ToolResult{
				Tool:   call.Name,
				CallID: call.ID,
				Result: output,
			})
			messages = append(messages, llm.Message{
				Role:    llm.RoleTool,
				Content: output,
				ToolID:  call.ID,
			})
		}
		a.recorder.AttachToolResults(results)
		if terminalResult != nil {
			return terminalResult, nil
		}
	}

	return nil, fmt.Errorf("%s: %w", a.name, ErrTerminalToolNotCalled)
}

// executeCall runs one requested tool invocation. For the terminal
// emitter the structured mapping is returned in terminal and errors
// propagate; for every other tool the textual result (or absorbed
// failure) is returned in output.
func (a *Agent) executeCall(ctx context.Context, call llm.ToolCall) (output string, terminal map[string]interface{}, err error) {
	args := decodeArgs(call.Arguments)

	result, execErr := a.registry.Execute(ctx, call.Name, args)
	if call.Name == a.terminalTool {
		if execErr != nil {
			return "", nil, &ToolExecutionError{Tool: call.Name, Err: execErr}
		}
		mapping, ok := result.(map[string]interface{})
		if !ok {
			return "", nil, &ToolExecutionError{
				Tool: call.Name,
				Err:  fmt.Errorf("unexpected result type %T", result),
			}
		}
		return "", mapping, nil
	}

	if execErr != nil {
		a.logger.Warn("tool call absorbed",
			zap.String("tool", call.Name),
			zap.Error(execErr))
		return fmt.Sprintf("tool execution failed: %v", execErr), nil, nil
	}
	return tools.Stringify(result), nil, nil
}

// decodeArgs parses the model's argument string; malformed JSON yields an
// empty mapping so declared defaults still apply.
func decodeArgs(raw json.RawMessage) map[string]interface{} {
	args := map[string]interface{}{}
	if len(raw) == 0 {
		return args
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return map[string]interface{}{}
	}
	return args
}
