// Package agent implements the LLM agents of the trading pipeline: a
// shared tool-call loop plus one specialization per role.
package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/irfndi/tradecouncil/internal/artifact"
	"github.com/irfndi/tradecouncil/internal/convo"
	"github.com/irfndi/tradecouncil/internal/llm"
	"github.com/irfndi/tradecouncil/internal/session"
	"github.com/irfndi/tradecouncil/internal/tools"
)

// DefaultMaxIterations bounds the tool-call loop when the configuration
// does not say otherwise.
const DefaultMaxIterations = 10

// Agent is the shared core every role embeds: a transport, a tool
// registry with one terminal emitter, and the recorder that captures the
// conversation for the audit tree.
type Agent struct {
	role          session.AgentRole
	name          string
	systemPrompt  string
	client        llm.Client
	model         string
	temperature   float64
	maxTokens     int
	registry      *tools.Registry
	terminalTool  string
	maxIterations int

	recorder  *convo.Recorder
	sessions  *session.Manager
	artifacts *artifact.Writer
	logger    *zap.Logger
}

// Options configures the shared agent core.
type Options struct {
	Role          session.AgentRole
	Name          string
	SystemPrompt  string
	Client        llm.Client
	Model         string
	Temperature   float64
	MaxTokens     int
	Registry      *tools.Registry
	TerminalTool  string
	MaxIterations int
	Sessions      *session.Manager
	Artifacts     *artifact.Writer
	Logger        *zap.Logger
}

// New builds the shared agent core.
func New(opts Options) *Agent {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Name == "" {
		opts.Name = string(opts.Role)
	}
	return &Agent{
		role:          opts.Role,
		name:          opts.Name,
		systemPrompt:  opts.SystemPrompt,
		client:        opts.Client,
		model:         opts.Model,
		temperature:   opts.Temperature,
		maxTokens:     opts.MaxTokens,
		registry:      opts.Registry,
		terminalTool:  opts.TerminalTool,
		maxIterations: opts.MaxIterations,
		recorder:      convo.NewRecorder(opts.Name, opts.Sessions, opts.Artifacts, opts.Logger),
		sessions:      opts.Sessions,
		artifacts:     opts.Artifacts,
		logger:        opts.Logger.With(zap.String("agent", opts.Name)),
	}
}

// Role returns the agent's pipeline role.
func (a *Agent) Role() session.AgentRole { return a.role }

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.name }

// CallLLM performs one single-turn completion without tools: system
// prompt plus one user message, plain text back.
func (a *Agent) CallLLM(ctx context.Context, userPrompt string) (string, error) {
	return a.CallLLMWith(ctx, a.client, a.model, userPrompt)
}

// CallLLMWith performs the single-turn completion over an explicit
// transport. Debate coordinators use this to route turns through a model
// pool instead of the agent's own client.
func (a *Agent) CallLLMWith(ctx context.Context, client llm.Client, model string, userPrompt string) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: a.systemPrompt},
		{Role: llm.RoleUser, Content: userPrompt},
	}

	temp := a.temperature
	resp, err := client.Complete(ctx, &llm.CompletionRequest{
		Messages:    messages,
		Model:       model,
		Temperature: &temp,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", a.name, err)
	}

	a.recorder.RecordCall(messages, resp, convo.Metadata{
		Model:     resp.Model,
		Provider:  resp.Provider,
		Tokens:    resp.Usage,
		Cost:      resp.Cost,
		Latency:   time.Duration(resp.LatencyMs) * time.Millisecond,
		Timestamp: time.Now(),
	})
	return resp.Message.Content, nil
}

// writeMarkdown appends an agent output section to the per-day transcript.
// Artifact failures are logged, never propagated.
func (a *Agent) writeMarkdown(symbol, stage, content string, meta map[string]string) {
	if a.artifacts == nil {
		return
	}
	if err := a.artifacts.AppendAgentMarkdown(symbol, a.name, stage, content, meta); err != nil {
		a.logger.Warn("markdown artifact write failed", zap.Error(err))
	}
}

// emitChain seals the recorded conversation into the call-chain tree.
// Failures are logged, never propagated.
func (a *Agent) emitChain(symbol string, finalResult interface{}, success bool) {
	if err := a.recorder.EmitChain(symbol, finalResult, success); err != nil {
		a.logger.Warn("call chain emit failed", zap.Error(err))
	}
}
