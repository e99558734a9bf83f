// Package convo records every LLM exchange an agent makes and renders the
// sealed conversation as a markdown call chain for the audit tree.
package convo

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/irfndi/tradecouncil/internal/artifact"
	"github.com/irfndi/tradecouncil/internal/llm"
	"github.com/irfndi/tradecouncil/internal/session"
	"github.com/irfndi/tradecouncil/internal/tools"
)

// Metadata captures the transport facts of one recorded call.
type Metadata struct {
	Model     string
	Provider  llm.Provider
	Tokens    llm.UsageMetrics
	Cost      llm.CostMetrics
	Latency   time.Duration
	Timestamp time.Time
}

// ToolResult is one executed tool invocation attached to a turn.
type ToolResult struct {
	Tool   string
	CallID string
	Result string
}

// Turn is one request/response exchange plus the tool executions it
// triggered.
type Turn struct {
	Messages    []llm.Message
	Response    *llm.CompletionResponse
	Meta        Metadata
	ToolResults []ToolResult
}

// Recorder accumulates an agent's turns for the current task and writes
// the sealed chain through the artifact writer. One recorder per agent;
// agents run their tool-call loops sequentially, so no locking.
type Recorder struct {
	agentName      string
	conversationID string
	turns          []Turn
	sessions       *session.Manager
	writer         *artifact.Writer
	logger         *zap.Logger
}

// NewRecorder builds a recorder for one agent. Writer may be nil to
// disable persistence (used by tests).
func NewRecorder(agentName string, sessions *session.Manager, writer *artifact.Writer, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		agentName:      agentName,
		conversationID: uuid.NewString()[:8],
		sessions:       sessions,
		writer:         writer,
		logger:         logger,
	}
}

// ConversationID returns the short id stamped on the chain header.
func (r *Recorder) ConversationID() string {
	return r.conversationID
}

// RecordCall appends one exchange. Messages is the exact request
// transcript sent upstream for this turn.
func (r *Recorder) RecordCall(messages []llm.Message, response *llm.CompletionResponse, meta Metadata) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	snapshot := make([]llm.Message, len(messages))
	copy(snapshot, messages)
	r.turns = append(r.turns, Turn{Messages: snapshot, Response: response, Meta: meta})
}

// AttachToolResults attaches executed tool results to the most recent
// turn. No-op when nothing has been recorded yet.
func (r *Recorder) AttachToolResults(results []ToolResult) {
	if len(r.turns) == 0 {
		return
	}
	last := &r.turns[len(r.turns)-1]
	last.ToolResults = append(last.ToolResults, results...)
}

// Turns returns the recorded exchanges.
func (r *Recorder) Turns() []Turn {
	return r.turns
}

// EmitChain seals the recorded conversation into a markdown document,
// writes it under the next (date, symbol) sequence slot, and resets the
// recorder for the agent's next task.
func (r *Recorder) EmitChain(symbol string, finalResult interface{}, success bool) error {
	defer r.Reset()

	if r.writer == nil || r.sessions == nil || len(r.turns) == 0 {
		return nil
	}

	seq := r.sessions.NextCallSeq(symbol)
	doc := r.render(symbol, seq, finalResult, success)

	if err := r.writer.WriteCallChain(symbol, r.agentName, seq, doc); err != nil {
		r.logger.Warn("call chain write failed",
			zap.String("agent", r.agentName),
			zap.String("symbol", symbol),
			zap.Error(err))
		return err
	}
	return nil
}

// Reset clears recorded turns and rotates the conversation id.
func (r *Recorder) Reset() {
	r.turns = nil
	r.conversationID = uuid.NewString()[:8]
}

func (r *Recorder) render(symbol string, seq int, finalResult interface{}, success bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Call Chain %02d - %s\n\n", seq, r.agentName)
	fmt.Fprintf(&b, "- **Conversation**: %s\n", r.conversationID)
	fmt.Fprintf(&b, "- **Symbol**: %s\n", symbol)
	fmt.Fprintf(&b, "- **Calls**: %d\n", len(r.turns))
	fmt.Fprintf(&b, "- **Success**: %t\n", success)

	var totalTokens int
	var totalLatency time.Duration
	for _, t := range r.turns {
		totalTokens += t.Meta.Tokens.TotalTokens
		totalLatency += t.Meta.Latency
	}
	fmt.Fprintf(&b, "- **Total tokens**: %d\n", totalTokens)
	fmt.Fprintf(&b, "- **Total latency**: %s\n\n", totalLatency)

	for i, t := range r.turns {
		fmt.Fprintf(&b, "## Call %d - %s / %s\n\n", i+1, t.Meta.Provider, t.Meta.Model)
		fmt.Fprintf(&b, "_%s, %d tokens, %s_\n\n",
			t.Meta.Timestamp.Format(time.RFC3339), t.Meta.Tokens.TotalTokens, t.Meta.Latency)

		for _, msg := range t.Messages {
			renderMessage(&b, msg)
		}
		if t.Response != nil {
			b.WriteString("### Response\n\n")
			if t.Response.Message.Content != "" {
				b.WriteString(t.Response.Message.Content)
				b.WriteString("\n\n")
			}
			for _, call := range t.Response.ToolCalls {
				fmt.Fprintf(&b, "→ tool call `%s` (%s): `%s`\n\n", call.Name, call.ID, string(call.Arguments))
			}
		}
		for _, tr := range t.ToolResults {
			fmt.Fprintf(&b, "### Tool Result `%s`\n\n%s\n\n", tr.Tool, tr.Result)
		}
	}

	if finalResult != nil {
		b.WriteString("## Final Result\n\n```json\n")
		b.WriteString(tools.Stringify(finalResult))
		b.WriteString("\n```\n")
	}

	return b.String()
}

func renderMessage(b *strings.Builder, msg llm.Message) {
	switch msg.Role {
	case llm.RoleSystem:
		fmt.Fprintf(b, "### System\n\n%s\n\n", msg.Content)
	case llm.RoleUser:
		fmt.Fprintf(b, "### User\n\n%s\n\n", msg.Content)
	case llm.RoleTool:
		// Tool transcript messages are rendered with their results.
	case llm.RoleAssistant:
		if msg.Content != "" && len(msg.ToolCalls) == 0 {
			fmt.Fprintf(b, "### Assistant\n\n%s\n\n", msg.Content)
		}
	}
}
