package convo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/tradecouncil/internal/artifact"
	"github.com/irfndi/tradecouncil/internal/llm"
	"github.com/irfndi/tradecouncil/internal/session"
)

func sampleTurn() ([]llm.Message, *llm.CompletionResponse, Metadata) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: "you are a trader"},
		{Role: llm.RoleUser, Content: "decide on AAPL"},
	}
	response := &llm.CompletionResponse{
		Message:  llm.Message{Role: llm.RoleAssistant, Content: "buying"},
		Provider: llm.ProviderOpenAI,
	}
	meta := Metadata{
		Model:    "gpt-4o",
		Provider: llm.ProviderOpenAI,
		Tokens:   llm.UsageMetrics{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
		Latency:  120 * time.Millisecond,
	}
	return messages, response, meta
}

func TestRecordCallAccumulatesTurns(t *testing.T) {
	r := NewRecorder("trader", session.NewManager(nil), nil, nil)

	messages, response, meta := sampleTurn()
	r.RecordCall(messages, response, meta)
	r.RecordCall(messages, response, meta)

	turns := r.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "decide on AAPL", turns[0].Messages[1].Content)
	assert.False(t, turns[0].Meta.Timestamp.IsZero())
}

func TestRecordCallSnapshotsMessages(t *testing.T) {
	r := NewRecorder("trader", session.NewManager(nil), nil, nil)

	messages, response, meta := sampleTurn()
	r.RecordCall(messages, response, meta)

	// Mutating the caller's slice must not leak into the recording.
	messages[1].Content = "mutated"
	assert.Equal(t, "decide on AAPL", r.Turns()[0].Messages[1].Content)
}

func TestAttachToolResults(t *testing.T) {
	r := NewRecorder("trader", session.NewManager(nil), nil, nil)

	// Nothing recorded yet: silently dropped.
	r.AttachToolResults([]ToolResult{{Tool: "lookup", Result: "42"}})
	assert.Empty(t, r.Turns())

	messages, response, meta := sampleTurn()
	r.RecordCall(messages, response, meta)
	r.AttachToolResults([]ToolResult{{Tool: "lookup", CallID: "call_1", Result: "42"}})

	require.Len(t, r.Turns()[0].ToolResults, 1)
	assert.Equal(t, "lookup", r.Turns()[0].ToolResults[0].Tool)
}

func TestEmitChainWritesSequencedFile(t *testing.T) {
	dir := t.TempDir()
	sessions := session.NewManager(nil)
	writer := artifact.NewWriter(dir, nil)
	r := NewRecorder("trader", sessions, writer, nil)

	messages, response, meta := sampleTurn()
	r.RecordCall(messages, response, meta)
	require.NoError(t, r.EmitChain("AAPL", map[string]interface{}{"recommendation": "BUY"}, true))

	date := time.Now().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(dir, "llm", date, "AAPL", "01.trader.md"))
	require.NoError(t, err)

	doc := string(data)
	assert.Contains(t, doc, "# Call Chain 01 - trader")
	assert.Contains(t, doc, "- **Symbol**: AAPL")
	assert.Contains(t, doc, "- **Success**: true")
	assert.Contains(t, doc, "- **Total tokens**: 15")
	assert.Contains(t, doc, "decide on AAPL")
	assert.Contains(t, doc, `"recommendation": "BUY"`)
}

func TestEmitChainAdvancesSequencePerSymbol(t *testing.T) {
	dir := t.TempDir()
	sessions := session.NewManager(nil)
	writer := artifact.NewWriter(dir, nil)

	for _, agent := range []string{"trader", "risk_manager"} {
		r := NewRecorder(agent, sessions, writer, nil)
		messages, response, meta := sampleTurn()
		r.RecordCall(messages, response, meta)
		require.NoError(t, r.EmitChain("AAPL", nil, true))
	}

	date := time.Now().Format("2006-01-02")
	base := filepath.Join(dir, "llm", date, "AAPL")
	_, err := os.Stat(filepath.Join(base, "01.trader.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "02.risk_manager.md"))
	assert.NoError(t, err)
}

func TestEmitChainWithoutTurnsIsNoOp(t *testing.T) {
	dir := t.TempDir()
	sessions := session.NewManager(nil)
	r := NewRecorder("trader", sessions, artifact.NewWriter(dir, nil), nil)

	require.NoError(t, r.EmitChain("AAPL", nil, true))
	// No turns recorded, so the sequence was never consumed.
	assert.Equal(t, 1, sessions.NextCallSeq("AAPL"))
}

func TestResetRotatesConversationID(t *testing.T) {
	r := NewRecorder("trader", session.NewManager(nil), nil, nil)
	before := r.ConversationID()

	messages, response, meta := sampleTurn()
	r.RecordCall(messages, response, meta)
	r.Reset()

	assert.Empty(t, r.Turns())
	assert.NotEqual(t, before, r.ConversationID())
	assert.Len(t, r.ConversationID(), 8)
}
