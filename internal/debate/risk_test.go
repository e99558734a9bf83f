package debate

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/tradecouncil/internal/agent"
	"github.com/irfndi/tradecouncil/internal/session"
	"github.com/irfndi/tradecouncil/internal/testutil"
	"github.com/irfndi/tradecouncil/internal/tools"
)

func sampleDecision() *session.TradingDecision {
	return &session.TradingDecision{
		Symbol:          "AAPL",
		Recommendation:  session.RecommendBuy,
		ConfidenceScore: 0.7,
		TargetPrice:     210,
		PositionSize:    0.3,
		TimeHorizon:     "3-6 months",
	}
}

func riskClient(debateReply string) *testutil.RoutedClient {
	return testutil.NewRoutedClient(debateReply).
		Answer(tools.ToolEmitConservativeRisk, map[string]interface{}{
			"risk_assessment":  "downside is underpriced",
			"risk_level":       "HIGH",
			"confidence_level": 0.7,
		}).
		Answer(tools.ToolEmitAggressiveOpportunity, map[string]interface{}{
			"opportunity_assessment": "momentum supports a larger position",
			"upside_potential":       "HIGH",
			"confidence_level":       0.8,
		}).
		Answer(tools.ToolEmitNeutralBalance, map[string]interface{}{
			"balance_assessment": "sized about right",
			"confidence_level":   0.6,
		}).
		Answer(tools.ToolEmitRiskManagementDecision, map[string]interface{}{
			"recommended_action": "HOLD",
			"risk_level":         "MEDIUM",
			"confidence_level":   0.65,
			"decision_rationale": "cut exposure until earnings",
		})
}

func newRiskDebate(client *testutil.RoutedClient, sessions *session.Manager, maxRounds int) *RiskDebate {
	deps := agent.Deps{Client: client, Model: "test-model", Sessions: sessions}
	return NewRiskDebate(
		agent.NewConservativeAnalyst(deps),
		agent.NewAggressiveAnalyst(deps),
		agent.NewNeutralAnalyst(deps),
		agent.NewRiskManager(deps),
		sessions, maxRounds, nil)
}

func TestRiskDebateFullRun(t *testing.T) {
	sessions := session.NewManager(nil)
	sessions.StartSession("AAPL")

	// A short, keyword-free reply keeps the debate from terminating early.
	d := newRiskDebate(riskClient("I stand by my assessment."), sessions, 3)
	outcome, err := d.Run(context.Background(), "AAPL", sampleDecision())
	require.NoError(t, err)

	assert.Equal(t, 9, outcome.Messages)
	assert.False(t, outcome.EndedEarly)
	assert.Equal(t, 3, outcome.RoundsCompleted)

	require.NotNil(t, outcome.Decision)
	assert.Equal(t, session.RecommendHold, outcome.Decision.RecommendedAction)
	assert.Equal(t, "MEDIUM", outcome.Decision.RiskLevel)
	assert.Equal(t, 0.65, outcome.Decision.ConfidenceLevel)

	require.Len(t, outcome.Analyses, 3)
	assert.Equal(t, "downside is underpriced", outcome.Analyses[session.RoleConservativeAnalyst]["risk_assessment"])

	// The risk decision also lands in the session.
	snapshot := sessions.Snapshot()
	require.NotNil(t, snapshot.RiskManagementDecision)
	assert.Equal(t, session.RecommendHold, snapshot.RiskManagementDecision.RecommendedAction)
}

func TestRiskDebateSpeakerOrder(t *testing.T) {
	sessions := session.NewManager(nil)
	sessions.StartSession("AAPL")

	d := newRiskDebate(riskClient("I stand by my assessment."), sessions, 2)
	_, err := d.Run(context.Background(), "AAPL", sampleDecision())
	require.NoError(t, err)

	messages := sessions.Snapshot().RiskDebate.Messages
	require.Len(t, messages, 6)

	want := []session.AgentRole{
		session.RoleConservativeAnalyst, session.RoleAggressiveAnalyst, session.RoleNeutralAnalyst,
		session.RoleConservativeAnalyst, session.RoleAggressiveAnalyst, session.RoleNeutralAnalyst,
	}
	for i, msg := range messages {
		assert.Equal(t, want[i], msg.Speaker, "message %d", i)
		assert.Equal(t, i/3+1, msg.Round, "message %d", i)
	}
}

func TestRiskDebateTerminatesEarlyOnRepetition(t *testing.T) {
	sessions := session.NewManager(nil)
	sessions.StartSession("AAPL")

	// Long and keyword-heavy: by six messages the history crosses the
	// byte floor and "risk" repeats well past the limit.
	reply := "The downside risk clearly outweighs the upside risk at this entry level, and the risk budget is already spent."

	d := newRiskDebate(riskClient(reply), sessions, 4)
	outcome, err := d.Run(context.Background(), "AAPL", sampleDecision())
	require.NoError(t, err)

	assert.True(t, outcome.EndedEarly)
	assert.Equal(t, 6, outcome.Messages)
	require.NotNil(t, outcome.Decision)
}

func TestRiskDebateRequiresDecision(t *testing.T) {
	d := newRiskDebate(riskClient("x"), session.NewManager(nil), 1)
	_, err := d.Run(context.Background(), "AAPL", nil)
	assert.ErrorContains(t, err, "no trading decision")
}

func TestRiskDebateObservesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sessions := session.NewManager(nil)
	sessions.StartSession("AAPL")

	d := newRiskDebate(riskClient("x"), sessions, 2)
	_, err := d.Run(ctx, "AAPL", sampleDecision())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpponentArgumentsFirstRoundRouting(t *testing.T) {
	initials := map[session.AgentRole]string{
		session.RoleConservativeAnalyst: "C0",
		session.RoleAggressiveAnalyst:   "A0",
		session.RoleNeutralAnalyst:      "N0",
	}

	// Conservative opens against both initial analyses.
	got := OpponentArguments(session.RoleConservativeAnalyst, nil, initials)
	assert.Equal(t, "Aggressive (initial analysis): A0\n\nNeutral (initial analysis): N0", got)

	// Aggressive sees the conservative opener plus the neutral initial.
	history := []session.DebateMessage{
		{Round: 1, Speaker: session.RoleConservativeAnalyst, Content: "c1"},
	}
	got = OpponentArguments(session.RoleAggressiveAnalyst, history, initials)
	assert.Equal(t, "Conservative (round 1): c1\n\nNeutral (initial analysis): N0", got)

	// Neutral sees both first-round messages in temporal order.
	history = append(history, session.DebateMessage{Round: 1, Speaker: session.RoleAggressiveAnalyst, Content: "a1"})
	got = OpponentArguments(session.RoleNeutralAnalyst, history, initials)
	assert.Equal(t, "Conservative (round 1): c1\n\nAggressive (round 1): a1", got)
}

func TestOpponentArgumentsLaterRounds(t *testing.T) {
	initials := map[session.AgentRole]string{
		session.RoleConservativeAnalyst: "C0",
		session.RoleAggressiveAnalyst:   "A0",
		session.RoleNeutralAnalyst:      "N0",
	}
	history := []session.DebateMessage{
		{Round: 1, Speaker: session.RoleConservativeAnalyst, Content: "c1"},
		{Round: 1, Speaker: session.RoleAggressiveAnalyst, Content: "a1"},
		{Round: 1, Speaker: session.RoleNeutralAnalyst, Content: "n1"},
	}

	got := OpponentArguments(session.RoleConservativeAnalyst, history, initials)
	assert.Equal(t, "Aggressive (round 1): a1\n\nNeutral (round 1): n1", got)

	history = append(history, session.DebateMessage{Round: 2, Speaker: session.RoleConservativeAnalyst, Content: "c2"})
	got = OpponentArguments(session.RoleAggressiveAnalyst, history, initials)
	assert.Equal(t, "Conservative (round 1): c1\n\nNeutral (round 1): n1\n\nConservative (round 2): c2", got)
}

func TestOpponentArgumentsIsPure(t *testing.T) {
	initials := map[session.AgentRole]string{
		session.RoleConservativeAnalyst: "C0",
		session.RoleAggressiveAnalyst:   "A0",
		session.RoleNeutralAnalyst:      "N0",
	}
	history := []session.DebateMessage{
		{Round: 1, Speaker: session.RoleConservativeAnalyst, Content: "c1"},
		{Round: 1, Speaker: session.RoleAggressiveAnalyst, Content: "a1"},
	}

	first := OpponentArguments(session.RoleNeutralAnalyst, history, initials)
	second := OpponentArguments(session.RoleNeutralAnalyst, history, initials)
	assert.Equal(t, first, second)

	// Inputs survive untouched.
	assert.Equal(t, "c1", history[0].Content)
	assert.Equal(t, "A0", initials[session.RoleAggressiveAnalyst])
}

func TestShouldEndDebate(t *testing.T) {
	message := func(content string) session.DebateMessage {
		return session.DebateMessage{Content: content}
	}
	repeat := func(msg session.DebateMessage, n int) []session.DebateMessage {
		out := make([]session.DebateMessage, n)
		for i := range out {
			out[i] = msg
		}
		return out
	}

	loud := message("risk risk risk risk " + strings.Repeat("x", 100))
	quiet := message(strings.Repeat("x", 200))

	t.Run("never before six messages", func(t *testing.T) {
		assert.False(t, shouldEndDebate(repeat(loud, 5)))
	})

	t.Run("needs the byte floor", func(t *testing.T) {
		short := message("risk risk")
		assert.False(t, shouldEndDebate(repeat(short, 6)))
	})

	t.Run("needs keyword repetition", func(t *testing.T) {
		assert.False(t, shouldEndDebate(repeat(quiet, 6)))
	})

	t.Run("keyword count at the limit does not fire", func(t *testing.T) {
		history := append(repeat(quiet, 5), message("risk risk risk"))
		assert.False(t, shouldEndDebate(history))
	})

	t.Run("fires past the limit", func(t *testing.T) {
		history := append(repeat(quiet, 5), message("risk risk risk risk"))
		assert.True(t, shouldEndDebate(history))
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		history := append(repeat(quiet, 5), message("RISK Risk rIsk RISK"))
		assert.True(t, shouldEndDebate(history))
	})
}
