package debate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/tradecouncil/internal/agent"
	"github.com/irfndi/tradecouncil/internal/llm"
	"github.com/irfndi/tradecouncil/internal/session"
	"github.com/irfndi/tradecouncil/internal/testutil"
	"github.com/irfndi/tradecouncil/internal/tools"
)

func sampleReports() map[session.AgentRole]*session.AnalysisReport {
	return map[session.AgentRole]*session.AnalysisReport{
		session.RoleFundamentalAnalyst: {
			AnalystRole:     session.RoleFundamentalAnalyst,
			Symbol:          "AAPL",
			Recommendation:  session.RecommendBuy,
			ConfidenceScore: 0.8,
			KeyFindings:     []string{"strong margins"},
		},
		session.RoleTechnicalAnalyst: {
			AnalystRole:     session.RoleTechnicalAnalyst,
			Symbol:          "AAPL",
			Recommendation:  session.RecommendHold,
			ConfidenceScore: 0.6,
		},
	}
}

func researchClient() *testutil.RoutedClient {
	return testutil.NewRoutedClient("I maintain my position.").
		Answer(tools.ToolEmitBullResearch, map[string]interface{}{
			"bull_thesis":      "growth runway intact",
			"confidence_level": 0.8,
		}).
		Answer(tools.ToolEmitBearResearch, map[string]interface{}{
			"bear_thesis":      "valuation is stretched",
			"confidence_level": 0.6,
		}).
		Answer(tools.ToolEmitDebateJudgment, map[string]interface{}{
			"decision":   "BUY",
			"confidence": 0.72,
			"winner":     "bull",
			"reasoning":  "bull case better evidenced",
		}).
		Answer(tools.ToolEmitDebateQuality, map[string]interface{}{
			"debate_quality": "high",
			"quality_score":  0.9,
		})
}

func newResearchDebate(client llm.Client, sessions *session.Manager, config ResearchConfig) *ResearchDebate {
	deps := agent.Deps{Client: client, Model: "test-model", Sessions: sessions}
	return NewResearchDebate(
		agent.NewBullResearcher(deps),
		agent.NewBearResearcher(deps),
		agent.NewCoordinator(deps),
		sessions, config, nil)
}

func TestResearchDebateFullRun(t *testing.T) {
	sessions := session.NewManager(nil)
	sessions.StartSession("AAPL")

	d := newResearchDebate(researchClient(), sessions, ResearchConfig{
		MaxRounds:          2,
		ConsensusThreshold: 0.7,
	})

	outcome, err := d.Run(context.Background(), "AAPL", sampleReports())
	require.NoError(t, err)

	assert.Equal(t, session.RecommendBuy, outcome.Decision)
	assert.Equal(t, 0.72, outcome.Confidence)
	assert.Equal(t, "bull", outcome.Winner)
	assert.True(t, outcome.Consensus)
	assert.False(t, outcome.Fallback)
	assert.Equal(t, "growth runway intact", outcome.BullThesis["bull_thesis"])
	assert.Equal(t, "valuation is stretched", outcome.BearThesis["bear_thesis"])
	require.NotNil(t, outcome.Quality)
	assert.Equal(t, 0.9, outcome.Quality["quality_score"])
}

func TestResearchDebateAlternatesSpeakers(t *testing.T) {
	sessions := session.NewManager(nil)
	sessions.StartSession("AAPL")

	d := newResearchDebate(researchClient(), sessions, ResearchConfig{MaxRounds: 2, ConsensusThreshold: 0.7})
	_, err := d.Run(context.Background(), "AAPL", sampleReports())
	require.NoError(t, err)

	state := sessions.Snapshot().ResearchDebate
	require.NotNil(t, state)
	require.Len(t, state.Messages, 4)

	for i, msg := range state.Messages {
		if i%2 == 0 {
			assert.Equal(t, session.RoleBullResearcher, msg.Speaker, "message %d", i)
		} else {
			assert.Equal(t, session.RoleBearResearcher, msg.Speaker, "message %d", i)
		}
		assert.Equal(t, i/2+1, msg.Round, "message %d", i)
	}
	assert.True(t, state.ConsensusReached)
	assert.Equal(t, session.RecommendBuy, state.FinalDecision)
}

func TestResearchDebateZeroRoundsJudgesTheses(t *testing.T) {
	sessions := session.NewManager(nil)
	sessions.StartSession("AAPL")

	d := newResearchDebate(researchClient(), sessions, ResearchConfig{MaxRounds: 0, ConsensusThreshold: 0.7})
	outcome, err := d.Run(context.Background(), "AAPL", sampleReports())
	require.NoError(t, err)

	assert.Equal(t, session.RecommendBuy, outcome.Decision)
	assert.Empty(t, sessions.Snapshot().ResearchDebate.Messages)
}

func TestResearchDebateEmptyWhenMessagesVanish(t *testing.T) {
	// No active session: debate messages have nowhere to land, so a
	// configured debate that recorded nothing is an error.
	sessions := session.NewManager(nil)

	d := newResearchDebate(researchClient(), sessions, ResearchConfig{MaxRounds: 1, ConsensusThreshold: 0.7})
	_, err := d.Run(context.Background(), "AAPL", sampleReports())
	assert.ErrorIs(t, err, ErrDebateEmpty)
}

func TestResearchDebateFallbackOnJudgeFailure(t *testing.T) {
	sessions := session.NewManager(nil)
	sessions.StartSession("AAPL")

	client := researchClient().Fail(tools.ToolEmitDebateJudgment, errors.New("judge transport down"))
	d := newResearchDebate(client, sessions, ResearchConfig{MaxRounds: 1, ConsensusThreshold: 0.7})

	outcome, err := d.Run(context.Background(), "AAPL", sampleReports())
	require.NoError(t, err)

	assert.True(t, outcome.Fallback)
	assert.Equal(t, session.RecommendBuy, outcome.Decision)
	assert.Equal(t, "bull", outcome.Winner)
	assert.Equal(t, 0.8, outcome.Confidence)

	// The fallback still produces a debate conclusion for the trading
	// stage to consume.
	require.NotNil(t, outcome.Judgment)
	assert.Equal(t, session.RecommendBuy, outcome.Judgment["decision"])
	assert.Equal(t, 0.8, outcome.Judgment["confidence"])
	assert.Equal(t, "bull", outcome.Judgment["winner"])
	assert.NotEmpty(t, outcome.Judgment["reasoning"])
}

func TestResearchDebateQualityFailureIsNonFatal(t *testing.T) {
	sessions := session.NewManager(nil)
	sessions.StartSession("AAPL")

	client := researchClient().Fail(tools.ToolEmitDebateQuality, errors.New("quality transport down"))
	d := newResearchDebate(client, sessions, ResearchConfig{MaxRounds: 1, ConsensusThreshold: 0.7})

	outcome, err := d.Run(context.Background(), "AAPL", sampleReports())
	require.NoError(t, err)
	assert.Nil(t, outcome.Quality)
	assert.Equal(t, session.RecommendBuy, outcome.Decision)
}

func TestResearchDebateObservesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sessions := session.NewManager(nil)
	sessions.StartSession("AAPL")

	d := newResearchDebate(researchClient(), sessions, ResearchConfig{MaxRounds: 2, ConsensusThreshold: 0.7})
	_, err := d.Run(ctx, "AAPL", sampleReports())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResearchDebatePoolStampsTurnModels(t *testing.T) {
	sessions := session.NewManager(nil)
	sessions.StartSession("AAPL")

	client := researchClient()
	pool := llm.NewPool([]llm.PoolEntry{{Client: client, Model: "pool-model"}}, false, 0)

	d := newResearchDebate(client, sessions, ResearchConfig{
		MaxRounds:          1,
		ConsensusThreshold: 0.7,
		Pool:               pool,
	})
	_, err := d.Run(context.Background(), "AAPL", sampleReports())
	require.NoError(t, err)

	messages := sessions.Snapshot().ResearchDebate.Messages
	require.Len(t, messages, 2)
	for _, msg := range messages {
		assert.Equal(t, "pool-model", msg.Model)
		assert.Equal(t, string(llm.ProviderOpenAI), msg.Provider)
	}
}

func TestFallbackJudgment(t *testing.T) {
	buy := func(score float64) *session.AnalysisReport {
		return &session.AnalysisReport{Recommendation: session.RecommendBuy, ConfidenceScore: score}
	}
	sell := func(score float64) *session.AnalysisReport {
		return &session.AnalysisReport{Recommendation: session.RecommendSell, ConfidenceScore: score}
	}

	t.Run("majority bucket wins with average confidence", func(t *testing.T) {
		decision, confidence := FallbackJudgment(map[session.AgentRole]*session.AnalysisReport{
			session.RoleFundamentalAnalyst: buy(0.6),
			session.RoleTechnicalAnalyst:   buy(0.8),
			session.RoleNewsAnalyst:        sell(0.5),
		})
		assert.Equal(t, session.RecommendBuy, decision)
		assert.InDelta(t, 0.7, confidence, 1e-9)
	})

	t.Run("average is capped", func(t *testing.T) {
		decision, confidence := FallbackJudgment(map[session.AgentRole]*session.AnalysisReport{
			session.RoleFundamentalAnalyst: buy(0.9),
			session.RoleTechnicalAnalyst:   buy(0.95),
		})
		assert.Equal(t, session.RecommendBuy, decision)
		assert.Equal(t, 0.8, confidence)
	})

	t.Run("tie resolves to hold", func(t *testing.T) {
		decision, confidence := FallbackJudgment(map[session.AgentRole]*session.AnalysisReport{
			session.RoleFundamentalAnalyst: buy(0.7),
			session.RoleTechnicalAnalyst:   sell(0.7),
		})
		assert.Equal(t, session.RecommendHold, decision)
		assert.Equal(t, 0.5, confidence)
	})

	t.Run("no reports resolves to hold", func(t *testing.T) {
		decision, confidence := FallbackJudgment(nil)
		assert.Equal(t, session.RecommendHold, decision)
		assert.Equal(t, 0.5, confidence)
	})

	t.Run("nil reports are skipped", func(t *testing.T) {
		decision, _ := FallbackJudgment(map[session.AgentRole]*session.AnalysisReport{
			session.RoleFundamentalAnalyst: nil,
			session.RoleTechnicalAnalyst:   sell(0.4),
		})
		assert.Equal(t, session.RecommendSell, decision)
	})
}
