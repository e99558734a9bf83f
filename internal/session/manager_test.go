package session

import (
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSessionIDFormat(t *testing.T) {
	m := NewManager(nil)
	id := m.StartSession("AAPL")

	assert.Regexp(t, regexp.MustCompile(`^session_\d{8}_\d{6}_AAPL$`), id)
	assert.Equal(t, id, m.CurrentSessionID())
	assert.Equal(t, "AAPL", m.CurrentSymbol())
}

func TestStartSessionEndsPrevious(t *testing.T) {
	m := NewManager(nil)
	first := m.StartSession("AAPL")
	second := m.StartSession("MSFT")

	assert.NotEqual(t, first, second)
	assert.Equal(t, "MSFT", m.CurrentSymbol())

	history := m.History()
	require.Len(t, history, 1)
	assert.Equal(t, first, history[0].SessionID)
	assert.False(t, history[0].EndTime.IsZero())
}

func TestEndSessionMovesToHistory(t *testing.T) {
	m := NewManager(nil)
	id := m.StartSession("AAPL")
	m.EndSession()

	assert.Empty(t, m.CurrentSessionID())
	assert.Nil(t, m.Snapshot())

	history := m.History()
	require.Len(t, history, 1)
	assert.Equal(t, id, history[0].SessionID)

	// Ending again is a no-op.
	m.EndSession()
	assert.Len(t, m.History(), 1)
}

func TestOperationsWithoutSessionAreNoOps(t *testing.T) {
	m := NewManager(nil)

	m.AddAnalysisReport(&AnalysisReport{AnalystRole: RoleTechnicalAnalyst, Symbol: "AAPL"})
	m.AddDebateMessage(DebateResearch, DebateMessage{Speaker: RoleBullResearcher, Content: "x"})
	m.SealDebate(DebateResearch, RecommendBuy, true)
	m.SetTradingDecision(&TradingDecision{Symbol: "AAPL"})
	m.SetRiskManagementDecision(&RiskDecision{})
	m.SetFinalRecommendation(&InvestmentDecision{})
	m.RecordTrade(map[string]interface{}{"qty": 1})

	assert.Nil(t, m.StartResearchDebate([]AgentRole{RoleBullResearcher}, 2))
	assert.Nil(t, m.StartRiskDebate([]AgentRole{RoleNeutralAnalyst}, 2))
	assert.Nil(t, m.Snapshot())
	assert.Empty(t, m.History())
}

func TestAddAnalysisReportRoutesAndOverwrites(t *testing.T) {
	m := NewManager(nil)
	m.StartSession("AAPL")

	first := &AnalysisReport{AnalystRole: RoleTechnicalAnalyst, Symbol: "AAPL", ConfidenceScore: 0.5}
	second := &AnalysisReport{AnalystRole: RoleTechnicalAnalyst, Symbol: "AAPL", ConfidenceScore: 0.9}
	m.AddAnalysisReport(first)
	m.AddAnalysisReport(second)

	snapshot := m.Snapshot()
	require.NotNil(t, snapshot)
	require.Len(t, snapshot.AnalysisReports, 1)
	assert.Equal(t, 0.9, snapshot.AnalysisReports[RoleTechnicalAnalyst].ConfidenceScore)
}

func TestParallelReportPublishes(t *testing.T) {
	m := NewManager(nil)
	m.StartSession("AAPL")

	roles := AnalystRoles
	var wg sync.WaitGroup
	for _, role := range roles {
		wg.Add(1)
		go func(role AgentRole) {
			defer wg.Done()
			m.AddAnalysisReport(&AnalysisReport{AnalystRole: role, Symbol: "AAPL"})
		}(role)
	}
	wg.Wait()

	assert.Len(t, m.Snapshot().AnalysisReports, len(roles))
}

func TestDebateMessagesKeepTemporalOrder(t *testing.T) {
	m := NewManager(nil)
	m.StartSession("AAPL")
	state := m.StartResearchDebate([]AgentRole{RoleBullResearcher, RoleBearResearcher}, 2)
	require.NotNil(t, state)

	for round := 1; round <= 2; round++ {
		m.AddDebateMessage(DebateResearch, DebateMessage{Round: round, Speaker: RoleBullResearcher, Content: fmt.Sprintf("bull %d", round)})
		m.AddDebateMessage(DebateResearch, DebateMessage{Round: round, Speaker: RoleBearResearcher, Content: fmt.Sprintf("bear %d", round)})
	}

	messages := m.Snapshot().ResearchDebate.Messages
	require.Len(t, messages, 4)
	for i, msg := range messages {
		if i%2 == 0 {
			assert.Equal(t, RoleBullResearcher, msg.Speaker)
		} else {
			assert.Equal(t, RoleBearResearcher, msg.Speaker)
		}
		assert.False(t, msg.Timestamp.IsZero())
	}
	assert.Equal(t, 2, m.Snapshot().ResearchDebate.CurrentRound)
}

func TestNextCallSeq(t *testing.T) {
	m := NewManager(nil)

	assert.Equal(t, 1, m.NextCallSeq("AAPL"))
	assert.Equal(t, 2, m.NextCallSeq("AAPL"))
	assert.Equal(t, 3, m.NextCallSeq("AAPL"))

	// Symbol change resets the counter.
	assert.Equal(t, 1, m.NextCallSeq("MSFT"))
	assert.Equal(t, 2, m.NextCallSeq("MSFT"))
	assert.Equal(t, 1, m.NextCallSeq("AAPL"))
}

func TestNextCallSeqConcurrent(t *testing.T) {
	m := NewManager(nil)

	const n = 50
	results := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- m.NextCallSeq("AAPL")
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int]bool, n)
	for seq := range results {
		assert.False(t, seen[seq], "duplicate sequence %d", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, n)
}

func TestNormalizeRecommendation(t *testing.T) {
	assert.Equal(t, RecommendBuy, NormalizeRecommendation("BUY"))
	assert.Equal(t, RecommendBuy, NormalizeRecommendation("Strong Buy"))
	assert.Equal(t, RecommendSell, NormalizeRecommendation("sell now"))
	assert.Equal(t, RecommendHold, NormalizeRecommendation("HOLD"))
	assert.Equal(t, RecommendHold, NormalizeRecommendation("accumulate"))
	assert.Equal(t, RecommendHold, NormalizeRecommendation(""))
}

func TestWeightedScore(t *testing.T) {
	buy := &AnalysisReport{Recommendation: RecommendBuy, ConfidenceScore: 0.8, ImpactMagnitude: 0.5}
	assert.InDelta(t, 0.4, buy.WeightedScore(), 1e-9)

	hold := &AnalysisReport{Recommendation: RecommendHold, ConfidenceScore: 0.6}
	assert.InDelta(t, 0.3, hold.WeightedScore(), 1e-9) // zero impact defaults to 1.0

	sell := &AnalysisReport{Recommendation: RecommendSell, ConfidenceScore: 0.9}
	assert.Zero(t, sell.WeightedScore())
}
