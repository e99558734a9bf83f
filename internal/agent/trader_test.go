package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/tradecouncil/internal/session"
	"github.com/irfndi/tradecouncil/internal/testutil"
	"github.com/irfndi/tradecouncil/internal/tools"
)

func TestTraderPromptCarriesMarketContextAndDebateConclusion(t *testing.T) {
	client := testutil.NewScriptedClient().
		QueueToolCall(tools.ToolEmitTradingDecision, map[string]interface{}{
			"recommendation":   "BUY",
			"confidence_score": 0.72,
			"position_size":    0.3,
			"target_price":     210.0,
			"reasoning":        "bull case holds",
		})

	sessions := session.NewManager(nil)
	sessions.StartSession("AAPL")
	trader := NewTrader(Deps{Client: client, Model: "scripted", Sessions: sessions})

	judgment := map[string]interface{}{
		"decision":   "BUY",
		"confidence": 0.8,
		"winner":     "bull",
		"reasoning":  "judge unavailable; scored analyst reports by recommendation confidence",
	}
	marketData := map[string]interface{}{
		"current_price": 200.5,
		"pe_ratio":      31.2,
	}
	reports := map[session.AgentRole]*session.AnalysisReport{
		session.RoleFundamentalAnalyst: {
			AnalystRole:     session.RoleFundamentalAnalyst,
			Recommendation:  session.RecommendBuy,
			ConfidenceScore: 0.8,
		},
	}

	decision, err := trader.Decide(context.Background(), "AAPL", judgment, reports, marketData, 0.25)
	require.NoError(t, err)
	assert.Equal(t, session.RecommendBuy, decision.Recommendation)
	assert.Equal(t, 210.0, decision.TargetPrice)

	prompt := client.Requests()[0].Messages[1].Content
	assert.Contains(t, prompt, "Current position weight: 0.2500")
	assert.Contains(t, prompt, "Market context:")
	assert.Contains(t, prompt, "current_price")
	assert.Contains(t, prompt, "Research debate conclusion:")
	assert.Contains(t, prompt, "scored analyst reports by recommendation confidence")
}

func TestTraderPromptOmitsEmptySections(t *testing.T) {
	client := testutil.NewScriptedClient().
		QueueToolCall(tools.ToolEmitTradingDecision, map[string]interface{}{
			"recommendation":   "HOLD",
			"confidence_score": 0.5,
			"position_size":    0.0,
		})

	sessions := session.NewManager(nil)
	sessions.StartSession("AAPL")
	trader := NewTrader(Deps{Client: client, Model: "scripted", Sessions: sessions})

	_, err := trader.Decide(context.Background(), "AAPL", nil, nil, nil, 0)
	require.NoError(t, err)

	prompt := client.Requests()[0].Messages[1].Content
	assert.NotContains(t, prompt, "Market context:")
	assert.NotContains(t, prompt, "Research debate conclusion:")
}
