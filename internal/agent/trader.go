package agent

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/irfndi/tradecouncil/internal/session"
	"github.com/irfndi/tradecouncil/internal/tools"
)

// Trader turns the research conclusion into a concrete trading decision
// for the current position state.
type Trader struct {
	*Agent
}

// NewTrader builds the trader.
func NewTrader(d Deps) *Trader {
	registry := tools.NewRegistry(d.Logger)
	tools.RegisterTradingDecisionEmitter(registry)
	return &Trader{Agent: New(d.options(session.RoleTrader, registry, tools.ToolEmitTradingDecision))}
}

// Decide produces the trading decision. currentPosition is the existing
// target weight; a HOLD recommendation keeps it unchanged regardless of
// what the model put in position_size.
func (t *Trader) Decide(ctx context.Context, symbol string, judgment map[string]interface{}, reports map[session.AgentRole]*session.AnalysisReport, marketData map[string]interface{}, currentPosition float64) (*session.TradingDecision, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Produce the trading decision for %s.\n\n", symbol)
	fmt.Fprintf(&b, "Current position weight: %.4f\n\n", currentPosition)
	if len(marketData) > 0 {
		fmt.Fprintf(&b, "Market context:\n%s\n\n", tools.Stringify(marketData))
	}
	if len(judgment) > 0 {
		fmt.Fprintf(&b, "Research debate conclusion:\n%s\n\n", tools.Stringify(judgment))
	}
	b.WriteString("Analyst reports:\n")
	b.WriteString(FormatReports(reports))
	b.WriteString("\nRemember: position_size is the target weight after the trade, not a change. Call emit_trading_decision exactly once.")

	result, err := t.RunUntilTool(ctx, b.String())
	if err != nil {
		t.emitChain(symbol, nil, false)
		return nil, err
	}

	decision := t.buildDecision(symbol, result, currentPosition)
	t.sessions.SetTradingDecision(decision)

	t.writeMarkdown(symbol, "Trading Decision", tools.Stringify(result), map[string]string{
		"recommendation": decision.Recommendation,
		"position_size":  fmt.Sprintf("%.4f", decision.PositionSize),
	})
	t.emitChain(symbol, result, true)
	return decision, nil
}

func (t *Trader) buildDecision(symbol string, result map[string]interface{}, currentPosition float64) *session.TradingDecision {
	priceRange := asMapping(result["price_range"])
	riskMgmt := asMapping(result["risk_management"])

	decision := &session.TradingDecision{
		Symbol:             symbol,
		Recommendation:     session.NormalizeRecommendation(asString(result["recommendation"])),
		ConfidenceScore:    asFloat(result["confidence_score"]),
		TargetPrice:        asFloat(priceRange["target_price"]),
		AcceptablePriceMin: asFloat(priceRange["acceptable_min"]),
		AcceptablePriceMax: asFloat(priceRange["acceptable_max"]),
		StopLoss:           asFloat(riskMgmt["stop_loss"]),
		TakeProfit:         asFloat(riskMgmt["take_profit"]),
		PositionSize:       asFloat(result["position_size"]),
		TimeHorizon:        asString(result["time_horizon"]),
		Reasoning:          asString(result["reasoning"]),
		RiskFactors:        asStringSlice(result["risk_factors"]),
		ExecutionPlan:      asMapping(result["execution_plan"]),
		DecisionTimestamp:  time.Now(),
	}

	// A HOLD keeps the position: any drift in the emitted target weight
	// is corrected back to the current weight.
	if decision.Recommendation == session.RecommendHold &&
		math.Abs(decision.PositionSize-currentPosition) > 1e-9 {
		t.logger.Warn("HOLD decision moved position size, pinning to current",
			zap.Float64("emitted", decision.PositionSize),
			zap.Float64("current", currentPosition))
		decision.PositionSize = currentPosition
	}
	return decision
}
