package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/irfndi/tradecouncil/internal/llm"
	"github.com/irfndi/tradecouncil/internal/session"
	"github.com/irfndi/tradecouncil/internal/tools"
)

// RiskAnalyst is one voice of the risk debate: conservative, aggressive,
// or neutral. The initial structured assessment comes from the tool-call
// loop; debate turns are plain text.
type RiskAnalyst struct {
	*Agent
}

// NewConservativeAnalyst builds the capital-preservation voice.
func NewConservativeAnalyst(d Deps) *RiskAnalyst {
	registry := tools.NewRegistry(d.Logger)
	tools.RegisterConservativeRiskEmitter(registry)
	return &RiskAnalyst{Agent: New(d.options(session.RoleConservativeAnalyst, registry, tools.ToolEmitConservativeRisk))}
}

// NewAggressiveAnalyst builds the upside-capture voice.
func NewAggressiveAnalyst(d Deps) *RiskAnalyst {
	registry := tools.NewRegistry(d.Logger)
	tools.RegisterAggressiveOpportunityEmitter(registry)
	return &RiskAnalyst{Agent: New(d.options(session.RoleAggressiveAnalyst, registry, tools.ToolEmitAggressiveOpportunity))}
}

// NewNeutralAnalyst builds the balancing voice.
func NewNeutralAnalyst(d Deps) *RiskAnalyst {
	registry := tools.NewRegistry(d.Logger)
	tools.RegisterNeutralBalanceEmitter(registry)
	return &RiskAnalyst{Agent: New(d.options(session.RoleNeutralAnalyst, registry, tools.ToolEmitNeutralBalance))}
}

// Assess produces the analyst's initial structured take on the trading
// decision. priorArguments, when non-empty, are peer positions the
// analyst should weigh (the neutral analyst sees both sides).
func (r *RiskAnalyst) Assess(ctx context.Context, symbol string, decision *session.TradingDecision, priorArguments string) (map[string]interface{}, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Assess this proposed trade on %s.\n\n", symbol)
	b.WriteString(FormatTradingDecision(decision))
	if priorArguments != "" {
		fmt.Fprintf(&b, "\nPeer positions to weigh:\n%s\n", priorArguments)
	}
	b.WriteString("\nFinish by calling your emitter tool exactly once with the complete assessment.")

	result, err := r.RunUntilTool(ctx, b.String())
	if err != nil {
		r.emitChain(symbol, nil, false)
		return nil, err
	}

	r.writeMarkdown(symbol, "Risk Assessment", tools.Stringify(result), nil)
	r.emitChain(symbol, result, true)
	return result, nil
}

// DebateTurn produces one plain-text risk-debate turn responding to the
// opponents' arguments, optionally over a pooled transport.
func (r *RiskAnalyst) DebateTurn(ctx context.Context, client llm.Client, model, symbol, opponentArguments string, round int) (string, error) {
	if client == nil {
		client = r.client
		model = r.model
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Risk debate round %d on %s.\n\n", round, symbol)
	fmt.Fprintf(&b, "Your opponents argued:\n%s\n\n", opponentArguments)
	b.WriteString("Respond from your mandate: engage their strongest points directly and defend your position. Reply in plain text.")

	return r.CallLLMWith(ctx, client, model, b.String())
}

// RiskManager adjudicates the risk debate into the binding risk decision.
type RiskManager struct {
	*Agent
}

// NewRiskManager builds the risk manager.
func NewRiskManager(d Deps) *RiskManager {
	registry := tools.NewRegistry(d.Logger)
	tools.RegisterRiskManagementDecisionEmitter(registry)
	return &RiskManager{Agent: New(d.options(session.RoleRiskManager, registry, tools.ToolEmitRiskManagementDecision))}
}

// Adjudicate weighs the full risk-debate transcript against the trading
// decision and publishes the risk decision into the session.
func (m *RiskManager) Adjudicate(ctx context.Context, symbol string, decision *session.TradingDecision, transcript string) (*session.RiskDecision, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Adjudicate the risk debate over this proposed trade on %s.\n\n", symbol)
	b.WriteString(FormatTradingDecision(decision))
	fmt.Fprintf(&b, "\nDebate transcript:\n%s\n", transcript)
	b.WriteString("\nWeigh all three positions and call emit_risk_management_decision exactly once.")

	result, err := m.RunUntilTool(ctx, b.String())
	if err != nil {
		m.emitChain(symbol, nil, false)
		return nil, err
	}

	riskDecision := &session.RiskDecision{
		RecommendedAction:  session.NormalizeRecommendation(asString(result["recommended_action"])),
		RiskLevel:          asString(result["risk_level"]),
		ConfidenceLevel:    asFloat(result["confidence_level"]),
		PositionAdjustment: asString(result["position_adjustment"]),
		KeyRiskFactors:     asStringSlice(result["key_risk_factors"]),
		Mitigation:         asStringSlice(result["risk_mitigation_measures"]),
		Monitoring:         asStringSlice(result["monitoring_requirements"]),
		ContingencyPlans:   asStringSlice(result["contingency_plans"]),
		DecisionRationale:  asString(result["decision_rationale"]),
	}
	m.sessions.SetRiskManagementDecision(riskDecision)

	m.writeMarkdown(symbol, "Risk Management Decision", tools.Stringify(result), map[string]string{
		"action":     riskDecision.RecommendedAction,
		"risk_level": riskDecision.RiskLevel,
	})
	m.emitChain(symbol, result, true)
	return riskDecision, nil
}

// FormatTradingDecision renders a trading decision for a prompt.
func FormatTradingDecision(d *session.TradingDecision) string {
	if d == nil {
		return "No trading decision available.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Recommendation: %s (confidence %.2f)\n", d.Recommendation, d.ConfidenceScore)
	fmt.Fprintf(&b, "Target position weight: %.4f\n", d.PositionSize)
	fmt.Fprintf(&b, "Target price: %.2f (acceptable %.2f to %.2f)\n", d.TargetPrice, d.AcceptablePriceMin, d.AcceptablePriceMax)
	fmt.Fprintf(&b, "Stop loss: %.2f, take profit: %.2f\n", d.StopLoss, d.TakeProfit)
	fmt.Fprintf(&b, "Horizon: %s\n", d.TimeHorizon)
	if d.Reasoning != "" {
		fmt.Fprintf(&b, "Reasoning: %s\n", d.Reasoning)
	}
	return b.String()
}
