package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/irfndi/tradecouncil/internal/session"
	"github.com/irfndi/tradecouncil/internal/tools"
)

// FundManager makes the final investment decision from everything the
// pipeline produced.
type FundManager struct {
	*Agent
}

// NewFundManager builds the fund manager.
func NewFundManager(d Deps) *FundManager {
	registry := tools.NewRegistry(d.Logger)
	tools.RegisterFundManagerDecisionEmitter(registry)
	return &FundManager{Agent: New(d.options(session.RoleFundManager, registry, tools.ToolEmitFundManagerDecision))}
}

// Decide integrates the session's artifacts into the final investment
// decision and publishes it.
func (f *FundManager) Decide(ctx context.Context, snapshot *session.TradingSession) (*session.InvestmentDecision, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("fund manager: no active session")
	}
	symbol := snapshot.Symbol

	var b strings.Builder
	fmt.Fprintf(&b, "Make the final investment decision for %s.\n\n", symbol)
	b.WriteString("Analyst reports:\n")
	b.WriteString(FormatReports(snapshot.AnalysisReports))
	if snapshot.ResearchDebate != nil && snapshot.ResearchDebate.FinalDecision != "" {
		fmt.Fprintf(&b, "\nResearch debate conclusion: %s\n", snapshot.ResearchDebate.FinalDecision)
	}
	b.WriteString("\nTrading plan:\n")
	b.WriteString(FormatTradingDecision(snapshot.TradingDecision))
	if risk := snapshot.RiskManagementDecision; risk != nil {
		fmt.Fprintf(&b, "\nRisk decision: %s (risk level %s, confidence %.2f)\n%s\n",
			risk.RecommendedAction, risk.RiskLevel, risk.ConfidenceLevel, risk.DecisionRationale)
	}
	b.WriteString("\nIntegrate everything and call emit_fund_manager_decision exactly once.")

	result, err := f.RunUntilTool(ctx, b.String())
	if err != nil {
		f.emitChain(symbol, nil, false)
		return nil, err
	}

	decision := &session.InvestmentDecision{
		FinalRecommendation:  session.NormalizeRecommendation(asString(result["final_recommendation"])),
		ConfidenceScore:      asFloat(result["confidence_score"]),
		PositionSize:         asFloat(result["position_size"]),
		EntryStrategy:        asString(result["entry_strategy"]),
		ExitStrategy:         asString(result["exit_strategy"]),
		RiskManagementRules:  asStringSlice(result["risk_management_rules"]),
		MonitoringIndicators: asStringSlice(result["monitoring_indicators"]),
		DecisionSummary:      asString(result["decision_summary"]),
		NextReviewDate:       asString(result["next_review_date"]),
	}
	f.sessions.SetFinalRecommendation(decision)

	f.writeMarkdown(symbol, "Final Investment Decision", tools.Stringify(result), map[string]string{
		"recommendation": decision.FinalRecommendation,
		"confidence":     fmt.Sprintf("%.2f", decision.ConfidenceScore),
	})
	f.emitChain(symbol, result, true)
	return decision, nil
}
