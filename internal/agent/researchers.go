package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/irfndi/tradecouncil/internal/llm"
	"github.com/irfndi/tradecouncil/internal/session"
	"github.com/irfndi/tradecouncil/internal/tools"
)

// Researcher is one side of the research debate: bull or bear. The
// structured thesis comes from the tool-call loop; debate turns are
// plain-text rebuttals, optionally routed through a model pool.
type Researcher struct {
	*Agent
}

// NewBullResearcher builds the bull-side researcher.
func NewBullResearcher(d Deps) *Researcher {
	registry := tools.NewRegistry(d.Logger)
	tools.RegisterBullResearchEmitter(registry)
	return &Researcher{Agent: New(d.options(session.RoleBullResearcher, registry, tools.ToolEmitBullResearch))}
}

// NewBearResearcher builds the bear-side researcher.
func NewBearResearcher(d Deps) *Researcher {
	registry := tools.NewRegistry(d.Logger)
	tools.RegisterBearResearchEmitter(registry)
	return &Researcher{Agent: New(d.options(session.RoleBearResearcher, registry, tools.ToolEmitBearResearch))}
}

// Process builds the researcher's initial structured thesis from the
// analyst reports.
func (r *Researcher) Process(ctx context.Context, symbol string, reports map[session.AgentRole]*session.AnalysisReport) (map[string]interface{}, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Build your research thesis for %s from the analyst reports below.\n\n", symbol)
	b.WriteString(FormatReports(reports))
	b.WriteString("\nFinish by calling your emitter tool exactly once with the complete thesis.")

	result, err := r.RunUntilTool(ctx, b.String())
	if err != nil {
		r.emitChain(symbol, nil, false)
		return nil, err
	}

	r.writeMarkdown(symbol, "Research Thesis", tools.Stringify(result), nil)
	r.emitChain(symbol, result, true)
	return result, nil
}

// Rebut produces one plain-text debate turn responding to the opponent's
// most recent argument.
func (r *Researcher) Rebut(ctx context.Context, symbol, opponentArgument string, round int) (string, error) {
	return r.RebutWith(ctx, r.client, r.model, symbol, opponentArgument, round)
}

// RebutWith is Rebut over an explicit transport, used when the debate
// coordinator routes turns through its model pool.
func (r *Researcher) RebutWith(ctx context.Context, client llm.Client, model, symbol, opponentArgument string, round int) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Debate round %d on %s.\n\n", round, symbol)
	fmt.Fprintf(&b, "Your opponent's argument:\n%s\n\n", opponentArgument)
	b.WriteString("Respond with your strongest rebuttal and reinforce your own case. Reply in plain text.")

	return r.CallLLMWith(ctx, client, model, b.String())
}

// FormatReports renders analyst reports for inclusion in a prompt, in
// the canonical analyst slot order.
func FormatReports(reports map[session.AgentRole]*session.AnalysisReport) string {
	var b strings.Builder
	for _, role := range session.AnalystRoles {
		report, ok := reports[role]
		if !ok || report == nil {
			continue
		}
		fmt.Fprintf(&b, "### %s\n", role)
		fmt.Fprintf(&b, "Recommendation: %s (confidence %.2f)\n", report.Recommendation, report.ConfidenceScore)
		for _, finding := range report.KeyFindings {
			fmt.Fprintf(&b, "- %s\n", finding)
		}
		if len(report.RiskFactors) > 0 {
			b.WriteString("Risks:\n")
			for _, risk := range report.RiskFactors {
				fmt.Fprintf(&b, "- %s\n", risk)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
