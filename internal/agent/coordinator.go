package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/irfndi/tradecouncil/internal/session"
	"github.com/irfndi/tradecouncil/internal/tools"
)

// Coordinator is the research-debate judge. It carries two terminal
// emitters for its two tasks, so it runs two agent cores sharing the
// same role and prompt.
type Coordinator struct {
	judge   *Agent
	quality *Agent
}

// NewCoordinator builds the debate coordinator.
func NewCoordinator(d Deps) *Coordinator {
	judgeRegistry := tools.NewRegistry(d.Logger)
	tools.RegisterDebateJudgmentEmitter(judgeRegistry)

	qualityRegistry := tools.NewRegistry(d.Logger)
	tools.RegisterDebateQualityEmitter(qualityRegistry)

	return &Coordinator{
		judge:   New(d.options(session.RoleDebateCoordinator, judgeRegistry, tools.ToolEmitDebateJudgment)),
		quality: New(d.options(session.RoleDebateCoordinator, qualityRegistry, tools.ToolEmitDebateQuality)),
	}
}

// Judge weighs the debate transcript against the analyst reports and
// returns the structured judgment, including the declared winner.
func (c *Coordinator) Judge(ctx context.Context, symbol, transcript string, reports map[session.AgentRole]*session.AnalysisReport) (map[string]interface{}, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Judge the bull/bear research debate on %s.\n\n", symbol)
	b.WriteString("Analyst reports:\n")
	b.WriteString(FormatReports(reports))
	b.WriteString("\nDebate transcript:\n")
	b.WriteString(transcript)
	b.WriteString("\n\nWeigh argument quality, pick a winner (bull, bear, or draw), and call emit_debate_judgment exactly once.")

	result, err := c.judge.RunUntilTool(ctx, b.String())
	if err != nil {
		c.judge.emitChain(symbol, nil, false)
		return nil, err
	}

	c.judge.writeMarkdown(symbol, "Debate Judgment", tools.Stringify(result), map[string]string{
		"decision": asString(result["decision"]),
		"winner":   asString(result["winner"]),
	})
	c.judge.emitChain(symbol, result, true)
	return result, nil
}

// EvaluateQuality scores the debate itself. Callers treat failures as
// non-fatal; the judgment stands without a quality score.
func (c *Coordinator) EvaluateQuality(ctx context.Context, symbol, transcript string) (map[string]interface{}, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluate the quality of this research debate on %s.\n\n", symbol)
	b.WriteString(transcript)
	b.WriteString("\n\nCall emit_debate_quality_evaluation exactly once.")

	result, err := c.quality.RunUntilTool(ctx, b.String())
	if err != nil {
		c.quality.emitChain(symbol, nil, false)
		return nil, err
	}
	c.quality.emitChain(symbol, result, true)
	return result, nil
}
