// Package debate implements the two debate state machines: the bull/bear
// research debate with its judge, and the three-party risk debate with
// the risk manager's adjudication.
package debate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/irfndi/tradecouncil/internal/agent"
	"github.com/irfndi/tradecouncil/internal/llm"
	"github.com/irfndi/tradecouncil/internal/session"
	"github.com/irfndi/tradecouncil/internal/tools"
)

// ErrDebateEmpty reports a research debate that produced no messages
// when rounds were configured.
var ErrDebateEmpty = errors.New("research debate produced no messages")

// ResearchConfig tunes the research debate.
type ResearchConfig struct {
	MaxRounds          int
	ConsensusThreshold float64

	// Pool enables per-turn model selection for researcher turns. The
	// chosen model is stamped on the debate message.
	Pool *llm.Pool
}

// ResearchOutcome is the sealed result of the research debate.
type ResearchOutcome struct {
	Decision   string
	Confidence float64
	Winner     string
	Consensus  bool
	Judgment   map[string]interface{}
	Quality    map[string]interface{}
	BullThesis map[string]interface{}
	BearThesis map[string]interface{}
	Fallback   bool
}

// ResearchDebate drives the bull/bear debate through its phases:
// initial research, alternating rounds, judgment, and an optional
// quality evaluation.
type ResearchDebate struct {
	bull        *agent.Researcher
	bear        *agent.Researcher
	coordinator *agent.Coordinator
	sessions    *session.Manager
	config      ResearchConfig
	logger      *zap.Logger
}

// NewResearchDebate builds the research debate coordinator.
func NewResearchDebate(bull, bear *agent.Researcher, coordinator *agent.Coordinator, sessions *session.Manager, config ResearchConfig, logger *zap.Logger) *ResearchDebate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResearchDebate{
		bull:        bull,
		bear:        bear,
		coordinator: coordinator,
		sessions:    sessions,
		config:      config,
		logger:      logger.With(zap.String("debate", "research")),
	}
}

// Run executes the full debate for one symbol over the analyst reports.
func (d *ResearchDebate) Run(ctx context.Context, symbol string, reports map[session.AgentRole]*session.AnalysisReport) (*ResearchOutcome, error) {
	state := d.sessions.StartResearchDebate(
		[]session.AgentRole{session.RoleBullResearcher, session.RoleBearResearcher},
		d.config.MaxRounds)
	if state != nil {
		state.Topic = "investment research: " + symbol
	}

	bullThesis, err := d.bull.Process(ctx, symbol, reports)
	if err != nil {
		return nil, fmt.Errorf("bull research: %w", err)
	}
	bearThesis, err := d.bear.Process(ctx, symbol, reports)
	if err != nil {
		return nil, fmt.Errorf("bear research: %w", err)
	}

	lastBull := tools.Stringify(bullThesis)
	lastBear := tools.Stringify(bearThesis)

	for round := 1; round <= d.config.MaxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bullText, err := d.turn(ctx, d.bull, symbol, lastBear, round)
		if err != nil {
			return nil, fmt.Errorf("bull turn (round %d): %w", round, err)
		}
		lastBull = bullText

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bearText, err := d.turn(ctx, d.bear, symbol, lastBull, round)
		if err != nil {
			return nil, fmt.Errorf("bear turn (round %d): %w", round, err)
		}
		lastBear = bearText
	}

	if d.config.MaxRounds > 0 {
		snapshot := d.sessions.Snapshot()
		if snapshot == nil || snapshot.ResearchDebate == nil || len(snapshot.ResearchDebate.Messages) == 0 {
			return nil, ErrDebateEmpty
		}
	}

	outcome := d.judge(ctx, symbol, bullThesis, bearThesis, reports)
	d.sessions.SealDebate(session.DebateResearch, outcome.Decision, outcome.Consensus)

	d.logger.Info("research debate concluded",
		zap.String("symbol", symbol),
		zap.String("decision", outcome.Decision),
		zap.Float64("confidence", outcome.Confidence),
		zap.String("winner", outcome.Winner),
		zap.Bool("fallback", outcome.Fallback))
	return outcome, nil
}

// turn runs one researcher rebuttal, routing through the pool when one
// is configured, and appends the resulting debate message.
func (d *ResearchDebate) turn(ctx context.Context, speaker *agent.Researcher, symbol, opponentArgument string, round int) (string, error) {
	var client llm.Client
	var model string
	if d.config.Pool != nil {
		if entry, ok := d.config.Pool.Pick(); ok {
			client, model = entry.Client, entry.Model
		}
	}

	var text string
	var err error
	if client != nil {
		text, err = speaker.RebutWith(ctx, client, model, symbol, opponentArgument, round)
	} else {
		text, err = speaker.Rebut(ctx, symbol, opponentArgument, round)
	}
	if err != nil {
		return "", err
	}

	msg := session.DebateMessage{
		Round:   round,
		Speaker: speaker.Role(),
		Content: text,
		Model:   model,
	}
	if client != nil {
		msg.Provider = string(client.Provider())
	}
	d.sessions.AddDebateMessage(session.DebateResearch, msg)
	return text, nil
}

// judge runs the judgment pass, falling back to report-based scoring
// when the coordinator cannot produce a judgment. The quality pass is
// best-effort.
func (d *ResearchDebate) judge(ctx context.Context, symbol string, bullThesis, bearThesis map[string]interface{}, reports map[session.AgentRole]*session.AnalysisReport) *ResearchOutcome {
	transcript := d.transcript(bullThesis, bearThesis)

	outcome := &ResearchOutcome{BullThesis: bullThesis, BearThesis: bearThesis}

	judgment, err := d.coordinator.Judge(ctx, symbol, transcript, reports)
	if err != nil {
		d.logger.Warn("judge pass failed, applying fallback scoring", zap.Error(err))
		decision, confidence := FallbackJudgment(reports)
		outcome.Decision = decision
		outcome.Confidence = confidence
		outcome.Winner = fallbackWinner(decision)
		outcome.Fallback = true
		// Downstream stages still expect a debate conclusion, so the
		// fallback synthesizes one from the report scoring.
		outcome.Judgment = map[string]interface{}{
			"decision":   decision,
			"confidence": confidence,
			"winner":     outcome.Winner,
			"reasoning":  "judge unavailable; scored analyst reports by recommendation confidence",
		}
	} else {
		outcome.Judgment = judgment
		outcome.Decision = session.NormalizeRecommendation(stringValue(judgment["decision"]))
		outcome.Confidence = floatValue(judgment["confidence"])
		outcome.Winner = stringValue(judgment["winner"])
	}
	outcome.Consensus = outcome.Confidence >= d.config.ConsensusThreshold

	if quality, qerr := d.coordinator.EvaluateQuality(ctx, symbol, transcript); qerr != nil {
		d.logger.Warn("debate quality evaluation failed", zap.Error(qerr))
	} else {
		outcome.Quality = quality
	}
	return outcome
}

func (d *ResearchDebate) transcript(bullThesis, bearThesis map[string]interface{}) string {
	var b strings.Builder
	b.WriteString("Bull initial thesis:\n")
	b.WriteString(tools.Stringify(bullThesis))
	b.WriteString("\n\nBear initial thesis:\n")
	b.WriteString(tools.Stringify(bearThesis))
	b.WriteString("\n\n")

	if snapshot := d.sessions.Snapshot(); snapshot != nil && snapshot.ResearchDebate != nil {
		for _, msg := range snapshot.ResearchDebate.Messages {
			fmt.Fprintf(&b, "%s (round %d): %s\n\n", speakerLabel(msg.Speaker), msg.Round, msg.Content)
		}
	}
	return b.String()
}

// FallbackJudgment scores the analyst reports directly: each report adds
// its confidence to its recommendation's bucket, the largest bucket
// wins, and ties resolve to HOLD. The returned confidence is the winning
// bucket's average, capped at 0.8.
func FallbackJudgment(reports map[session.AgentRole]*session.AnalysisReport) (string, float64) {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, report := range reports {
		if report == nil {
			continue
		}
		sums[report.Recommendation] += report.ConfidenceScore
		counts[report.Recommendation]++
	}

	decision := session.RecommendHold
	best := 0.0
	tied := false
	for _, rec := range []string{session.RecommendBuy, session.RecommendHold, session.RecommendSell} {
		sum := sums[rec]
		switch {
		case sum > best:
			decision, best, tied = rec, sum, false
		case sum == best && sum > 0:
			tied = true
		}
	}
	if tied || best == 0 {
		return session.RecommendHold, 0.5
	}

	confidence := sums[decision] / float64(counts[decision])
	if confidence > 0.8 {
		confidence = 0.8
	}
	return decision, confidence
}

func fallbackWinner(decision string) string {
	switch decision {
	case session.RecommendBuy:
		return "bull"
	case session.RecommendSell:
		return "bear"
	default:
		return "draw"
	}
}

func speakerLabel(role session.AgentRole) string {
	switch role {
	case session.RoleBullResearcher:
		return "Bull"
	case session.RoleBearResearcher:
		return "Bear"
	case session.RoleConservativeAnalyst:
		return "Conservative"
	case session.RoleAggressiveAnalyst:
		return "Aggressive"
	case session.RoleNeutralAnalyst:
		return "Neutral"
	default:
		return string(role)
	}
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func floatValue(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}
