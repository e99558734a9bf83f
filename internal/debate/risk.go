package debate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/irfndi/tradecouncil/internal/agent"
	"github.com/irfndi/tradecouncil/internal/session"
	"github.com/irfndi/tradecouncil/internal/tools"
)

// Speaker order within one risk-debate round.
var riskSpeakerOrder = []session.AgentRole{
	session.RoleConservativeAnalyst,
	session.RoleAggressiveAnalyst,
	session.RoleNeutralAnalyst,
}

// Early-termination tuning: the predicate is only evaluated once at
// least minMessages exist, and fires when the history is at least
// minContentBytes long and any single keyword repeats more than
// keywordRepeatLimit times across the last minMessages messages.
const (
	minMessages        = 6
	minContentBytes    = 500
	keywordRepeatLimit = 3
)

var terminationKeywords = []string{"risk", "return", "recommend", "believe", "should"}

// RiskOutcome is the sealed result of the risk debate.
type RiskOutcome struct {
	Decision        *session.RiskDecision
	Analyses        map[session.AgentRole]map[string]interface{}
	Messages        int
	EndedEarly      bool
	RoundsCompleted int
}

// RiskDebate drives the three-party risk debate and the risk manager's
// adjudication.
type RiskDebate struct {
	conservative *agent.RiskAnalyst
	aggressive   *agent.RiskAnalyst
	neutral      *agent.RiskAnalyst
	manager      *agent.RiskManager
	sessions     *session.Manager
	maxRounds    int
	logger       *zap.Logger
}

// NewRiskDebate builds the risk debate coordinator.
func NewRiskDebate(conservative, aggressive, neutral *agent.RiskAnalyst, manager *agent.RiskManager, sessions *session.Manager, maxRounds int, logger *zap.Logger) *RiskDebate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RiskDebate{
		conservative: conservative,
		aggressive:   aggressive,
		neutral:      neutral,
		manager:      manager,
		sessions:     sessions,
		maxRounds:    maxRounds,
		logger:       logger.With(zap.String("debate", "risk")),
	}
}

// Run executes the risk debate over a trading decision: independent
// analyses, up to maxRounds of Conservative, Aggressive, Neutral turns
// with early termination, and the risk manager's adjudication.
func (d *RiskDebate) Run(ctx context.Context, symbol string, decision *session.TradingDecision) (*RiskOutcome, error) {
	if decision == nil {
		return nil, fmt.Errorf("risk debate: no trading decision")
	}

	state := d.sessions.StartRiskDebate(riskSpeakerOrder, d.maxRounds)
	if state != nil {
		state.Topic = "trade decision risk review: " + decision.Recommendation
	}

	analyses, err := d.independentAnalyses(ctx, symbol, decision)
	if err != nil {
		return nil, err
	}

	initials := map[session.AgentRole]string{
		session.RoleConservativeAnalyst: tools.Stringify(analyses[session.RoleConservativeAnalyst]),
		session.RoleAggressiveAnalyst:   tools.Stringify(analyses[session.RoleAggressiveAnalyst]),
		session.RoleNeutralAnalyst:      tools.Stringify(analyses[session.RoleNeutralAnalyst]),
	}

	var history []session.DebateMessage
	endedEarly := false
	rounds := 0

debate:
	for round := 1; round <= d.maxRounds; round++ {
		for _, role := range riskSpeakerOrder {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			opponents := OpponentArguments(role, history, initials)
			text, err := d.speaker(role).DebateTurn(ctx, nil, "", symbol, opponents, round)
			if err != nil {
				return nil, fmt.Errorf("%s turn (round %d): %w", role, round, err)
			}

			msg := session.DebateMessage{Round: round, Speaker: role, Content: text}
			history = append(history, msg)
			d.sessions.AddDebateMessage(session.DebateRisk, msg)

			if shouldEndDebate(history) {
				endedEarly = true
				d.logger.Info("risk debate terminated early",
					zap.Int("round", round),
					zap.Int("messages", len(history)))
				break debate
			}
		}
		rounds = round
	}

	riskDecision, err := d.manager.Adjudicate(ctx, symbol, decision, d.transcript(history, initials))
	if err != nil {
		return nil, fmt.Errorf("risk adjudication: %w", err)
	}
	d.sessions.SealDebate(session.DebateRisk, riskDecision.RecommendedAction, true)

	d.logger.Info("risk debate concluded",
		zap.String("symbol", symbol),
		zap.String("action", riskDecision.RecommendedAction),
		zap.Int("messages", len(history)),
		zap.Bool("ended_early", endedEarly))

	return &RiskOutcome{
		Decision:        riskDecision,
		Analyses:        analyses,
		Messages:        len(history),
		EndedEarly:      endedEarly,
		RoundsCompleted: rounds,
	}, nil
}

// independentAnalyses runs the conservative and aggressive assessments
// in parallel, then the neutral assessment over both results.
func (d *RiskDebate) independentAnalyses(ctx context.Context, symbol string, decision *session.TradingDecision) (map[session.AgentRole]map[string]interface{}, error) {
	var conservative, aggressive map[string]interface{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result, err := d.conservative.Assess(gctx, symbol, decision, "")
		if err != nil {
			return fmt.Errorf("conservative analysis: %w", err)
		}
		conservative = result
		return nil
	})
	g.Go(func() error {
		result, err := d.aggressive.Assess(gctx, symbol, decision, "")
		if err != nil {
			return fmt.Errorf("aggressive analysis: %w", err)
		}
		aggressive = result
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	priors := fmt.Sprintf("Conservative (initial analysis): %s\n\nAggressive (initial analysis): %s",
		tools.Stringify(conservative), tools.Stringify(aggressive))
	neutral, err := d.neutral.Assess(ctx, symbol, decision, priors)
	if err != nil {
		return nil, fmt.Errorf("neutral analysis: %w", err)
	}

	return map[session.AgentRole]map[string]interface{}{
		session.RoleConservativeAnalyst: conservative,
		session.RoleAggressiveAnalyst:   aggressive,
		session.RoleNeutralAnalyst:      neutral,
	}, nil
}

func (d *RiskDebate) speaker(role session.AgentRole) *agent.RiskAnalyst {
	switch role {
	case session.RoleConservativeAnalyst:
		return d.conservative
	case session.RoleAggressiveAnalyst:
		return d.aggressive
	default:
		return d.neutral
	}
}

func (d *RiskDebate) transcript(history []session.DebateMessage, initials map[session.AgentRole]string) string {
	var b strings.Builder
	for _, role := range riskSpeakerOrder {
		fmt.Fprintf(&b, "%s initial analysis:\n%s\n\n", speakerLabel(role), initials[role])
	}
	for _, msg := range history {
		fmt.Fprintf(&b, "%s (round %d): %s\n\n", speakerLabel(msg.Speaker), msg.Round, msg.Content)
	}
	return b.String()
}

// OpponentArguments is the routing rule feeding each speaker: a pure
// function of the current speaker, the debate history so far, and the
// initial analyses.
//
// First round: the Conservative opens against both initial analyses;
// the Aggressive sees the most recent Conservative message plus the
// Neutral initial analysis; the Neutral sees the most recent
// Conservative and Aggressive messages in temporal order. Later rounds:
// every message from the other speakers, in temporal order, labeled
// with speaker and round.
func OpponentArguments(speaker session.AgentRole, history []session.DebateMessage, initials map[session.AgentRole]string) string {
	round := 1
	if len(history) > 0 {
		round = history[len(history)-1].Round
		if speakerIndex(speaker) <= speakerIndex(history[len(history)-1].Speaker) {
			round++
		}
	}

	if round == 1 {
		switch speaker {
		case session.RoleConservativeAnalyst:
			return fmt.Sprintf("Aggressive (initial analysis): %s\n\nNeutral (initial analysis): %s",
				initials[session.RoleAggressiveAnalyst], initials[session.RoleNeutralAnalyst])
		case session.RoleAggressiveAnalyst:
			return fmt.Sprintf("Conservative (round %d): %s\n\nNeutral (initial analysis): %s",
				lastFrom(history, session.RoleConservativeAnalyst).Round,
				lastFrom(history, session.RoleConservativeAnalyst).Content,
				initials[session.RoleNeutralAnalyst])
		default:
			var b strings.Builder
			for _, msg := range history {
				if msg.Speaker == speaker {
					continue
				}
				fmt.Fprintf(&b, "%s (round %d): %s\n\n", speakerLabel(msg.Speaker), msg.Round, msg.Content)
			}
			return strings.TrimSuffix(b.String(), "\n\n")
		}
	}

	var b strings.Builder
	for _, msg := range history {
		if msg.Speaker == speaker {
			continue
		}
		fmt.Fprintf(&b, "%s (round %d): %s\n\n", speakerLabel(msg.Speaker), msg.Round, msg.Content)
	}
	return strings.TrimSuffix(b.String(), "\n\n")
}

func speakerIndex(role session.AgentRole) int {
	for i, r := range riskSpeakerOrder {
		if r == role {
			return i
		}
	}
	return len(riskSpeakerOrder)
}

func lastFrom(history []session.DebateMessage, role session.AgentRole) session.DebateMessage {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Speaker == role {
			return history[i]
		}
	}
	return session.DebateMessage{}
}

// shouldEndDebate is the early-termination predicate: never before six
// messages exist; then fires when the whole history carries at least 500
// bytes of content and any single keyword occurs more than three times
// across the last six messages.
func shouldEndDebate(history []session.DebateMessage) bool {
	if len(history) < minMessages {
		return false
	}

	total := 0
	for _, msg := range history {
		total += len(msg.Content)
	}
	if total < minContentBytes {
		return false
	}

	recent := history[len(history)-minMessages:]
	for _, keyword := range terminationKeywords {
		count := 0
		for _, msg := range recent {
			count += strings.Count(strings.ToLower(msg.Content), keyword)
		}
		if count > keywordRepeatLimit {
			return true
		}
	}
	return false
}
