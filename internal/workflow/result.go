package workflow

import (
	"time"

	"github.com/irfndi/tradecouncil/internal/session"
)

// Stage names the pipeline stage a result refers to.
type Stage string

const (
	StageAnalysis Stage = "ANALYSIS"
	StageDebate   Stage = "DEBATE"
	StageTrading  Stage = "TRADING"
	StageRisk     Stage = "RISK"
	StageFinal    Stage = "FINAL"
)

// Mode selects how far the pipeline runs.
type Mode string

const (
	ModeQuick Mode = "quick"
	ModeFull  Mode = "full"
)

// Result is the workflow's user-visible outcome. On failure Stage and
// Error identify where it stopped; artifacts published before the
// failure are preserved.
type Result struct {
	Success   bool          `json:"success"`
	Symbol    string        `json:"symbol"`
	Mode      Mode          `json:"mode"`
	SessionID string        `json:"session_id"`
	Stage     Stage         `json:"stage,omitempty"`
	Error     string        `json:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`

	Recommendation  string  `json:"recommendation,omitempty"`
	ConfidenceScore float64 `json:"confidence_score,omitempty"`
	PositionSize    float64 `json:"position_size,omitempty"`

	AnalysisReports map[session.AgentRole]*session.AnalysisReport `json:"analysis_reports,omitempty"`
	AnalysisErrors  map[session.AgentRole]string                  `json:"analysis_errors,omitempty"`

	TradingDecision    *session.TradingDecision    `json:"trading_decision,omitempty"`
	RiskDecision       *session.RiskDecision       `json:"risk_management,omitempty"`
	InvestmentDecision *session.InvestmentDecision `json:"investment_decision,omitempty"`
}
