// Package session owns the per-symbol trading session and the typed
// artifacts published by each pipeline stage.
package session

import (
	"strings"
	"time"
)

// AgentRole identifies a pipeline agent.
type AgentRole string

const (
	RoleFundamentalAnalyst  AgentRole = "fundamental_analyst"
	RoleTechnicalAnalyst    AgentRole = "technical_analyst"
	RoleSentimentAnalyst    AgentRole = "sentiment_analyst"
	RoleNewsAnalyst         AgentRole = "news_analyst"
	RoleBullResearcher      AgentRole = "bull_researcher"
	RoleBearResearcher      AgentRole = "bear_researcher"
	RoleDebateCoordinator   AgentRole = "debate_coordinator"
	RoleTrader              AgentRole = "trader"
	RoleConservativeAnalyst AgentRole = "conservative_analyst"
	RoleAggressiveAnalyst   AgentRole = "aggressive_analyst"
	RoleNeutralAnalyst      AgentRole = "neutral_analyst"
	RoleRiskManager         AgentRole = "risk_manager"
	RoleFundManager         AgentRole = "fund_manager"
)

// AnalystRoles lists the analysis-stage roles in slot order.
var AnalystRoles = []AgentRole{
	RoleFundamentalAnalyst,
	RoleTechnicalAnalyst,
	RoleSentimentAnalyst,
	RoleNewsAnalyst,
}

// Recommendation values.
const (
	RecommendBuy  = "BUY"
	RecommendHold = "HOLD"
	RecommendSell = "SELL"
)

// NormalizeRecommendation maps free-form model output onto BUY/HOLD/SELL,
// defaulting to HOLD.
func NormalizeRecommendation(raw string) string {
	switch raw {
	case RecommendBuy, RecommendHold, RecommendSell:
		return raw
	}
	upper := strings.ToUpper(raw)
	switch {
	case strings.Contains(upper, "BUY"):
		return RecommendBuy
	case strings.Contains(upper, "SELL"):
		return RecommendSell
	default:
		return RecommendHold
	}
}

// AnalysisReport is the analyst-stage artifact. Immutable once published.
type AnalysisReport struct {
	AnalystRole      AgentRole              `json:"analyst_role"`
	Symbol           string                 `json:"symbol"`
	AnalysisDate     time.Time              `json:"analysis_date"`
	KeyFindings      []string               `json:"key_findings"`
	Recommendation   string                 `json:"recommendation"`
	ConfidenceScore  float64                `json:"confidence_score"`
	RiskFactors      []string               `json:"risk_factors"`
	TimeHorizon      map[string]interface{} `json:"time_horizon"`
	ImpactMagnitude  float64                `json:"impact_magnitude"`
	SupportingData   map[string]interface{} `json:"supporting_data"`
	DetailedAnalysis string                 `json:"detailed_analysis"`
	ProcessingTime   time.Duration          `json:"processing_time"`
}

// WeightedScore combines the directional weight of the recommendation
// with confidence and impact magnitude. BUY=1.0, HOLD=0.5, SELL=0.0.
func (r *AnalysisReport) WeightedScore() float64 {
	weight := 0.5
	switch r.Recommendation {
	case RecommendBuy:
		weight = 1.0
	case RecommendSell:
		weight = 0.0
	}
	impact := r.ImpactMagnitude
	if impact == 0 {
		impact = 1.0
	}
	return weight * r.ConfidenceScore * impact
}

// DebateKind distinguishes the two debate state slots on a session.
type DebateKind string

const (
	DebateResearch DebateKind = "research"
	DebateRisk     DebateKind = "risk"
)

// DebateMessage is one turn in a debate, appended in strict temporal
// order. Model and Provider are set when the turn's transport came from
// the debate pool.
type DebateMessage struct {
	Round     int       `json:"round"`
	Speaker   AgentRole `json:"speaker"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model,omitempty"`
	Provider  string    `json:"provider,omitempty"`
}

// DebateState is owned by its coordinator; sealed when the debate ends.
type DebateState struct {
	Participants     []AgentRole     `json:"participants"`
	CurrentRound     int             `json:"current_round"`
	MaxRounds        int             `json:"max_rounds"`
	Messages         []DebateMessage `json:"messages"`
	ConsensusReached bool            `json:"consensus_reached"`
	FinalDecision    string          `json:"final_decision,omitempty"`
	Topic            string          `json:"topic"`
}

// TradingDecision is the trading-stage artifact. PositionSize is an
// absolute target weight, not a delta.
type TradingDecision struct {
	Symbol             string                 `json:"symbol"`
	Recommendation     string                 `json:"recommendation"`
	ConfidenceScore    float64                `json:"confidence_score"`
	TargetPrice        float64                `json:"target_price"`
	StopLoss           float64                `json:"stop_loss"`
	TakeProfit         float64                `json:"take_profit"`
	PositionSize       float64                `json:"position_size"`
	AcceptablePriceMin float64                `json:"acceptable_price_min"`
	AcceptablePriceMax float64                `json:"acceptable_price_max"`
	TimeHorizon        string                 `json:"time_horizon"`
	Reasoning          string                 `json:"reasoning"`
	RiskFactors        []string               `json:"risk_factors"`
	ExecutionPlan      map[string]interface{} `json:"execution_plan"`
	DecisionTimestamp  time.Time              `json:"decision_timestamp"`
	AnalystConsensus   map[string]interface{} `json:"analyst_consensus,omitempty"`
	DebateInfluence    string                 `json:"debate_influence,omitempty"`
}

// RiskDecision is the risk manager's adjudication of the risk debate.
type RiskDecision struct {
	RecommendedAction  string   `json:"recommended_action"`
	RiskLevel          string   `json:"risk_level"`
	ConfidenceLevel    float64  `json:"confidence_level"`
	PositionAdjustment string   `json:"position_adjustment"`
	KeyRiskFactors     []string `json:"key_risk_factors"`
	Mitigation         []string `json:"mitigation"`
	Monitoring         []string `json:"monitoring"`
	ContingencyPlans   []string `json:"contingency_plans"`
	DecisionRationale  string   `json:"decision_rationale"`
	DebateHistoryRef   string   `json:"debate_history_ref,omitempty"`
}

// InvestmentDecision is the full-mode final artifact.
type InvestmentDecision struct {
	FinalRecommendation  string   `json:"final_recommendation"`
	ConfidenceScore      float64  `json:"confidence_score"`
	PositionSize         float64  `json:"position_size"`
	EntryStrategy        string   `json:"entry_strategy"`
	ExitStrategy         string   `json:"exit_strategy"`
	RiskManagementRules  []string `json:"risk_management_rules"`
	MonitoringIndicators []string `json:"monitoring_indicators"`
	DecisionSummary      string   `json:"decision_summary"`
	NextReviewDate       string   `json:"next_review_date"`
}

// TradingSession is the scope of one symbol's analysis lifecycle.
type TradingSession struct {
	SessionID string    `json:"session_id"`
	Symbol    string    `json:"symbol"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time,omitempty"`

	AnalysisReports map[AgentRole]*AnalysisReport `json:"analysis_reports"`

	ResearchDebate *DebateState `json:"research_debate,omitempty"`
	RiskDebate     *DebateState `json:"risk_debate,omitempty"`

	TradingDecision        *TradingDecision    `json:"trading_decision,omitempty"`
	RiskManagementDecision *RiskDecision       `json:"risk_management_decision,omitempty"`
	FinalRecommendation    *InvestmentDecision `json:"final_recommendation,omitempty"`

	ExecutedTrades     []map[string]interface{} `json:"executed_trades"`
	PerformanceMetrics map[string]float64       `json:"performance_metrics"`
}
