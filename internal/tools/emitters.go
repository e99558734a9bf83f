package tools

import "context"

// Result emitters. Each agent carries exactly one terminal emitter: a pure
// projection that assembles the model's flat named arguments into the
// structured mapping that becomes the agent's output. They never touch the
// network and never fail.

// Terminal tool names, one per agent type.
const (
	ToolEmitFundamentalAnalysis    = "emit_fundamental_analysis"
	ToolEmitTechnicalAnalysis      = "emit_technical_analysis"
	ToolEmitSentimentAnalysis      = "emit_sentiment_analysis"
	ToolEmitNewsAnalysis           = "emit_news_analysis"
	ToolEmitBullResearch           = "emit_bull_research_result"
	ToolEmitBearResearch           = "emit_bear_research_result"
	ToolEmitDebateJudgment         = "emit_debate_judgment"
	ToolEmitDebateQuality          = "emit_debate_quality_evaluation"
	ToolEmitTradingDecision        = "emit_trading_decision"
	ToolEmitConservativeRisk       = "emit_conservative_risk_analysis"
	ToolEmitAggressiveOpportunity  = "emit_aggressive_opportunity_analysis"
	ToolEmitNeutralBalance         = "emit_neutral_balance_analysis"
	ToolEmitRiskManagementDecision = "emit_risk_management_decision"
	ToolEmitFundManagerDecision    = "emit_fund_manager_decision"
)

// RegisterFundamentalEmitter adds the fundamental analyst's terminal tool.
func RegisterFundamentalEmitter(r *Registry) {
	r.Register(ToolEmitFundamentalAnalysis,
		"Emit the final structured fundamental analysis. Call exactly once when the analysis is complete.",
		[]Param{
			{Name: "key_findings", Type: TypeArray, Items: TypeString, Description: "Key fundamental findings"},
			{Name: "recommendation", Type: TypeString, Description: "BUY, HOLD, or SELL"},
			{Name: "confidence_score", Type: TypeNumber, Description: "Confidence in [0,1]"},
			{Name: "valuation_current_valuation", Type: TypeString, Description: "Current valuation assessment"},
			{Name: "valuation_target_price_min", Type: TypeNumber, Description: "Low end of the fair value range"},
			{Name: "valuation_target_price_max", Type: TypeNumber, Description: "High end of the fair value range"},
			{Name: "valuation_pe_assessment", Type: TypeString, Description: "P/E assessment"},
			{Name: "valuation_pb_assessment", Type: TypeString, Description: "P/B assessment"},
			{Name: "financial_overall_rating", Type: TypeString, Description: "Overall financial health rating"},
			{Name: "financial_debt_level", Type: TypeString, Description: "Debt level assessment"},
			{Name: "financial_profitability", Type: TypeString, Description: "Profitability assessment"},
			{Name: "growth_revenue_outlook", Type: TypeString, Description: "Revenue growth outlook"},
			{Name: "growth_market_position", Type: TypeString, Description: "Market position"},
			{Name: "growth_competitive_advantage", Type: TypeString, Description: "Competitive advantage"},
			{Name: "risk_factors", Type: TypeArray, Items: TypeString, Description: "Fundamental risk factors"},
			{Name: "catalysts", Type: TypeArray, Items: TypeString, Description: "Upcoming catalysts"},
			{Name: "time_short_term", Type: TypeString, Description: "Short-term outlook"},
			{Name: "time_long_term", Type: TypeString, Description: "Long-term outlook"},
			{Name: "supporting_evidence", Type: TypeString, Description: "Detailed supporting evidence"},
		},
		func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"key_findings":     StringList(args, "key_findings"),
				"recommendation":   String(args, "recommendation"),
				"confidence_score": Float(args, "confidence_score"),
				"valuation": map[string]interface{}{
					"current_valuation": String(args, "valuation_current_valuation"),
					"target_price_min":  Float(args, "valuation_target_price_min"),
					"target_price_max":  Float(args, "valuation_target_price_max"),
					"pe_assessment":     String(args, "valuation_pe_assessment"),
					"pb_assessment":     String(args, "valuation_pb_assessment"),
				},
				"financial_health": map[string]interface{}{
					"overall_rating": String(args, "financial_overall_rating"),
					"debt_level":     String(args, "financial_debt_level"),
					"profitability":  String(args, "financial_profitability"),
				},
				"growth_prospects": map[string]interface{}{
					"revenue_outlook":       String(args, "growth_revenue_outlook"),
					"market_position":       String(args, "growth_market_position"),
					"competitive_advantage": String(args, "growth_competitive_advantage"),
				},
				"risk_factors": StringList(args, "risk_factors"),
				"catalysts":    StringList(args, "catalysts"),
				"time_horizon": map[string]interface{}{
					"short_term": String(args, "time_short_term"),
					"long_term":  String(args, "time_long_term"),
				},
				"supporting_evidence": String(args, "supporting_evidence"),
			}, nil
		})
}

// RegisterTechnicalEmitter adds the technical analyst's terminal tool.
func RegisterTechnicalEmitter(r *Registry) {
	r.Register(ToolEmitTechnicalAnalysis,
		"Emit the final structured technical analysis. Call exactly once when the analysis is complete.",
		[]Param{
			{Name: "key_findings", Type: TypeArray, Items: TypeString, Description: "Key technical findings"},
			{Name: "recommendation", Type: TypeString, Description: "BUY, HOLD, or SELL"},
			{Name: "confidence_score", Type: TypeNumber, Description: "Confidence in [0,1]"},
			{Name: "trend_direction", Type: TypeString, Description: "up, down, or sideways"},
			{Name: "trend_strength", Type: TypeString, Description: "strong, moderate, or weak"},
			{Name: "levels_support_primary", Type: TypeNumber, Description: "Primary support level"},
			{Name: "levels_support_secondary", Type: TypeNumber, Description: "Secondary support level"},
			{Name: "levels_resistance_primary", Type: TypeNumber, Description: "Primary resistance level"},
			{Name: "levels_resistance_secondary", Type: TypeNumber, Description: "Secondary resistance level"},
			{Name: "signals_momentum", Type: TypeString, Description: "Momentum signal"},
			{Name: "signals_volume", Type: TypeString, Description: "Volume signal"},
			{Name: "signals_volatility", Type: TypeString, Description: "Volatility signal"},
			{Name: "risk_factors", Type: TypeArray, Items: TypeString, Description: "Technical risk factors"},
			{Name: "time_short_term", Type: TypeString, Description: "Short-term view"},
			{Name: "time_medium_term", Type: TypeString, Description: "Medium-term view"},
			{Name: "time_long_term", Type: TypeString, Description: "Long-term view"},
			{Name: "supporting_evidence", Type: TypeString, Description: "Indicator readings backing the call"},
		},
		func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"key_findings":     StringList(args, "key_findings"),
				"recommendation":   String(args, "recommendation"),
				"confidence_score": Float(args, "confidence_score"),
				"trend_direction":  String(args, "trend_direction"),
				"trend_strength":   String(args, "trend_strength"),
				"key_levels": map[string]interface{}{
					"support": map[string]interface{}{
						"primary":   Float(args, "levels_support_primary"),
						"secondary": Float(args, "levels_support_secondary"),
					},
					"resistance": map[string]interface{}{
						"primary":   Float(args, "levels_resistance_primary"),
						"secondary": Float(args, "levels_resistance_secondary"),
					},
				},
				"technical_signals": map[string]interface{}{
					"momentum":   String(args, "signals_momentum"),
					"volume":     String(args, "signals_volume"),
					"volatility": String(args, "signals_volatility"),
				},
				"risk_factors": StringList(args, "risk_factors"),
				"time_horizon": map[string]interface{}{
					"short_term":  String(args, "time_short_term"),
					"medium_term": String(args, "time_medium_term"),
					"long_term":   String(args, "time_long_term"),
				},
				"supporting_evidence": String(args, "supporting_evidence"),
			}, nil
		})
}

// RegisterSentimentEmitter adds the sentiment analyst's terminal tool.
func RegisterSentimentEmitter(r *Registry) {
	r.Register(ToolEmitSentimentAnalysis,
		"Emit the final structured sentiment analysis. Call exactly once when the analysis is complete.",
		[]Param{
			{Name: "key_findings", Type: TypeArray, Items: TypeString, Description: "Key sentiment findings"},
			{Name: "recommendation", Type: TypeString, Description: "BUY, HOLD, or SELL"},
			{Name: "confidence_score", Type: TypeNumber, Description: "Confidence in [0,1]"},
			{Name: "sentiment_level", Type: TypeString, Description: "Overall sentiment level"},
			{Name: "sentiment_score", Type: TypeNumber, Description: "Sentiment score in [0,1], 0.5 neutral"},
			{Name: "sentiment_magnitude", Type: TypeNumber, Description: "Sentiment strength in [0,1]"},
			{Name: "turning_points", Type: TypeArray, Items: TypeString, Description: "Sentiment turning points"},
			{Name: "contrarian_signals", Type: TypeArray, Items: TypeString, Description: "Contrarian signals"},
			{Name: "market_mood_indicators", Type: TypeObject, Description: "Mood indicator readings"},
			{Name: "risk_factors", Type: TypeArray, Items: TypeString, Description: "Sentiment risk factors"},
			{Name: "time_short_term", Type: TypeString, Description: "Short-term view"},
			{Name: "time_medium_term", Type: TypeString, Description: "Medium-term view"},
			{Name: "supporting_evidence", Type: TypeString, Description: "Evidence backing the read"},
		},
		func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"key_findings":           StringList(args, "key_findings"),
				"recommendation":         String(args, "recommendation"),
				"confidence_score":       Float(args, "confidence_score"),
				"sentiment_level":        String(args, "sentiment_level"),
				"sentiment_score":        Float(args, "sentiment_score"),
				"sentiment_magnitude":    Float(args, "sentiment_magnitude"),
				"turning_points":         StringList(args, "turning_points"),
				"contrarian_signals":     StringList(args, "contrarian_signals"),
				"market_mood_indicators": Mapping(args, "market_mood_indicators"),
				"risk_factors":           StringList(args, "risk_factors"),
				"time_frame": map[string]interface{}{
					"short_term":  String(args, "time_short_term"),
					"medium_term": String(args, "time_medium_term"),
				},
				"supporting_evidence": String(args, "supporting_evidence"),
			}, nil
		})
}

// RegisterNewsEmitter adds the news analyst's terminal tool.
func RegisterNewsEmitter(r *Registry) {
	r.Register(ToolEmitNewsAnalysis,
		"Emit the final structured news analysis. Call exactly once when the analysis is complete.",
		[]Param{
			{Name: "key_findings", Type: TypeArray, Items: TypeString, Description: "Key news findings"},
			{Name: "recommendation", Type: TypeString, Description: "BUY, HOLD, or SELL"},
			{Name: "confidence_score", Type: TypeNumber, Description: "Confidence in [0,1]"},
			{Name: "news_impact", Type: TypeString, Description: "Assessed news impact"},
			{Name: "impact_magnitude", Type: TypeNumber, Description: "Impact strength in [0,1]"},
			{Name: "market_reaction_prediction", Type: TypeString, Description: "Predicted market reaction"},
			{Name: "catalyst_events", Type: TypeArray, Items: TypeString, Description: "Catalyst events"},
			{Name: "risk_factors", Type: TypeArray, Items: TypeString, Description: "News-driven risk factors"},
			{Name: "time_short_term", Type: TypeString, Description: "Short-term impact"},
			{Name: "time_medium_term", Type: TypeString, Description: "Medium-term impact"},
			{Name: "supporting_evidence", Type: TypeString, Description: "Evidence backing the read"},
		},
		func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"key_findings":               StringList(args, "key_findings"),
				"recommendation":             String(args, "recommendation"),
				"confidence_score":           Float(args, "confidence_score"),
				"news_impact":                String(args, "news_impact"),
				"impact_magnitude":           Float(args, "impact_magnitude"),
				"market_reaction_prediction": String(args, "market_reaction_prediction"),
				"catalyst_events":            StringList(args, "catalyst_events"),
				"risk_factors":               StringList(args, "risk_factors"),
				"time_frame": map[string]interface{}{
					"short_term":  String(args, "time_short_term"),
					"medium_term": String(args, "time_medium_term"),
				},
				"supporting_evidence": String(args, "supporting_evidence"),
			}, nil
		})
}

// RegisterBullResearchEmitter adds the bull researcher's terminal tool.
func RegisterBullResearchEmitter(r *Registry) {
	r.Register(ToolEmitBullResearch,
		"Emit the final bull research thesis. Call exactly once when the research is complete.",
		[]Param{
			{Name: "bull_thesis", Type: TypeString, Description: "Core bull thesis"},
			{Name: "key_bull_points", Type: TypeArray, Items: TypeString, Description: "Core buy arguments"},
			{Name: "target_price", Type: TypeNumber, Description: "Target price"},
			{Name: "upside_potential", Type: TypeNumber, Description: "Upside percentage"},
			{Name: "investment_horizon", Type: TypeString, Description: "Investment horizon"},
			{Name: "catalysts", Type: TypeArray, Items: TypeString, Description: "Catalysts"},
			{Name: "risk_mitigation", Type: TypeArray, Items: TypeString, Description: "Risk mitigating factors"},
			{Name: "confidence_level", Type: TypeNumber, Description: "Confidence in [0,1]"},
			{Name: "supporting_evidence", Type: TypeString, Description: "Detailed argumentation"},
		},
		func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"bull_thesis":         String(args, "bull_thesis"),
				"key_bull_points":     StringList(args, "key_bull_points"),
				"target_price":        Float(args, "target_price"),
				"upside_potential":    Float(args, "upside_potential"),
				"investment_horizon":  String(args, "investment_horizon"),
				"catalysts":           StringList(args, "catalysts"),
				"risk_mitigation":     StringList(args, "risk_mitigation"),
				"confidence_level":    Float(args, "confidence_level"),
				"supporting_evidence": String(args, "supporting_evidence"),
			}, nil
		})
}

// RegisterBearResearchEmitter adds the bear researcher's terminal tool.
func RegisterBearResearchEmitter(r *Registry) {
	r.Register(ToolEmitBearResearch,
		"Emit the final bear research thesis. Call exactly once when the research is complete.",
		[]Param{
			{Name: "bear_thesis", Type: TypeString, Description: "Core bear thesis"},
			{Name: "key_risk_points", Type: TypeArray, Items: TypeString, Description: "Core risk arguments"},
			{Name: "target_price", Type: TypeNumber, Description: "Target price"},
			{Name: "downside_risk", Type: TypeNumber, Description: "Downside percentage"},
			{Name: "risk_horizon", Type: TypeString, Description: "Risk horizon"},
			{Name: "negative_catalysts", Type: TypeArray, Items: TypeString, Description: "Negative catalysts"},
			{Name: "structural_issues", Type: TypeArray, Items: TypeString, Description: "Structural issues"},
			{Name: "confidence_level", Type: TypeNumber, Description: "Confidence in [0,1]"},
			{Name: "supporting_evidence", Type: TypeString, Description: "Detailed argumentation"},
		},
		func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"bear_thesis":         String(args, "bear_thesis"),
				"key_risk_points":     StringList(args, "key_risk_points"),
				"target_price":        Float(args, "target_price"),
				"downside_risk":       Float(args, "downside_risk"),
				"risk_horizon":        String(args, "risk_horizon"),
				"negative_catalysts":  StringList(args, "negative_catalysts"),
				"structural_issues":   StringList(args, "structural_issues"),
				"confidence_level":    Float(args, "confidence_level"),
				"supporting_evidence": String(args, "supporting_evidence"),
			}, nil
		})
}

// RegisterDebateJudgmentEmitter adds the research-debate judge's terminal tool.
func RegisterDebateJudgmentEmitter(r *Registry) {
	r.Register(ToolEmitDebateJudgment,
		"Emit the final debate judgment. Call exactly once after weighing both sides.",
		[]Param{
			{Name: "decision", Type: TypeString, Description: "Investment decision"},
			{Name: "confidence", Type: TypeNumber, Description: "Confidence in [0,1]"},
			{Name: "reasoning", Type: TypeString, Description: "Judgment reasoning"},
			{Name: "supporting_factors", Type: TypeArray, Items: TypeString, Description: "Key supporting factors"},
			{Name: "risk_factors", Type: TypeArray, Items: TypeString, Description: "Key risk factors"},
			{Name: "investment_strategy", Type: TypeString, Description: "Suggested strategy"},
			{Name: "winner", Type: TypeString, Description: "bull, bear, or draw"},
			{Name: "winning_arguments", Type: TypeArray, Items: TypeString, Description: "Winning arguments"},
		},
		func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"decision":            String(args, "decision"),
				"confidence":          Float(args, "confidence"),
				"reasoning":           String(args, "reasoning"),
				"supporting_factors":  StringList(args, "supporting_factors"),
				"risk_factors":        StringList(args, "risk_factors"),
				"investment_strategy": String(args, "investment_strategy"),
				"winner":              String(args, "winner"),
				"winning_arguments":   StringList(args, "winning_arguments"),
			}, nil
		})
}

// RegisterDebateQualityEmitter adds the debate quality evaluation tool.
func RegisterDebateQualityEmitter(r *Registry) {
	r.Register(ToolEmitDebateQuality,
		"Emit the debate quality evaluation. Call exactly once.",
		[]Param{
			{Name: "debate_quality", Type: TypeString, Description: "Quality rating"},
			{Name: "quality_score", Type: TypeNumber, Description: "Quality score in [0,1]"},
			{Name: "argument_strengths", Type: TypeObject, Description: "Per-side argument strength"},
			{Name: "key_insights", Type: TypeArray, Items: TypeString, Description: "Key insights"},
			{Name: "consensus_level", Type: TypeString, Description: "Consensus level"},
			{Name: "decision_confidence", Type: TypeNumber, Description: "Decision confidence in [0,1]"},
			{Name: "evaluation_summary", Type: TypeString, Description: "Evaluation summary"},
		},
		func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"debate_quality":      String(args, "debate_quality"),
				"quality_score":       Float(args, "quality_score"),
				"argument_strengths":  Mapping(args, "argument_strengths"),
				"key_insights":        StringList(args, "key_insights"),
				"consensus_level":     String(args, "consensus_level"),
				"decision_confidence": Float(args, "decision_confidence"),
				"evaluation_summary":  String(args, "evaluation_summary"),
			}, nil
		})
}

// RegisterTradingDecisionEmitter adds the trader's terminal tool. The
// position_size argument is the target weight after the trade, never a
// delta.
func RegisterTradingDecisionEmitter(r *Registry) {
	r.Register(ToolEmitTradingDecision,
		"Emit the trading decision for the current position state. Call exactly once. position_size is the target weight, not a change.",
		[]Param{
			{Name: "recommendation", Type: TypeString, Description: "BUY, HOLD, or SELL"},
			{Name: "confidence_score", Type: TypeNumber, Description: "Confidence in [0,1]"},
			{Name: "target_price", Type: TypeNumber, Description: "Target price"},
			{Name: "stop_loss", Type: TypeNumber, Description: "Stop-loss price"},
			{Name: "take_profit", Type: TypeNumber, Description: "Take-profit price"},
			{Name: "position_size", Type: TypeNumber, Description: "Target position weight in [0,1]"},
			{Name: "time_horizon", Type: TypeString, Description: "Decision horizon"},
			{Name: "reasoning", Type: TypeString, Description: "Decision rationale given the current position"},
			{Name: "key_factors", Type: TypeArray, Items: TypeString, Description: "Key decision factors"},
			{Name: "risk_factors", Type: TypeArray, Items: TypeString, Description: "Main risks of this trade"},
			{Name: "acceptable_price_min", Type: TypeNumber, Description: "Lowest acceptable execution price"},
			{Name: "acceptable_price_max", Type: TypeNumber, Description: "Highest acceptable execution price"},
			{Name: "immediate_action", Type: TypeString, Description: "Concrete action to take now"},
			{Name: "position_change_rationale", Type: TypeString, Description: "Why the position changes (or not)"},
			{Name: "weekly_monitoring_points", Type: TypeArray, Items: TypeString, Description: "Monitoring points"},
			{Name: "next_week_conditions", Type: TypeString, Description: "Re-evaluation conditions"},
			{Name: "current_market_assessment", Type: TypeString, Description: "Market timing assessment"},
			{Name: "alternative_scenarios", Type: TypeString, Description: "Fallback plans if conditions change"},
		},
		func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"recommendation":   String(args, "recommendation"),
				"confidence_score": Float(args, "confidence_score"),
				"position_size":    Float(args, "position_size"),
				"time_horizon":     String(args, "time_horizon"),
				"reasoning":        String(args, "reasoning"),
				"key_factors":      StringList(args, "key_factors"),
				"risk_factors":     StringList(args, "risk_factors"),
				"price_range": map[string]interface{}{
					"target_price":   Float(args, "target_price"),
					"acceptable_min": Float(args, "acceptable_price_min"),
					"acceptable_max": Float(args, "acceptable_price_max"),
				},
				"risk_management": map[string]interface{}{
					"stop_loss":   Float(args, "stop_loss"),
					"take_profit": Float(args, "take_profit"),
				},
				"execution_plan": map[string]interface{}{
					"immediate_action":          String(args, "immediate_action"),
					"position_change_rationale": String(args, "position_change_rationale"),
					"weekly_monitoring_points":  StringList(args, "weekly_monitoring_points"),
					"next_week_conditions":      String(args, "next_week_conditions"),
				},
				"market_timing": String(args, "current_market_assessment"),
				"alternatives":  String(args, "alternative_scenarios"),
			}, nil
		})
}

// RegisterConservativeRiskEmitter adds the conservative risk analyst's
// terminal tool.
func RegisterConservativeRiskEmitter(r *Registry) {
	r.Register(ToolEmitConservativeRisk,
		"Emit the conservative risk assessment of the trading decision. Call exactly once.",
		[]Param{
			{Name: "risk_assessment", Type: TypeString, Description: "Overall risk assessment"},
			{Name: "risk_level", Type: TypeString, Description: "LOW, MEDIUM, or HIGH"},
			{Name: "key_risks", Type: TypeArray, Items: TypeString, Description: "Main risk factors"},
			{Name: "conservative_recommendation", Type: TypeString, Description: "Conservative recommendation"},
			{Name: "position_adjustment", Type: TypeString, Description: "Suggested position adjustment"},
			{Name: "risk_mitigation", Type: TypeArray, Items: TypeString, Description: "Mitigation measures"},
			{Name: "alternative_strategies", Type: TypeArray, Items: TypeString, Description: "Alternative strategies"},
			{Name: "concerns", Type: TypeArray, Items: TypeString, Description: "Main concerns"},
			{Name: "confidence_level", Type: TypeNumber, Description: "Confidence in [0,1]"},
		},
		func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"risk_assessment":             String(args, "risk_assessment"),
				"risk_level":                  String(args, "risk_level"),
				"key_risks":                   StringList(args, "key_risks"),
				"conservative_recommendation": String(args, "conservative_recommendation"),
				"position_adjustment":         String(args, "position_adjustment"),
				"risk_mitigation":             StringList(args, "risk_mitigation"),
				"alternative_strategies":      StringList(args, "alternative_strategies"),
				"concerns":                    StringList(args, "concerns"),
				"confidence_level":            Float(args, "confidence_level"),
			}, nil
		})
}

// RegisterAggressiveOpportunityEmitter adds the aggressive risk analyst's
// terminal tool.
func RegisterAggressiveOpportunityEmitter(r *Registry) {
	r.Register(ToolEmitAggressiveOpportunity,
		"Emit the aggressive opportunity assessment of the trading decision. Call exactly once.",
		[]Param{
			{Name: "opportunity_assessment", Type: TypeString, Description: "Overall opportunity assessment"},
			{Name: "upside_potential", Type: TypeString, Description: "HIGH, MEDIUM, or LOW"},
			{Name: "key_opportunities", Type: TypeArray, Items: TypeString, Description: "Main opportunity factors"},
			{Name: "aggressive_recommendation", Type: TypeString, Description: "Aggressive recommendation"},
			{Name: "position_enhancement", Type: TypeString, Description: "Suggested position enhancement"},
			{Name: "growth_catalysts", Type: TypeArray, Items: TypeString, Description: "Growth catalysts"},
			{Name: "competitive_advantages", Type: TypeArray, Items: TypeString, Description: "Competitive advantages"},
			{Name: "timing_factors", Type: TypeArray, Items: TypeString, Description: "Timing factors"},
			{Name: "confidence_level", Type: TypeNumber, Description: "Confidence in [0,1]"},
		},
		func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"opportunity_assessment":    String(args, "opportunity_assessment"),
				"upside_potential":          String(args, "upside_potential"),
				"key_opportunities":         StringList(args, "key_opportunities"),
				"aggressive_recommendation": String(args, "aggressive_recommendation"),
				"position_enhancement":      String(args, "position_enhancement"),
				"growth_catalysts":          StringList(args, "growth_catalysts"),
				"competitive_advantages":    StringList(args, "competitive_advantages"),
				"timing_factors":            StringList(args, "timing_factors"),
				"confidence_level":          Float(args, "confidence_level"),
			}, nil
		})
}

// RegisterNeutralBalanceEmitter adds the neutral risk analyst's terminal
// tool.
func RegisterNeutralBalanceEmitter(r *Registry) {
	r.Register(ToolEmitNeutralBalance,
		"Emit the balanced risk/reward assessment of the trading decision. Call exactly once.",
		[]Param{
			{Name: "balance_assessment", Type: TypeString, Description: "Overall balance assessment"},
			{Name: "risk_reward_ratio", Type: TypeString, Description: "Risk/reward judgement"},
			{Name: "key_considerations", Type: TypeArray, Items: TypeString, Description: "Main considerations"},
			{Name: "balanced_recommendation", Type: TypeString, Description: "Balanced recommendation"},
			{Name: "optimal_position_size", Type: TypeString, Description: "Optimal position suggestion"},
			{Name: "timing_assessment", Type: TypeArray, Items: TypeString, Description: "Timing assessment"},
			{Name: "diversification_needs", Type: TypeArray, Items: TypeString, Description: "Diversification needs"},
			{Name: "monitoring_metrics", Type: TypeArray, Items: TypeString, Description: "Metrics to monitor"},
			{Name: "confidence_level", Type: TypeNumber, Description: "Confidence in [0,1]"},
		},
		func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"balance_assessment":      String(args, "balance_assessment"),
				"risk_reward_ratio":       String(args, "risk_reward_ratio"),
				"key_considerations":      StringList(args, "key_considerations"),
				"balanced_recommendation": String(args, "balanced_recommendation"),
				"optimal_position_size":   String(args, "optimal_position_size"),
				"timing_assessment":       StringList(args, "timing_assessment"),
				"diversification_needs":   StringList(args, "diversification_needs"),
				"monitoring_metrics":      StringList(args, "monitoring_metrics"),
				"confidence_level":        Float(args, "confidence_level"),
			}, nil
		})
}

// RegisterRiskManagementDecisionEmitter adds the risk manager's terminal
// tool.
func RegisterRiskManagementDecisionEmitter(r *Registry) {
	r.Register(ToolEmitRiskManagementDecision,
		"Emit the final risk management decision after adjudicating the risk debate. Call exactly once.",
		[]Param{
			{Name: "final_risk_assessment", Type: TypeString, Description: "Combined risk assessment"},
			{Name: "recommended_action", Type: TypeString, Description: "BUY, HOLD, or SELL"},
			{Name: "position_adjustment", Type: TypeString, Description: "Position adjustment"},
			{Name: "risk_level", Type: TypeString, Description: "LOW, MEDIUM, or HIGH"},
			{Name: "key_risk_factors", Type: TypeArray, Items: TypeString, Description: "Key risk factors"},
			{Name: "risk_mitigation_measures", Type: TypeArray, Items: TypeString, Description: "Mitigation measures"},
			{Name: "monitoring_requirements", Type: TypeArray, Items: TypeString, Description: "Monitoring requirements"},
			{Name: "contingency_plans", Type: TypeArray, Items: TypeString, Description: "Contingency plans"},
			{Name: "confidence_level", Type: TypeNumber, Description: "Confidence in [0,1]"},
			{Name: "decision_rationale", Type: TypeString, Description: "Detailed rationale"},
			{Name: "winning_arguments", Type: TypeArray, Items: TypeString, Description: "Most persuasive arguments"},
			{Name: "rejected_arguments", Type: TypeArray, Items: TypeString, Description: "Rejected arguments"},
		},
		func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"final_risk_assessment":    String(args, "final_risk_assessment"),
				"recommended_action":       String(args, "recommended_action"),
				"position_adjustment":      String(args, "position_adjustment"),
				"risk_level":               String(args, "risk_level"),
				"key_risk_factors":         StringList(args, "key_risk_factors"),
				"risk_mitigation_measures": StringList(args, "risk_mitigation_measures"),
				"monitoring_requirements":  StringList(args, "monitoring_requirements"),
				"contingency_plans":        StringList(args, "contingency_plans"),
				"confidence_level":         Float(args, "confidence_level"),
				"decision_rationale":       String(args, "decision_rationale"),
				"winning_arguments":        StringList(args, "winning_arguments"),
				"rejected_arguments":       StringList(args, "rejected_arguments"),
			}, nil
		})
}

// RegisterFundManagerDecisionEmitter adds the fund manager's terminal tool.
func RegisterFundManagerDecisionEmitter(r *Registry) {
	r.Register(ToolEmitFundManagerDecision,
		"Emit the final investment decision. Call exactly once after weighing all prior artifacts.",
		[]Param{
			{Name: "final_recommendation", Type: TypeString, Description: "BUY, HOLD, or SELL"},
			{Name: "confidence_score", Type: TypeNumber, Description: "Confidence in [0,1]"},
			{Name: "position_size", Type: TypeNumber, Description: "Position weight in [0,1]"},
			{Name: "entry_strategy", Type: TypeString, Description: "Entry strategy"},
			{Name: "exit_strategy", Type: TypeString, Description: "Exit strategy"},
			{Name: "risk_management_rules", Type: TypeArray, Items: TypeString, Description: "Risk management rules"},
			{Name: "key_decision_factors", Type: TypeArray, Items: TypeString, Description: "Key decision factors"},
			{Name: "alternative_scenarios", Type: TypeArray, Items: TypeObject, Description: "Alternative scenarios with actions and probabilities"},
			{Name: "monitoring_indicators", Type: TypeArray, Items: TypeString, Description: "Indicators to monitor"},
			{Name: "decision_summary", Type: TypeString, Description: "Decision summary"},
			{Name: "next_review_date", Type: TypeString, Description: "Next review date"},
		},
		func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"final_recommendation":  String(args, "final_recommendation"),
				"confidence_score":      Float(args, "confidence_score"),
				"position_size":         Float(args, "position_size"),
				"entry_strategy":        String(args, "entry_strategy"),
				"exit_strategy":         String(args, "exit_strategy"),
				"risk_management_rules": StringList(args, "risk_management_rules"),
				"key_decision_factors":  StringList(args, "key_decision_factors"),
				"alternative_scenarios": MappingList(args, "alternative_scenarios"),
				"monitoring_indicators": StringList(args, "monitoring_indicators"),
				"decision_summary":      String(args, "decision_summary"),
				"next_review_date":      String(args, "next_review_date"),
			}, nil
		})
}
