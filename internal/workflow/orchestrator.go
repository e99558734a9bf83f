// Package workflow drives one symbol through the staged pipeline:
// analyst fan-out, research debate, trading, and in full mode the risk
// debate and fund manager decision.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/irfndi/tradecouncil/internal/agent"
	"github.com/irfndi/tradecouncil/internal/artifact"
	"github.com/irfndi/tradecouncil/internal/config"
	"github.com/irfndi/tradecouncil/internal/debate"
	"github.com/irfndi/tradecouncil/internal/llm"
	"github.com/irfndi/tradecouncil/internal/marketdata"
	"github.com/irfndi/tradecouncil/internal/session"
	"github.com/irfndi/tradecouncil/internal/tools"
)

// Synthetic sentiment defaults used when MarketData carries no social or
// mood readings.
var (
	defaultSocialMediaData = map[string]interface{}{
		"reddit_posts":     150,
		"twitter_mentions": 300,
		"positive_ratio":   0.65,
	}
	defaultSentimentIndicators = map[string]interface{}{
		"vix":              18.5,
		"put_call_ratio":   0.8,
		"fear_greed_index": 70,
	}
)

// Request describes one symbol analysis run.
type Request struct {
	Symbol          string
	MarketData      map[string]interface{}
	Analysts        []session.AgentRole
	QuickMode       bool
	CurrentPosition float64
}

// Orchestrator owns the per-symbol pipeline: one session manager, one
// set of agents, strictly sequential stages with a parallel analyst
// fan-out inside the first.
type Orchestrator struct {
	cfg      *config.Config
	deps     agent.Deps
	sessions *session.Manager

	analysts      map[session.AgentRole]*agent.Analyst
	researchRun   *debate.ResearchDebate
	riskRun       *debate.RiskDebate
	trader        *agent.Trader
	fundManager   *agent.FundManager
	artifacts     *artifact.Writer
	logger        *zap.Logger
	sentryEnabled bool

	priceMu sync.Mutex
	prices  map[string][]float64
}

// New builds an orchestrator and its agents from shared dependencies.
// The deps' Sessions and Artifacts fields are populated here; callers
// supply the transport, prompts, and tool wiring.
func New(cfg *config.Config, deps agent.Deps, pool *llm.Pool) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
		deps.Logger = logger
	}

	sessions := session.NewManager(logger)
	artifacts := artifact.NewWriter(cfg.Logs.Dir, logger)
	deps.Sessions = sessions
	deps.Artifacts = artifacts

	o := &Orchestrator{prices: make(map[string][]float64)}
	if deps.PriceSeries == nil {
		deps.PriceSeries = o.closeSeries
	}

	analysts := make(map[session.AgentRole]*agent.Analyst, len(session.AnalystRoles))
	for _, role := range session.AnalystRoles {
		analysts[role] = agent.NewAnalyst(role, deps)
	}

	coordinator := agent.NewCoordinator(deps)
	researchCfg := debate.ResearchConfig{
		MaxRounds:          cfg.Debate.ResearchTeamMaxRounds,
		ConsensusThreshold: cfg.Debate.MinConsensusThreshold,
	}
	if cfg.Debate.RandomizeModels {
		researchCfg.Pool = pool
	}

	o.cfg = cfg
	o.deps = deps
	o.sessions = sessions
	o.analysts = analysts
	o.researchRun = debate.NewResearchDebate(
		agent.NewBullResearcher(deps),
		agent.NewBearResearcher(deps),
		coordinator, sessions, researchCfg, logger)
	o.riskRun = debate.NewRiskDebate(
		agent.NewConservativeAnalyst(deps),
		agent.NewAggressiveAnalyst(deps),
		agent.NewNeutralAnalyst(deps),
		agent.NewRiskManager(deps),
		sessions, cfg.Debate.RiskTeamMaxRounds, logger)
	o.trader = agent.NewTrader(deps)
	o.fundManager = agent.NewFundManager(deps)
	o.artifacts = artifacts
	o.logger = logger.With(zap.String("component", "workflow"))
	o.sentryEnabled = cfg.Sentry.DSN != ""
	return o
}

// closeSeries is the default price-history source for the technical
// analyst's indicator tool, fed from each request's market data.
func (o *Orchestrator) closeSeries(symbol string) []float64 {
	o.priceMu.Lock()
	defer o.priceMu.Unlock()
	return o.prices[symbol]
}

func (o *Orchestrator) storeCloseSeries(symbol string, data map[string]interface{}) {
	closes := marketdata.CloseSeries(data)
	if len(closes) == 0 {
		return
	}
	o.priceMu.Lock()
	defer o.priceMu.Unlock()
	o.prices[symbol] = closes
}

// Sessions exposes the orchestrator's session manager.
func (o *Orchestrator) Sessions() *session.Manager { return o.sessions }

// Run executes the pipeline for one request.
func (o *Orchestrator) Run(ctx context.Context, req Request) *Result {
	start := time.Now()
	mode := ModeFull
	if req.QuickMode {
		mode = ModeQuick
	}

	result := &Result{Symbol: req.Symbol, Mode: mode}
	result.SessionID = o.sessions.StartSession(req.Symbol)
	defer o.sessions.EndSession()
	defer func() { result.Elapsed = time.Since(start) }()

	o.logger.Info("workflow started",
		zap.String("symbol", req.Symbol),
		zap.String("mode", string(mode)),
		zap.String("session_id", result.SessionID))

	if errMsg, ok := invalidMarketData(req.MarketData); ok {
		return o.fail(result, StageAnalysis, fmt.Errorf("invalid market data: %s", errMsg))
	}
	o.storeCloseSeries(req.Symbol, req.MarketData)

	// Analysis stage.
	o.marker(req.Symbol, "ANALYSIS start")
	reports, analysisErrors, err := o.runAnalysis(ctx, req)
	result.AnalysisReports = reports
	result.AnalysisErrors = analysisErrors
	o.marker(req.Symbol, "ANALYSIS end")
	if err != nil {
		return o.fail(result, StageAnalysis, err)
	}

	// Research debate stage.
	o.marker(req.Symbol, "DEBATE start")
	outcome, err := o.researchRun.Run(ctx, req.Symbol, reports)
	o.marker(req.Symbol, "DEBATE end")
	if err != nil {
		return o.fail(result, StageDebate, err)
	}

	// Trading stage.
	o.marker(req.Symbol, "TRADING start")
	decision, err := o.trader.Decide(ctx, req.Symbol, outcome.Judgment, reports, req.MarketData, req.CurrentPosition)
	o.marker(req.Symbol, "TRADING end")
	if err != nil {
		return o.fail(result, StageTrading, err)
	}
	result.TradingDecision = decision
	result.Recommendation = decision.Recommendation
	result.ConfidenceScore = decision.ConfidenceScore
	result.PositionSize = decision.PositionSize

	if req.QuickMode {
		result.Success = true
		o.logger.Info("workflow complete",
			zap.String("symbol", req.Symbol),
			zap.String("recommendation", result.Recommendation))
		return result
	}

	// Risk debate stage.
	o.marker(req.Symbol, "RISK start")
	riskOutcome, err := o.riskRun.Run(ctx, req.Symbol, decision)
	o.marker(req.Symbol, "RISK end")
	if err != nil {
		return o.fail(result, StageRisk, err)
	}
	result.RiskDecision = riskOutcome.Decision

	// Final stage.
	o.marker(req.Symbol, "FINAL start")
	final, err := o.fundManager.Decide(ctx, o.sessions.Snapshot())
	o.marker(req.Symbol, "FINAL end")
	if err != nil {
		return o.fail(result, StageFinal, err)
	}
	result.InvestmentDecision = final
	result.Recommendation = final.FinalRecommendation
	result.ConfidenceScore = final.ConfidenceScore
	result.PositionSize = final.PositionSize

	result.Success = true
	o.logger.Info("workflow complete",
		zap.String("symbol", req.Symbol),
		zap.String("recommendation", result.Recommendation))
	return result
}

// runAnalysis fans the selected analysts out in parallel. The stage
// succeeds when at least one analyst publishes a report; individual
// failures are collected, not fatal.
func (o *Orchestrator) runAnalysis(ctx context.Context, req Request) (map[session.AgentRole]*session.AnalysisReport, map[session.AgentRole]string, error) {
	if len(req.Analysts) == 0 {
		return nil, nil, errors.New("no analysts selected")
	}

	var mu sync.Mutex
	reports := make(map[session.AgentRole]*session.AnalysisReport)
	failures := make(map[session.AgentRole]string)

	var wg sync.WaitGroup
	for _, role := range req.Analysts {
		analyst := o.analysts[role]
		if analyst == nil {
			mu.Lock()
			failures[role] = "unknown analyst role"
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(role session.AgentRole, analyst *agent.Analyst) {
			defer wg.Done()
			data := o.analystData(role, req)
			report, err := analyst.Analyze(ctx, req.Symbol, data)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[role] = err.Error()
				return
			}
			reports[role] = report
		}(role, analyst)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, failures, err
	}
	if len(reports) == 0 {
		var parts []string
		for role, msg := range failures {
			parts = append(parts, fmt.Sprintf("%s: %s", role, msg))
		}
		return nil, failures, fmt.Errorf("all analysts failed: %s", strings.Join(parts, "; "))
	}
	return reports, failures, nil
}

// analystData prepares the per-analyst context: the sentiment analyst
// gets the reserved social and mood sub-mappings, synthesized when the
// market data carries none; everyone else gets the data unmodified.
func (o *Orchestrator) analystData(role session.AgentRole, req Request) map[string]interface{} {
	data := make(map[string]interface{}, len(req.MarketData)+3)
	for k, v := range req.MarketData {
		data[k] = v
	}
	data["symbol"] = req.Symbol

	if role == session.RoleSentimentAnalyst {
		if _, ok := data["social_media_data"]; !ok {
			data["social_media_data"] = defaultSocialMediaData
		}
		if _, ok := data["sentiment_indicators"]; !ok {
			data["sentiment_indicators"] = defaultSentimentIndicators
		}
	}
	return data
}

func (o *Orchestrator) fail(result *Result, stage Stage, err error) *Result {
	result.Success = false
	result.Stage = stage
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		result.Error = "cancelled"
	} else {
		result.Error = err.Error()
	}

	o.logger.Error("workflow failed",
		zap.String("symbol", result.Symbol),
		zap.String("stage", string(stage)),
		zap.Error(err))
	if o.sentryEnabled && result.Error != "cancelled" {
		sentry.CaptureException(fmt.Errorf("workflow %s stage %s: %w", result.Symbol, stage, err))
	}
	return result
}

func (o *Orchestrator) marker(symbol, marker string) {
	if err := o.artifacts.AppendWorkflowMarker(symbol, marker); err != nil {
		o.logger.Warn("workflow marker write failed", zap.Error(err))
	}
}

// invalidMarketData reports whether the mapping is absent or carries an
// upstream error marker.
func invalidMarketData(data map[string]interface{}) (string, bool) {
	if len(data) == 0 {
		return "missing market data", true
	}
	if msg, ok := data["error"]; ok {
		return tools.Stringify(msg), true
	}
	return "", false
}
