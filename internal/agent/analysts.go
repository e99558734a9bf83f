package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/irfndi/tradecouncil/internal/artifact"
	"github.com/irfndi/tradecouncil/internal/llm"
	"github.com/irfndi/tradecouncil/internal/prompt"
	"github.com/irfndi/tradecouncil/internal/session"
	"github.com/irfndi/tradecouncil/internal/tools"
)

// Deps is the shared wiring every agent constructor takes.
type Deps struct {
	Client        llm.Client
	Model         string
	Temperature   float64
	MaxTokens     int
	MaxIterations int
	Prompts       *prompt.Set
	Sessions      *session.Manager
	Artifacts     *artifact.Writer
	Logger        *zap.Logger

	// Optional impure-tool wiring.
	News        *tools.NewsFetcher
	PriceSeries tools.PriceSeriesFunc
}

func (d Deps) options(role session.AgentRole, registry *tools.Registry, terminal string) Options {
	prompts := d.Prompts
	if prompts == nil {
		prompts = prompt.NewSet()
	}
	return Options{
		Role:          role,
		SystemPrompt:  prompts.For(role),
		Client:        d.Client,
		Model:         d.Model,
		Temperature:   d.Temperature,
		MaxTokens:     d.MaxTokens,
		Registry:      registry,
		TerminalTool:  terminal,
		MaxIterations: d.MaxIterations,
		Sessions:      d.Sessions,
		Artifacts:     d.Artifacts,
		Logger:        d.Logger,
	}
}

// Analyst is one analysis-stage agent. All four share the same task
// shape and differ in tools, prompt, and how the emitter result maps
// onto the report artifact.
type Analyst struct {
	*Agent
}

// NewFundamentalAnalyst builds the fundamental analyst.
func NewFundamentalAnalyst(d Deps) *Analyst {
	registry := tools.NewRegistry(d.Logger)
	tools.RegisterFundamentalEmitter(registry)
	return &Analyst{Agent: New(d.options(session.RoleFundamentalAnalyst, registry, tools.ToolEmitFundamentalAnalysis))}
}

// NewTechnicalAnalyst builds the technical analyst. When price history
// is wired it also carries the indicator tool.
func NewTechnicalAnalyst(d Deps) *Analyst {
	registry := tools.NewRegistry(d.Logger)
	tools.RegisterTechnicalEmitter(registry)
	if d.PriceSeries != nil {
		tools.RegisterIndicatorTool(registry, d.PriceSeries)
	}
	return &Analyst{Agent: New(d.options(session.RoleTechnicalAnalyst, registry, tools.ToolEmitTechnicalAnalysis))}
}

// NewSentimentAnalyst builds the sentiment analyst.
func NewSentimentAnalyst(d Deps) *Analyst {
	registry := tools.NewRegistry(d.Logger)
	tools.RegisterSentimentEmitter(registry)
	return &Analyst{Agent: New(d.options(session.RoleSentimentAnalyst, registry, tools.ToolEmitSentimentAnalysis))}
}

// NewNewsAnalyst builds the news analyst with its feed-lookup tools.
func NewNewsAnalyst(d Deps) *Analyst {
	registry := tools.NewRegistry(d.Logger)
	tools.RegisterNewsEmitter(registry)
	if d.News != nil {
		tools.RegisterNewsTools(registry, d.News)
	}
	return &Analyst{Agent: New(d.options(session.RoleNewsAnalyst, registry, tools.ToolEmitNewsAnalysis))}
}

// NewAnalyst builds the analyst for a role, or nil for non-analyst roles.
func NewAnalyst(role session.AgentRole, d Deps) *Analyst {
	switch role {
	case session.RoleFundamentalAnalyst:
		return NewFundamentalAnalyst(d)
	case session.RoleTechnicalAnalyst:
		return NewTechnicalAnalyst(d)
	case session.RoleSentimentAnalyst:
		return NewSentimentAnalyst(d)
	case session.RoleNewsAnalyst:
		return NewNewsAnalyst(d)
	default:
		return nil
	}
}

// Analyze runs the analyst's tool-call loop over the market data and
// publishes the resulting report into the active session.
func (a *Analyst) Analyze(ctx context.Context, symbol string, marketData map[string]interface{}) (*session.AnalysisReport, error) {
	start := time.Now()

	result, err := a.RunUntilTool(ctx, analysisPrompt(symbol, marketData))
	if err != nil {
		a.emitChain(symbol, nil, false)
		a.logger.Error("analysis failed", zap.String("symbol", symbol), zap.Error(err))
		return nil, err
	}

	report := a.buildReport(symbol, result, time.Since(start))
	a.sessions.AddAnalysisReport(report)

	a.writeMarkdown(symbol, "Analysis", reportMarkdown(report), map[string]string{
		"recommendation": report.Recommendation,
		"confidence":     fmt.Sprintf("%.2f", report.ConfidenceScore),
	})
	a.emitChain(symbol, result, true)

	a.logger.Info("analysis complete",
		zap.String("symbol", symbol),
		zap.String("recommendation", report.Recommendation),
		zap.Float64("confidence", report.ConfidenceScore),
		zap.Duration("elapsed", report.ProcessingTime))
	return report, nil
}

func (a *Analyst) buildReport(symbol string, result map[string]interface{}, elapsed time.Duration) *session.AnalysisReport {
	report := &session.AnalysisReport{
		AnalystRole:      a.role,
		Symbol:           symbol,
		AnalysisDate:     time.Now(),
		KeyFindings:      asStringSlice(result["key_findings"]),
		Recommendation:   session.NormalizeRecommendation(asString(result["recommendation"])),
		ConfidenceScore:  asFloat(result["confidence_score"]),
		RiskFactors:      asStringSlice(result["risk_factors"]),
		SupportingData:   result,
		DetailedAnalysis: asString(result["supporting_evidence"]),
		ProcessingTime:   elapsed,
	}
	if horizon := asMapping(result["time_horizon"]); horizon != nil {
		report.TimeHorizon = horizon
	} else {
		report.TimeHorizon = asMapping(result["time_frame"])
	}
	if a.role == session.RoleNewsAnalyst {
		report.ImpactMagnitude = asFloat(result["impact_magnitude"])
	}
	return report
}

// analysisPrompt renders the task for one analyst: symbol plus the raw
// market data mapping as JSON.
func analysisPrompt(symbol string, marketData map[string]interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze %s and produce your structured assessment.\n\n", symbol)
	if len(marketData) > 0 {
		encoded, err := json.MarshalIndent(marketData, "", "  ")
		if err == nil {
			fmt.Fprintf(&b, "Market data:\n```json\n%s\n```\n", encoded)
		}
	}
	b.WriteString("\nFinish by calling your emitter tool exactly once with the complete assessment.")
	return b.String()
}

func reportMarkdown(report *session.AnalysisReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (confidence %.2f)\n\n", report.Recommendation, report.ConfidenceScore)
	if len(report.KeyFindings) > 0 {
		b.WriteString("Key findings:\n")
		for _, finding := range report.KeyFindings {
			fmt.Fprintf(&b, "- %s\n", finding)
		}
	}
	if len(report.RiskFactors) > 0 {
		b.WriteString("\nRisk factors:\n")
		for _, risk := range report.RiskFactors {
			fmt.Fprintf(&b, "- %s\n", risk)
		}
	}
	if report.DetailedAnalysis != "" {
		fmt.Fprintf(&b, "\n%s\n", report.DetailedAnalysis)
	}
	return b.String()
}

// Emitter results carry typed values assembled by the tools package;
// these asserts tolerate raw JSON-decoded shapes as well.

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}

func asStringSlice(v interface{}) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func asMapping(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}
