// Package batch fans portfolio analysis out across symbols with a
// bounded worker pool and renders the ranked results as CSV or JSON.
package batch

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/irfndi/tradecouncil/internal/session"
	"github.com/irfndi/tradecouncil/internal/workflow"
)

// reasoningLimit truncates the CSV reasoning column.
const reasoningLimit = 200

// Runner executes one workflow request. Each symbol gets a fresh runner
// so sessions and recorders never cross symbols.
type Runner interface {
	Run(ctx context.Context, req workflow.Request) *workflow.Result
}

// RunnerFactory builds the per-symbol runner.
type RunnerFactory func() Runner

// FetchFunc resolves market data for one symbol.
type FetchFunc func(ctx context.Context, symbol string) (map[string]interface{}, error)

// SymbolError records one failed symbol.
type SymbolError struct {
	Symbol string `json:"symbol"`
	Stage  string `json:"stage,omitempty"`
	Error  string `json:"error"`
}

// Result is the batch outcome: successes ranked by confidence
// descending, failures collected per symbol.
type Result struct {
	Results   []*workflow.Result `json:"results"`
	Errors    []SymbolError      `json:"errors"`
	TotalTime time.Duration      `json:"total_time"`
}

// Analyzer runs the portfolio fan-out.
type Analyzer struct {
	factory    RunnerFactory
	fetch      FetchFunc
	maxWorkers int
	analysts   []session.AgentRole
	quickMode  bool
	logger     *zap.Logger
}

// Options configures the analyzer.
type Options struct {
	Factory    RunnerFactory
	Fetch      FetchFunc
	MaxWorkers int
	Analysts   []session.AgentRole
	QuickMode  bool
	Logger     *zap.Logger
}

// New builds a batch analyzer.
func New(opts Options) *Analyzer {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = 1
	}
	analysts := opts.Analysts
	if len(analysts) == 0 {
		analysts = session.AnalystRoles
	}
	return &Analyzer{
		factory:    opts.Factory,
		fetch:      opts.Fetch,
		maxWorkers: opts.MaxWorkers,
		analysts:   analysts,
		quickMode:  opts.QuickMode,
		logger:     opts.Logger.With(zap.String("component", "batch")),
	}
}

// AnalyzePortfolio runs every symbol through its own workflow. Per-symbol
// failure never aborts the batch; results come back ranked by confidence
// descending. positions carries current target weights per symbol.
func (a *Analyzer) AnalyzePortfolio(ctx context.Context, symbols []string, positions map[string]float64) *Result {
	start := time.Now()

	var mu sync.Mutex
	batch := &Result{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxWorkers)

	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			res := a.analyzeOne(gctx, symbol, positions[symbol])
			mu.Lock()
			defer mu.Unlock()
			if res.Success {
				batch.Results = append(batch.Results, res)
			} else {
				batch.Errors = append(batch.Errors, SymbolError{
					Symbol: symbol,
					Stage:  string(res.Stage),
					Error:  res.Error,
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(batch.Results, func(i, j int) bool {
		return batch.Results[i].ConfidenceScore > batch.Results[j].ConfidenceScore
	})
	batch.TotalTime = time.Since(start)

	a.logger.Info("portfolio analysis complete",
		zap.Int("symbols", len(symbols)),
		zap.Int("successes", len(batch.Results)),
		zap.Int("errors", len(batch.Errors)),
		zap.Duration("elapsed", batch.TotalTime))
	return batch
}

func (a *Analyzer) analyzeOne(ctx context.Context, symbol string, position float64) *workflow.Result {
	data, err := a.fetch(ctx, symbol)
	if err != nil {
		return &workflow.Result{
			Symbol: symbol,
			Stage:  workflow.StageAnalysis,
			Error:  fmt.Sprintf("market data fetch: %v", err),
		}
	}

	runner := a.factory()
	return runner.Run(ctx, workflow.Request{
		Symbol:          symbol,
		MarketData:      data,
		Analysts:        a.analysts,
		QuickMode:       a.quickMode,
		CurrentPosition: position,
	})
}

// CSV column order for batch output.
var csvHeader = []string{
	"symbol", "recommendation", "confidence_score", "target_price",
	"acceptable_price_min", "acceptable_price_max", "take_profit",
	"stop_loss", "position_size", "time_horizon", "reasoning",
}

// WriteCSV renders the ranked results in the fixed column order.
func (r *Result) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, res := range r.Results {
		d := res.TradingDecision
		if d == nil {
			d = &session.TradingDecision{Symbol: res.Symbol, Recommendation: res.Recommendation}
		}
		row := []string{
			res.Symbol,
			res.Recommendation,
			formatFloat(res.ConfidenceScore),
			formatFloat(d.TargetPrice),
			formatFloat(d.AcceptablePriceMin),
			formatFloat(d.AcceptablePriceMax),
			formatFloat(d.TakeProfit),
			formatFloat(d.StopLoss),
			formatFloat(res.PositionSize),
			d.TimeHorizon,
			truncateReasoning(d.Reasoning),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON renders the whole batch result, successes and errors.
func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func truncateReasoning(reasoning string) string {
	// Rune-wise so a multi-byte character is never split.
	runes := []rune(reasoning)
	if len(runes) <= reasoningLimit {
		return reasoning
	}
	return string(runes[:reasoningLimit]) + "..."
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
