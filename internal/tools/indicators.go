package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volatility"
)

// ToolComputeIndicators is the technical analyst's indicator tool.
const ToolComputeIndicators = "compute_technical_indicators"

// PriceSeriesFunc resolves the recent closing-price series for a symbol.
// Returns nil when no history is available.
type PriceSeriesFunc func(symbol string) []float64

// RegisterIndicatorTool adds an impure tool that computes SMA, EMA, RSI,
// MACD, and Bollinger Bands over the symbol's recent closes. Output is a
// text summary of the latest readings.
func RegisterIndicatorTool(r *Registry, series PriceSeriesFunc) {
	r.Register(ToolComputeIndicators,
		"Compute technical indicators (SMA, EMA, RSI, MACD, Bollinger Bands) over the recent closing prices of a symbol.",
		[]Param{
			{Name: "symbol", Type: TypeString, Description: "Stock symbol"},
			{Name: "period", Type: TypeInteger, Description: "Lookback period for SMA/EMA/RSI", Default: 14},
		},
		func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			symbol := String(args, "symbol")
			period := Int(args, "period")
			if period <= 0 {
				period = 14
			}

			prices := series(symbol)
			if len(prices) < period+1 {
				return nil, fmt.Errorf("not enough price history for %s: have %d closes, need %d", symbol, len(prices), period+1)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Indicators for %s over %d closes (period %d):\n", symbol, len(prices), period)

			if sma := lastValue(computeSma(prices, period)); sma != 0 {
				fmt.Fprintf(&b, "- SMA(%d): %.2f\n", period, sma)
			}
			if ema := lastValue(computeEma(prices, period)); ema != 0 {
				fmt.Fprintf(&b, "- EMA(%d): %.2f\n", period, ema)
			}
			if rsi := lastValue(computeRsi(prices, period)); rsi != 0 {
				fmt.Fprintf(&b, "- RSI(%d): %.2f\n", period, rsi)
			}
			if macdLine, signal := computeMacd(prices); len(macdLine) > 0 && len(signal) > 0 {
				fmt.Fprintf(&b, "- MACD: %.4f signal %.4f\n", lastValue(macdLine), lastValue(signal))
			}
			if upper, middle, lower := computeBollinger(prices, 20); len(middle) > 0 {
				fmt.Fprintf(&b, "- Bollinger(20): upper %.2f middle %.2f lower %.2f\n",
					lastValue(upper), lastValue(middle), lastValue(lower))
			}
			fmt.Fprintf(&b, "- Last close: %.2f", prices[len(prices)-1])

			return b.String(), nil
		})
}

func computeSma(prices []float64, period int) []float64 {
	if len(prices) < period {
		return nil
	}
	sma := trend.NewSmaWithPeriod[float64](period)
	return helper.ChanToSlice(sma.Compute(helper.SliceToChan(prices)))
}

func computeEma(prices []float64, period int) []float64 {
	if len(prices) < period {
		return nil
	}
	ema := trend.NewEmaWithPeriod[float64](period)
	return helper.ChanToSlice(ema.Compute(helper.SliceToChan(prices)))
}

func computeRsi(prices []float64, period int) []float64 {
	if len(prices) < period+1 {
		return nil
	}
	rsi := momentum.NewRsiWithPeriod[float64](period)
	return helper.ChanToSlice(rsi.Compute(helper.SliceToChan(prices)))
}

// Multi-output cinar indicators must be drained concurrently or the
// producer blocks on the undrained channel.
func computeMacd(prices []float64) ([]float64, []float64) {
	const slowPeriod = 26
	if len(prices) < slowPeriod {
		return nil, nil
	}
	macd := trend.NewMacd[float64]()
	macdLine, signal := macd.Compute(helper.SliceToChan(prices))

	var macdValues, signalValues []float64
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		macdValues = helper.ChanToSlice(macdLine)
	}()
	go func() {
		defer wg.Done()
		signalValues = helper.ChanToSlice(signal)
	}()
	wg.Wait()

	return macdValues, signalValues
}

func computeBollinger(prices []float64, period int) ([]float64, []float64, []float64) {
	if len(prices) < period {
		return nil, nil, nil
	}
	bb := volatility.NewBollingerBandsWithPeriod[float64](period)
	upper, middle, lower := bb.Compute(helper.SliceToChan(prices))

	var upperValues, middleValues, lowerValues []float64
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		upperValues = helper.ChanToSlice(upper)
	}()
	go func() {
		defer wg.Done()
		middleValues = helper.ChanToSlice(middle)
	}()
	go func() {
		defer wg.Done()
		lowerValues = helper.ChanToSlice(lower)
	}()
	wg.Wait()

	return upperValues, middleValues, lowerValues
}

func lastValue(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
