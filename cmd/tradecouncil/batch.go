package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/irfndi/tradecouncil/internal/batch"
)

func newBatchCmd() *cobra.Command {
	var (
		analystFlag  string
		fullMode     bool
		positionFlag []string
		csvPath      string
		jsonPath     string
		promptsPath  string
	)

	cmd := &cobra.Command{
		Use:   "batch SYMBOL [SYMBOL...]",
		Short: "Analyze a portfolio of symbols with a bounded worker pool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysts, err := parseAnalystFlag(analystFlag)
			if err != nil {
				return configError(err)
			}
			positions, err := parsePositions(positionFlag)
			if err != nil {
				return configError(err)
			}

			a, err := newApp(promptsPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			analyzer := batch.New(batch.Options{
				Factory:    a.runnerFactory(),
				Fetch:      a.fetchFunc(),
				MaxWorkers: a.cfg.Batch.MaxWorkers,
				Analysts:   analysts,
				QuickMode:  !fullMode && a.cfg.Workflow.Mode != "full",
				Logger:     a.logger,
			})

			result := analyzer.AnalyzePortfolio(ctx, args, positions)
			printBatchSummary(result)

			if csvPath != "" {
				if err := writeTo(csvPath, result.WriteCSV); err != nil {
					return runError(err)
				}
				fmt.Printf("%s %s\n", labelStyle.Render("csv"), csvPath)
			}
			if jsonPath != "" {
				if err := writeTo(jsonPath, result.WriteJSON); err != nil {
					return runError(err)
				}
				fmt.Printf("%s %s\n", labelStyle.Render("json"), jsonPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&analystFlag, "analysts", "", "comma-separated analysts; default all")
	cmd.Flags().BoolVar(&fullMode, "full", false, "run the full pipeline per symbol")
	cmd.Flags().StringSliceVar(&positionFlag, "position", nil, "current position as SYMBOL=WEIGHT (repeatable)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write ranked results to a CSV file")
	cmd.Flags().StringVar(&jsonPath, "json", "", "write the full batch result to a JSON file")
	cmd.Flags().StringVar(&promptsPath, "prompts", "", "YAML file with per-role system prompt overrides")
	return cmd
}

func parsePositions(pairs []string) (map[string]float64, error) {
	positions := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		symbol, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --position %q: want SYMBOL=WEIGHT", pair)
		}
		weight, err := strconv.ParseFloat(raw, 64)
		if err != nil || weight < 0 || weight > 1 {
			return nil, fmt.Errorf("invalid --position weight %q: want a number in [0,1]", raw)
		}
		positions[strings.TrimSpace(symbol)] = weight
	}
	return positions, nil
}

func writeTo(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printBatchSummary(result *batch.Result) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("Portfolio: %d analyzed, %d failed (%s)",
		len(result.Results), len(result.Errors), result.TotalTime.Round(100*time.Millisecond))))

	for i, res := range result.Results {
		fmt.Printf("%2d. %s %s confidence %.2f position %.2f\n",
			i+1, res.Symbol, successStyle.Render(res.Recommendation),
			res.ConfidenceScore, res.PositionSize)
	}
	for _, symErr := range result.Errors {
		fmt.Printf("    %s %s: %s\n", failureStyle.Render("failed"), symErr.Symbol, symErr.Error)
	}
}
