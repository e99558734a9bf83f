package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/irfndi/tradecouncil/internal/workflow"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	labelStyle   = lipgloss.NewStyle().Faint(true)
)

func newAnalyzeCmd() *cobra.Command {
	var (
		analystFlag string
		fullMode    bool
		position    float64
		promptsPath string
	)

	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Run the analysis pipeline for one symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := args[0]

			analysts, err := parseAnalystFlag(analystFlag)
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

			data, err := a.fetchFunc()(ctx, symbol)
			if err != nil {
				return runError(err)
			}

			quick := !fullMode && a.cfg.Workflow.Mode != "full"
			result := a.runnerFactory()().Run(ctx, workflow.Request{
				Symbol:          symbol,
				MarketData:      data,
				Analysts:        analysts,
				QuickMode:       quick,
				CurrentPosition: position,
			})

			printResult(result)
			if !result.Success {
				return runError(fmt.Errorf("workflow failed at %s: %s", result.Stage, result.Error))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&analystFlag, "analysts", "", "comma-separated analysts (fundamental,technical,sentiment,news); default all")
	cmd.Flags().BoolVar(&fullMode, "full", false, "run the full pipeline (risk debate and fund manager)")
	cmd.Flags().Float64Var(&position, "position", 0, "current position weight in [0,1]")
	cmd.Flags().StringVar(&promptsPath, "prompts", "", "YAML file with per-role system prompt overrides")
	return cmd
}

func printResult(result *workflow.Result) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("%s (%s mode)", result.Symbol, result.Mode)))
	if result.Success {
		fmt.Printf("%s %s\n", labelStyle.Render("status"), successStyle.Render("success"))
	} else {
		fmt.Printf("%s %s at %s: %s\n", labelStyle.Render("status"),
			failureStyle.Render("failed"), result.Stage, result.Error)
	}
	if result.Recommendation != "" {
		fmt.Printf("%s %s (confidence %.2f, position %.2f)\n",
			labelStyle.Render("decision"), result.Recommendation,
			result.ConfidenceScore, result.PositionSize)
	}
	if len(result.AnalysisErrors) > 0 {
		for role, msg := range result.AnalysisErrors {
			fmt.Printf("%s %s: %s\n", labelStyle.Render("analyst error"), role, msg)
		}
	}
	fmt.Printf("%s %s\n", labelStyle.Render("elapsed"), result.Elapsed.Round(10*time.Millisecond))
}
