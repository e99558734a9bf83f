// tradecouncil is the CLI for the multi-agent equity analysis pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Exit codes: 0 on workflow success (including partial analyst
// failures), 1 on workflow failure or missing credentials, 2 on invalid
// configuration.
const (
	exitOK            = 0
	exitFailure       = 1
	exitInvalidConfig = 2
)

func main() {
	// Local .env is optional.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "tradecouncil",
		Short:         "Multi-agent LLM analysis pipeline for equities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: ./config.yaml)")

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newBatchCmd())
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if code, ok := err.(exitCoder); ok {
			os.Exit(code.ExitCode())
		}
		os.Exit(exitFailure)
	}
}

var configPath string

// exitCoder lets commands pick their exit code.
type exitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) ExitCode() int { return e.code }
func (e *exitError) Unwrap() error { return e.err }

func configError(err error) error {
	return &exitError{code: exitInvalidConfig, err: err}
}

func runError(err error) error {
	return &exitError{code: exitFailure, err: err}
}
