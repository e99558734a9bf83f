package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/irfndi/tradecouncil/internal/api"
)

func newServeCmd() *cobra.Command {
	var promptsPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis pipeline over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(promptsPath)
			if err != nil {
				return err
			}
			defer a.close()

			server := api.NewServer(api.Options{
				Factory:       a.runnerFactory(),
				Fetch:         a.fetchFunc(),
				MaxWorkers:    a.cfg.Batch.MaxWorkers,
				SentryEnabled: a.cfg.Sentry.DSN != "",
				Logger:        a.logger,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Run(fmt.Sprintf("%s:%d", a.cfg.API.Host, a.cfg.API.Port))
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return runError(err)
				}
				return nil
			case <-ctx.Done():
				a.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					a.logger.Warn("shutdown failed", zap.Error(err))
				}
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&promptsPath, "prompts", "", "YAML file with per-role system prompt overrides")
	return cmd
}
