package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/irfndi/tradecouncil/internal/agent"
	"github.com/irfndi/tradecouncil/internal/batch"
	"github.com/irfndi/tradecouncil/internal/config"
	"github.com/irfndi/tradecouncil/internal/llm"
	"github.com/irfndi/tradecouncil/internal/logging"
	"github.com/irfndi/tradecouncil/internal/marketdata"
	"github.com/irfndi/tradecouncil/internal/prompt"
	"github.com/irfndi/tradecouncil/internal/session"
	"github.com/irfndi/tradecouncil/internal/tools"
	"github.com/irfndi/tradecouncil/internal/workflow"
)

// app holds everything a command needs after bootstrap.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	client   llm.Client
	pool     *llm.Pool
	provider marketdata.Provider
	prompts  *prompt.Set
}

// newApp loads configuration, wires the transports, and validates
// credentials.
func newApp(promptOverrides string) (*app, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, configError(err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	if cfg.LLM.APIKey == "" {
		return nil, runError(fmt.Errorf("missing LLM credentials: set llm.api_key or LLM_API_KEY"))
	}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
	}

	client, err := buildClient(cfg)
	if err != nil {
		return nil, configError(err)
	}

	prompts, err := prompt.LoadSet(promptOverrides)
	if err != nil {
		return nil, configError(err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		pool:    buildPool(cfg, client),
		prompts: prompts,
	}

	if cfg.Data.QuoteBaseURL != "" {
		provider, err := marketdata.NewFromConfig(cfg, logger)
		if err != nil {
			return nil, configError(err)
		}
		a.provider = provider
	}
	return a, nil
}

func (a *app) close() {
	_ = a.client.Close()
	if a.provider != nil {
		_ = a.provider.Close()
	}
	if a.cfg.Sentry.DSN != "" {
		sentry.Flush(2 * time.Second)
	}
	_ = a.logger.Sync()
}

func buildClient(cfg *config.Config) (llm.Client, error) {
	clientCfg := llm.ClientConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		HTTPTimeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		Retry: llm.RetryPolicy{
			MaxAttempts: cfg.LLM.RetryMaxAttempts,
			BaseDelay:   time.Duration(cfg.LLM.RetryBaseSeconds) * time.Second,
			MaxDelay:    time.Duration(cfg.LLM.RetryCapSeconds) * time.Second,
		},
	}

	switch llm.Provider(cfg.LLM.Provider) {
	case llm.ProviderOpenAI:
		return llm.NewOpenAIClient(clientCfg), nil
	case llm.ProviderDeepseek:
		return llm.NewDeepseekClient(clientCfg), nil
	default:
		return nil, fmt.Errorf("unknown llm.provider %q", cfg.LLM.Provider)
	}
}

// buildPool maps debate.models onto pool entries over the shared
// transport; nil when the pool is not configured.
func buildPool(cfg *config.Config, client llm.Client) *llm.Pool {
	if len(cfg.Debate.Models) == 0 {
		return nil
	}
	entries := make([]llm.PoolEntry, 0, len(cfg.Debate.Models))
	for _, model := range cfg.Debate.Models {
		entries = append(entries, llm.PoolEntry{Client: client, Model: model})
	}
	return llm.NewPool(entries, cfg.Debate.RandomizeModels, time.Now().UnixNano())
}

// deps builds the agent wiring for one workflow.
func (a *app) deps() agent.Deps {
	return agent.Deps{
		Client:        a.client,
		Model:         a.cfg.LLM.Model,
		Temperature:   a.cfg.LLM.Temperature,
		MaxTokens:     a.cfg.LLM.MaxTokens,
		MaxIterations: a.cfg.LLM.MaxIterations,
		Prompts:       a.prompts,
		Logger:        a.logger,
		News:          tools.NewNewsFetcher(),
	}
}

// runnerFactory builds a fresh orchestrator per symbol.
func (a *app) runnerFactory() batch.RunnerFactory {
	return func() batch.Runner {
		return workflow.New(a.cfg, a.deps(), a.pool)
	}
}

// fetchFunc resolves market data via the configured provider; without
// one, symbols resolve to an error mapping.
func (a *app) fetchFunc() batch.FetchFunc {
	return func(ctx context.Context, symbol string) (map[string]interface{}, error) {
		if a.provider == nil {
			return nil, fmt.Errorf("no market data provider configured: set data.quote_base_url")
		}
		return a.provider.Fetch(ctx, symbol)
	}
}

// parseAnalystFlag maps a comma-separated analyst list onto roles; empty
// selects all four.
func parseAnalystFlag(raw string) ([]session.AgentRole, error) {
	if strings.TrimSpace(raw) == "" {
		return session.AnalystRoles, nil
	}
	var roles []session.AgentRole
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		switch name {
		case "fundamental":
			roles = append(roles, session.RoleFundamentalAnalyst)
		case "technical":
			roles = append(roles, session.RoleTechnicalAnalyst)
		case "sentiment":
			roles = append(roles, session.RoleSentimentAnalyst)
		case "news":
			roles = append(roles, session.RoleNewsAnalyst)
		default:
			return nil, fmt.Errorf("unknown analyst %q (want fundamental, technical, sentiment, news)", name)
		}
	}
	return roles, nil
}
