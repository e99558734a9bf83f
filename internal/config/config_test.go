package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFileDefaults(t *testing.T) {
	path := writeConfig(t, "llm:\n  api_key: test-key\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, 5, cfg.LLM.RetryMaxAttempts)
	assert.Equal(t, 4, cfg.LLM.RetryBaseSeconds)
	assert.Equal(t, 60, cfg.LLM.RetryCapSeconds)
	assert.Equal(t, 10, cfg.LLM.MaxIterations)

	assert.Equal(t, 2, cfg.Debate.ResearchTeamMaxRounds)
	assert.Equal(t, 2, cfg.Debate.RiskTeamMaxRounds)
	assert.Equal(t, 0.6, cfg.Debate.MinConsensusThreshold)
	assert.False(t, cfg.Debate.RandomizeModels)

	assert.Equal(t, "online", cfg.Data.MarketDataProvider)
	assert.Equal(t, 3, cfg.Batch.MaxWorkers)
	assert.Equal(t, "quick", cfg.Workflow.Mode)
	assert.Equal(t, "logs", cfg.Logs.Dir)
	assert.Equal(t, 8080, cfg.API.Port)
}

func TestLoadFromFileOverrides(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: deepseek
  model: deepseek-chat
  temperature: 0.2
debate:
  research_team_max_rounds: 3
  models: [gpt-4o, deepseek-chat]
  randomize_models: true
workflow:
  mode: full
batch:
  max_workers: 8
logs:
  dir: /tmp/audit
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "deepseek", cfg.LLM.Provider)
	assert.Equal(t, "deepseek-chat", cfg.LLM.Model)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.Equal(t, 3, cfg.Debate.ResearchTeamMaxRounds)
	assert.Equal(t, []string{"gpt-4o", "deepseek-chat"}, cfg.Debate.Models)
	assert.True(t, cfg.Debate.RandomizeModels)
	assert.Equal(t, "full", cfg.Workflow.Mode)
	assert.Equal(t, 8, cfg.Batch.MaxWorkers)
	assert.Equal(t, "/tmp/audit", cfg.Logs.Dir)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "env-key")
	t.Setenv("LLM_MODEL", "gpt-4o-mini")
	t.Setenv("WORKFLOW_MODE", "full")

	path := writeConfig(t, "llm:\n  model: gpt-4o\n")
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model, "environment beats the file")
	assert.Equal(t, "full", cfg.Workflow.Mode)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			LLM:      LLMConfig{RetryMaxAttempts: 5},
			Debate:   DebateConfig{MinConsensusThreshold: 0.6},
			Data:     DataConfig{MarketDataProvider: "online"},
			Batch:    BatchConfig{MaxWorkers: 3},
			Workflow: WorkflowConfig{Mode: "quick"},
		}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.Workflow.Mode = "turbo"
	assert.ErrorContains(t, cfg.Validate(), "workflow.mode")

	cfg = base()
	cfg.Data.MarketDataProvider = "csv"
	assert.ErrorContains(t, cfg.Validate(), "market_data_provider")

	cfg = base()
	cfg.Batch.MaxWorkers = 0
	assert.ErrorContains(t, cfg.Validate(), "max_workers")

	cfg = base()
	cfg.Debate.MinConsensusThreshold = 1.5
	assert.ErrorContains(t, cfg.Validate(), "min_consensus_threshold")

	cfg = base()
	cfg.LLM.RetryMaxAttempts = 0
	assert.ErrorContains(t, cfg.Validate(), "retry_max_attempts")
}
