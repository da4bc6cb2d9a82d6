package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dileep-u-k/weather-companion/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	for _, key := range []string{"LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL", "GROQ_API_KEY",
		"OPENAI_API_KEY", "GEMINI_API_KEY", "REDIS_ADDR", "PORT", "CONFIG_FILE"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderGroq, cfg.Provider)
	assert.Equal(t, "gsk-test", cfg.APIKey)
	assert.Equal(t, llm.GroqBaseURL, cfg.BaseURL)
	assert.Equal(t, llm.DefaultGroqModel, cfg.Agent.Generation.Model)
	assert.Equal(t, 5, cfg.Agent.MaxToolRounds)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.RedisAddr)

	backend, err := cfg.NewBackend(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &llm.OpenAIClient{}, backend)
}

func TestLoadYAMLAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
agent:
  max_tool_rounds: 3
  generation:
    temperature: 0.2
    max_tokens: 512
weather:
  timeout: 5s
  forecast_url: http://localhost:9999/v1/forecast
  backoff:
    max_retries: 2
    initial_interval: 100ms
session:
  ttl: 30m
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, llm.OpenAIBaseURL, cfg.BaseURL)
	assert.Equal(t, "gpt-4o", cfg.Agent.Generation.Model)
	assert.Equal(t, 3, cfg.Agent.MaxToolRounds)
	assert.Equal(t, 512, cfg.Agent.Generation.MaxTokens)
	require.NotNil(t, cfg.Agent.Generation.Temperature)
	assert.InDelta(t, 0.2, *cfg.Agent.Generation.Temperature, 1e-6)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "http://localhost:9999/v1/forecast", cfg.Weather.Endpoints.Forecast)

	httpCfg := cfg.Weather.HTTPClientConfig()
	assert.Equal(t, 5*time.Second, httpCfg.Client.Timeout)
	assert.Equal(t, 2, httpCfg.Backoff.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, httpCfg.Backoff.InitialInterval)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "anthropic")
	_, err := Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}

func TestNewBackendRequiresKey(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	_, err = cfg.NewBackend(context.Background())
	assert.Error(t, err)
}

func TestShippedConfigBoundsFetchTime(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join("..", "..", "config.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	httpCfg := cfg.Weather.HTTPClientConfig()
	assert.Equal(t, 20*time.Second, httpCfg.Client.Timeout)
	assert.LessOrEqual(t, httpCfg.Backoff.MaxRetries, 1)
}
