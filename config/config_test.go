package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 1536, cfg.Embedding.Dimension)
	assert.Equal(t, 1000, cfg.Chat.ResponseReserve)
	assert.Equal(t, 500, cfg.Chat.SystemReserve)
	assert.Equal(t, 0.7, cfg.Chat.RecentFraction)
	assert.Equal(t, 4, cfg.Chat.MinRecent)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.RefreshInterval)
	assert.Equal(t, 90*24*time.Hour, cfg.Scheduler.Retention)
	assert.Equal(t, "data[].id", cfg.Providers[ProviderCustom].ModelsPath)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	yaml := `
provider: anthropic
address: ":9090"
providers:
  anthropic:
    api_key: test-key
    model: claude-3-haiku
embedding:
  dimension: 768
chat:
  response_reserve: 2000
  token_limits:
    custom/llama3: 8192
scheduler:
  refresh_interval: 5m
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, ":9090", cfg.Address)
	assert.Equal(t, 768, cfg.Embedding.Dimension)
	assert.Equal(t, 2000, cfg.Chat.ResponseReserve)
	assert.Equal(t, 8192, cfg.Chat.TokenLimits["custom/llama3"])
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.RefreshInterval)

	pc, err := cfg.Active()
	require.NoError(t, err)
	assert.Equal(t, "test-key", pc.ApiKey)
	assert.Equal(t, "claude-3-haiku", pc.Model)

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	// default provider is openai with no key configured
	if os.Getenv("OPENAI_API_KEY") == "" {
		require.ErrorIs(t, cfg.Validate(), ErrMissingApiKey)
	}

	pc := cfg.Providers[ProviderOpenAI]
	pc.ApiKey = "key"
	cfg.Providers[ProviderOpenAI] = pc
	require.NoError(t, cfg.Validate())

	cfg.Embedding.Dimension = 0
	require.ErrorIs(t, cfg.Validate(), ErrInvalidDimension)
	cfg.Embedding.Dimension = 1536

	cfg.Provider = "nope"
	require.ErrorIs(t, cfg.Validate(), ErrUnknownProvider)

	cfg.Provider = ProviderCustom
	require.ErrorIs(t, cfg.Validate(), ErrMissingBaseUrl)
}

func TestApiKeyFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Providers[ProviderAnthropic].ApiKey)
}
