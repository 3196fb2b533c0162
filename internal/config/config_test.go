package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"ENV", "PORT", "ALLOWED_ORIGINS", "STORE_DRIVER", "AI_PROVIDER", "OPENAI_API_KEY",
		"AI_TIMEOUT", "AI_MAX_TOKENS", "AI_TEMPERATURE", "SENTIMENT_CLAMP", "HISTORY_CACHE_TTL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "mindcare.db", cfg.Store.SQLitePath)
	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, "gpt-3.5-turbo", cfg.AI.OpenAIModel)
	assert.Equal(t, 300, cfg.AI.MaxTokens)
	assert.InDelta(t, 0.7, cfg.AI.Temperature, 1e-9)
	assert.Equal(t, 15*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.HistoryCacheTTL)
	assert.False(t, cfg.SentimentClamp)
	assert.False(t, cfg.AI.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "Production")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AI_TIMEOUT", "3s")
	t.Setenv("SENTIMENT_CLAMP", "true")
	t.Setenv("ENFORCE_USER_EXISTS", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 3*time.Second, cfg.AI.Timeout)
	assert.True(t, cfg.SentimentClamp)
	assert.True(t, cfg.EnforceUserExists)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	cases := map[string]string{
		"AI_TIMEOUT":      "soon",
		"AI_MAX_TOKENS":   "many",
		"SENTIMENT_CLAMP": "maybe",
		"STORE_DRIVER":    "oracle",
		"AI_PROVIDER":     "someone",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestArkEnabledNeedsKeyAndModel(t *testing.T) {
	ai := AIConfig{Provider: ProviderArk, ArkAPIKey: "key"}
	assert.False(t, ai.Enabled())
	ai.ArkModel = "ep-123"
	assert.True(t, ai.Enabled())
}
