package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ALLOW_ORIGIN", "GEMINI_MODEL", "RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW",
		"RATE_LIMIT_MAX_ADDRESSES", "QUERY_CACHE_CAPACITY", "CONVERSATION_TTL",
		"MAX_CONVERSATIONS", "CORPUS_SOURCE", "CORPUS_PATH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "*", cfg.AllowOrigin)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, 10, cfg.RateLimitMax)
	assert.Equal(t, 60*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, CorpusSourceEmbedded, cfg.CorpusSource)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("RATE_LIMIT_MAX", "3")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("CORPUS_SOURCE", "File")
	t.Setenv("CORPUS_PATH", "/data/luat.txt")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.RateLimitMax)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, CorpusSourceFile, cfg.CorpusSource)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("RATE_LIMIT_MAX", "ten")
	t.Setenv("CONVERSATION_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.RateLimitMax)
	assert.Equal(t, 30*time.Minute, cfg.ConversationTTL)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("CORPUS_SOURCE", "file")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("CORPUS_SOURCE", "redis")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("CORPUS_SOURCE", "")
	t.Setenv("RATE_LIMIT_MAX", "0")
	_, err = Load()
	assert.Error(t, err)
}
