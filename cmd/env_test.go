package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/langid/internal/config"
	"github.com/sells-group/langid/internal/detector"
	"github.com/sells-group/langid/internal/store"
)

// withConfig swaps the package config for the duration of a test.
func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(t.TempDir(), "langid.db")
	c.Fast.Backend = "whatlang"
	c.Deep.Provider = "anthropic"
	c.Deep.TimeoutSecs = 2
	c.Deep.MaxTokens = 16
	c.Deep.RatePerSec = 5
	c.Deep.RateBurst = 5
	c.Anthropic.Key = "sk-test"
	c.Anthropic.Model = "claude-haiku-4-5-20251001"
	c.Audit.TimeoutSecs = 5
	c.Batch.Concurrency = 4
	c.Server.Port = 8080
	return c
}

func TestInitFast(t *testing.T) {
	d, err := initFast(config.FastConfig{Backend: "whatlang"})
	require.NoError(t, err)
	assert.IsType(t, &detector.Whatlang{}, d)

	d, err = initFast(config.FastConfig{Backend: "lingua", Languages: []string{"en", "fr"}})
	require.NoError(t, err)
	assert.IsType(t, &detector.Lingua{}, d)

	_, err = initFast(config.FastConfig{Backend: "lingua", Languages: []string{"en"}})
	require.Error(t, err)

	_, err = initFast(config.FastConfig{Backend: "cld3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported fast backend")
}

func TestInitDeep(t *testing.T) {
	c := testConfig(t)

	d, err := initDeep(c)
	require.NoError(t, err)
	assert.IsType(t, &detector.LLM{}, d)

	c.Deep.Provider = "openai"
	c.OpenAI.BaseURL = "http://localhost:11434/v1"
	c.OpenAI.Model = "llama3"
	c.Deep.RatePerSec = 0
	d, err = initDeep(c)
	require.NoError(t, err)
	assert.IsType(t, &detector.LLM{}, d)

	c.Deep.Provider = "oracle"
	_, err = initDeep(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported deep provider")
}

func TestInitStore(t *testing.T) {
	withConfig(t, testConfig(t))

	st, err := initStore(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	assert.IsType(t, &store.SQLiteStore{}, st)

	cfg.Store.Driver = "mysql"
	_, err = initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestInitStore_PostgresInvalidURL(t *testing.T) {
	c := testConfig(t)
	c.Store.Driver = "postgres"
	c.Store.DatabaseURL = "not a url ::"
	withConfig(t, c)

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init postgres store")
}

func TestInitDetection(t *testing.T) {
	withConfig(t, testConfig(t))

	env, err := initDetection(context.Background(), "detect")
	require.NoError(t, err)
	t.Cleanup(env.Close)

	require.NotNil(t, env.Orchestrator)
	require.NoError(t, env.Store.Ping(context.Background()))
}

func TestInitDetection_InvalidConfig(t *testing.T) {
	c := testConfig(t)
	c.Anthropic.Key = ""
	withConfig(t, c)

	_, err := initDetection(context.Background(), "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestInitDetection_BadAliasesFile(t *testing.T) {
	c := testConfig(t)
	c.Langcode.AliasesFile = filepath.Join(t.TempDir(), "missing.yaml")
	withConfig(t, c)

	_, err := initDetection(context.Background(), "detect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load language codes")
}
