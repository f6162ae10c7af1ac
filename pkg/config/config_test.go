package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFillsDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "memory", c.Backend.Type)
	assert.Equal(t, 15000, c.Analysis.MaxContentChars)
	assert.Equal(t, "gemini-2.5-flash", c.Gemini.Model)
	assert.Equal(t, 15*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, "https://tradingeconomics.com/ws/stream.ashx?start=0&size=20", c.Analysis.EventStreamURL)
}

func TestParseRejectsUnknownBackend(t *testing.T) {
	_, err := Parse([]byte("environment: test\nbackend:\n  type: mongo\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.type")
}

func TestApplyEnvOverrides(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	env := map[string]string{
		"API_KEY":       "gem-key",
		"CRON_SECRET":   "s3cret",
		"KAFKA_BROKERS": "k1:9092,k2:9092",
		"CURRENCIES":    "USD,JPY",
	}
	c.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "gem-key", c.Gemini.APIKey)
	assert.Equal(t, "s3cret", c.Server.CronSecret)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, []string{"USD", "JPY"}, c.Analysis.Currencies)
}

func TestGeminiKeyPrefersSpecificVariable(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	env := map[string]string{"API_KEY": "generic", "GEMINI_API_KEY": "specific"}
	c.ApplyEnv(func(k string) string { return env[k] })
	assert.Equal(t, "specific", c.Gemini.APIKey)
}
