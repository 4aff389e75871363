package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearFeedwatchEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FEEDWATCH_PORT", "FEEDWATCH_HOST", "FEEDWATCH_DB_PATH",
		"FEEDWATCH_ADMIN_USER", "FEEDWATCH_ADMIN_PASSWORD",
		"FEEDWATCH_GRAPH_API_URL", "FEEDWATCH_GRAPH_ACCESS_TOKEN", "FEEDWATCH_GRAPH_TIMEOUT",
		"FEEDWATCH_CATALOG_ID", "FEEDWATCH_FEED_ID", "FEEDWATCH_FEED_DATA_URL",
		"FEEDWATCH_TRACKER_INTERVAL", "FEEDWATCH_CHECK_INTERVAL",
		"FEEDWATCH_FEED_GENERATION_LIMIT", "FEEDWATCH_NATS_URL", "FEEDWATCH_NATS_SUBJECT",
		"FEEDWATCH_ENABLE_FEED_STATUS", "FEEDWATCH_ENABLE_FEED_CONFIG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearFeedwatchEnv(t)

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 4000, config.Server.Port)
	assert.Equal(t, "https://graph.facebook.com/v12.0", config.Graph.BaseURL)
	assert.Equal(t, 24*time.Hour, config.Features.FeedConfig.TrackerInterval)
	assert.Equal(t, 500, config.Features.FeedStatus.FeedGenerationLimit)
	assert.True(t, config.IsFeatureEnabled("feed_config"))
	assert.True(t, config.IsFeatureEnabled("FEED_STATUS"))
	assert.False(t, config.IsFeatureEnabled("uptime"))
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	clearFeedwatchEnv(t)
	t.Setenv("FEEDWATCH_PORT", "8080")
	t.Setenv("FEEDWATCH_CATALOG_ID", "1234")
	t.Setenv("FEEDWATCH_TRACKER_INTERVAL", "6h")
	t.Setenv("FEEDWATCH_FEED_GENERATION_LIMIT", "250")
	t.Setenv("FEEDWATCH_ENABLE_FEED_STATUS", "false")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "1234", config.Features.FeedConfig.CatalogID)
	assert.Equal(t, 6*time.Hour, config.Features.FeedConfig.TrackerInterval)
	assert.Equal(t, 250, config.Features.FeedStatus.FeedGenerationLimit)
	assert.False(t, config.Features.FeedStatus.Enabled)
}

func TestLoadConfig_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearFeedwatchEnv(t)
	t.Setenv("FEEDWATCH_PORT", "not-a-port")
	t.Setenv("FEEDWATCH_GRAPH_TIMEOUT", "soon")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 4000, config.Server.Port)
	assert.Equal(t, 30*time.Second, config.Graph.Timeout)
}

func TestConfig_Validate(t *testing.T) {
	clearFeedwatchEnv(t)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"empty graph url", func(c *Config) { c.Graph.BaseURL = "" }},
		{"tracker interval too short", func(c *Config) { c.Features.FeedConfig.TrackerInterval = time.Second }},
		{"zero page size", func(c *Config) { c.Features.FeedStatus.FeedGenerationLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfig()
			require.NoError(t, err)

			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}
