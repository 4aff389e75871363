package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the main configuration for feedwatch
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Auth     AuthConfig     `json:"auth"`
	Graph    GraphConfig    `json:"graph"`
	Features FeatureConfig  `json:"features"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Path string `json:"path"`
}

// AuthConfig contains admin authentication configuration
type AuthConfig struct {
	AdminUser     string `json:"admin_user"`
	AdminPassword string `json:"admin_password"`
}

// GraphConfig contains Facebook Graph API access configuration
type GraphConfig struct {
	BaseURL     string        `json:"base_url"`
	AccessToken string        `json:"access_token"`
	Timeout     time.Duration `json:"timeout"`
}

// FeatureConfig contains feature-specific configuration
type FeatureConfig struct {
	FeedConfig FeedConfigConfig `json:"feed_config"`
	FeedStatus FeedStatusConfig `json:"feed_status"`
}

// FeedConfigConfig configures feed configuration detection and tracking
type FeedConfigConfig struct {
	Enabled         bool          `json:"enabled"`
	CatalogID       string        `json:"catalog_id"`
	FeedID          string        `json:"feed_id"`
	FeedDataURL     string        `json:"feed_data_url"`
	TrackerInterval time.Duration `json:"tracker_interval"`
	CheckInterval   time.Duration `json:"check_interval"`
	NATSURL         string        `json:"nats_url"`
	NATSSubject     string        `json:"nats_subject"`
}

// FeedStatusConfig configures the feed generation status page
type FeedStatusConfig struct {
	Enabled             bool `json:"enabled"`
	FeedGenerationLimit int  `json:"feed_generation_limit"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("FEEDWATCH_PORT", 4000),
			Host: getEnvOrDefault("FEEDWATCH_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Path: getEnvOrDefault("FEEDWATCH_DB_PATH", "./feedwatch.db"),
		},
		Auth: AuthConfig{
			AdminUser:     getEnvOrDefault("FEEDWATCH_ADMIN_USER", "admin"),
			AdminPassword: getEnvOrDefault("FEEDWATCH_ADMIN_PASSWORD", ""),
		},
		Graph: GraphConfig{
			BaseURL:     getEnvOrDefault("FEEDWATCH_GRAPH_API_URL", "https://graph.facebook.com/v12.0"),
			AccessToken: getEnvOrDefault("FEEDWATCH_GRAPH_ACCESS_TOKEN", ""),
			Timeout:     getEnvAsDuration("FEEDWATCH_GRAPH_TIMEOUT", 30*time.Second),
		},
		Features: FeatureConfig{
			FeedConfig: FeedConfigConfig{
				Enabled:         getEnvAsBool("FEEDWATCH_ENABLE_FEED_CONFIG", true),
				CatalogID:       getEnvOrDefault("FEEDWATCH_CATALOG_ID", ""),
				FeedID:          getEnvOrDefault("FEEDWATCH_FEED_ID", ""),
				FeedDataURL:     getEnvOrDefault("FEEDWATCH_FEED_DATA_URL", ""),
				TrackerInterval: getEnvAsDuration("FEEDWATCH_TRACKER_INTERVAL", 24*time.Hour),
				CheckInterval:   getEnvAsDuration("FEEDWATCH_CHECK_INTERVAL", 24*time.Hour),
				NATSURL:         getEnvOrDefault("FEEDWATCH_NATS_URL", ""),
				NATSSubject:     getEnvOrDefault("FEEDWATCH_NATS_SUBJECT", "feedwatch.tracker.feed_config"),
			},
			FeedStatus: FeedStatusConfig{
				Enabled:             getEnvAsBool("FEEDWATCH_ENABLE_FEED_STATUS", true),
				FeedGenerationLimit: getEnvAsInt("FEEDWATCH_FEED_GENERATION_LIMIT", 500),
			},
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Graph.BaseURL == "" {
		return fmt.Errorf("graph API URL is required")
	}

	if c.Graph.Timeout <= 0 {
		return fmt.Errorf("graph API timeout must be positive")
	}

	if c.Features.FeedConfig.Enabled {
		if c.Features.FeedConfig.TrackerInterval < time.Minute {
			return fmt.Errorf("tracker interval must be at least one minute")
		}
		if c.Features.FeedConfig.CheckInterval < time.Minute {
			return fmt.Errorf("check interval must be at least one minute")
		}
	}

	if c.Features.FeedStatus.FeedGenerationLimit <= 0 {
		return fmt.Errorf("feed generation limit must be positive")
	}

	return nil
}

// IsFeatureEnabled checks if a feature is enabled
func (c *Config) IsFeatureEnabled(featureName string) bool {
	switch strings.ToLower(featureName) {
	case "feed_config":
		return c.Features.FeedConfig.Enabled
	case "feed_status":
		return c.Features.FeedStatus.Enabled
	default:
		return false
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("36h") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
