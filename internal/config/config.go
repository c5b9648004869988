// Package config loads pipeline configuration from the environment and an
// optional YAML generation profile. Components receive an explicit *Config
// (or a profile value); nothing reads the environment after Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Generation backend
	GenProvider string // "openai" or "gemini"
	OpenAIKey   string
	OpenAIModel string
	GeminiKey   string
	GeminiModel string
	MaxTokens   int
	Temperature float64

	// History weighting
	LastK       int // history window size
	HalfLife    int // decay half-life, in item-count units
	CtxMaxChars int // context digest character budget

	// History source
	HistorySource  string // "db" or "rss"
	HistoryFeedURL string
	DatabaseURL    string

	// Images
	ImageAltSuffix string
	ForceProvider  string // non-empty skips the chain and uses one provider

	// Export
	PayloadPath string

	// Profile (prompts, default topics, extra tags)
	ProfilePath string

	// App settings
	Debug          bool
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
	MaxLLMRequests int // per run window, 0 = unlimited
	ImagePace      time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		GenProvider:    "openai",
		OpenAIModel:    "gpt-4o-mini",
		GeminiModel:    "gemini-1.5-flash",
		MaxTokens:      900,
		Temperature:    0.7,
		LastK:          40,
		HalfLife:       10,
		CtxMaxChars:    8000,
		HistorySource:  "db",
		ImageAltSuffix: "(вымышленная иллюстрация)",
		PayloadPath:    "articles_payload.json",
		ProfilePath:    "configs/newsgen.yaml",
		RequestTimeout: 30 * time.Second,
		RetryAttempts:  3,
		RetryDelay:     5 * time.Second,
		MaxLLMRequests: 20,
		ImagePace:      300 * time.Millisecond,
	}

	// Load from environment
	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.GeminiKey = os.Getenv("GEMINI_API_KEY")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.HistoryFeedURL = os.Getenv("HISTORY_FEED_URL")
	cfg.ForceProvider = os.Getenv("IMAGE_PROVIDER")

	if v := os.Getenv("GEN_PROVIDER"); v != "" {
		cfg.GenProvider = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAIModel = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.GeminiModel = v
	}
	if v := os.Getenv("HISTORY_SOURCE"); v != "" {
		cfg.HistorySource = v
	}
	if v := os.Getenv("IMAGE_ALT_SUFFIX"); v != "" {
		cfg.ImageAltSuffix = v
	}

	cfg.PayloadPath = getEnvOrDefault("PAYLOAD_PATH", cfg.PayloadPath)
	cfg.ProfilePath = getEnvOrDefault("PROFILE_PATH", cfg.ProfilePath)

	cfg.MaxTokens = getEnvIntOrDefault("MAX_TOKENS", cfg.MaxTokens)
	cfg.LastK = getEnvIntOrDefault("LAST_K", cfg.LastK)
	cfg.HalfLife = getEnvIntOrDefault("HALF_LIFE", cfg.HalfLife)
	cfg.CtxMaxChars = getEnvIntOrDefault("CTX_MAX_CHARS", cfg.CtxMaxChars)
	cfg.MaxLLMRequests = getEnvIntOrDefault("MAX_LLM_REQUESTS", cfg.MaxLLMRequests)

	if v := os.Getenv("TEMPERATURE"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil && val >= 0 {
			cfg.Temperature = val
		}
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	switch c.GenProvider {
	case "openai":
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when GEN_PROVIDER=openai")
		}
	case "gemini":
		if c.GeminiKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when GEN_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("GEN_PROVIDER must be 'openai' or 'gemini'")
	}

	switch c.HistorySource {
	case "db":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when HISTORY_SOURCE=db")
		}
	case "rss":
		if c.HistoryFeedURL == "" {
			return fmt.Errorf("HISTORY_FEED_URL is required when HISTORY_SOURCE=rss")
		}
	default:
		return fmt.Errorf("HISTORY_SOURCE must be 'db' or 'rss'")
	}

	if c.LastK < 1 {
		return fmt.Errorf("LAST_K must be at least 1")
	}
	if c.HalfLife < 1 {
		return fmt.Errorf("HALF_LIFE must be at least 1")
	}
	return nil
}
