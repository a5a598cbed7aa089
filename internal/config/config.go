// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Package config loads and validates application configuration from three
// layered sources with clear precedence: environment variables > YAML config
// file > built-in defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Dataset   DatasetConfig   `koanf:"dataset"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Basket    BasketConfig    `koanf:"basket"`
	Recommend RecommendConfig `koanf:"recommend"`
	Personas  PersonaConfig   `koanf:"personas"`
	LLM       LLMConfig       `koanf:"llm"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig controls the embedded DuckDB warehouse.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" keeps the warehouse
	// in-process only.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads caps DuckDB worker threads. 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// DatasetConfig points at the raw CSV export consumed by the pipeline.
type DatasetConfig struct {
	// Dir holds the marketplace CSV tables.
	Dir string `koanf:"dir"`
	// BuildOnStartup rebuilds the feature table from CSV when the
	// warehouse has no orders_full table yet.
	BuildOnStartup bool `koanf:"build_on_startup"`
}

// PipelineConfig tunes feature engineering.
type PipelineConfig struct {
	// TopProducts caps the fallback ranking used when the dataset carries
	// no curated catalog: the feature table then keeps the N most frequently
	// ordered products.
	TopProducts int `koanf:"top_products"`
}

// BasketConfig tunes association-rule mining for the basket agent.
type BasketConfig struct {
	// SampleSize caps the number of feature-table rows mined.
	SampleSize int `koanf:"sample_size"`
	// MinItemFrequency drops products seen fewer times in the sample.
	MinItemFrequency int `koanf:"min_item_frequency"`
	// MinSupport is the Apriori frequent-itemset support floor.
	MinSupport float64 `koanf:"min_support"`
	// MinConfidence is the rule-derivation confidence floor.
	MinConfidence float64 `koanf:"min_confidence"`
	// KeepConfidence is the post-derivation retention floor.
	KeepConfidence float64 `koanf:"keep_confidence"`
	// MaxItemsetSize bounds Apriori candidate growth.
	MaxItemsetSize int `koanf:"max_itemset_size"`
	// RebuildInterval schedules background rule rebuilds. 0 disables.
	RebuildInterval time.Duration `koanf:"rebuild_interval"`
}

// RecommendConfig tunes the agent engine.
type RecommendConfig struct {
	DefaultLimit int           `koanf:"default_limit"`
	MaxLimit     int           `koanf:"max_limit"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
}

// PersonaConfig maps purchase categories to persona labels.
type PersonaConfig struct {
	// Rules maps a product category to the persona labels it implies.
	Rules map[string][]string `koanf:"rules"`
	// Fallback is assigned when no category maps to a label.
	Fallback string `koanf:"fallback"`
}

// LLMConfig controls the optional language-model collaborator.
type LLMConfig struct {
	Enabled bool          `koanf:"enabled"`
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
	// MaxRetries bounds retry attempts on 429/5xx responses.
	MaxRetries int `koanf:"max_retries"`
	// RequestsPerSecond throttles outbound calls. 0 disables the limiter.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// SecurityConfig holds rate limiting and CORS settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	switch c.Server.Environment {
	case "development", "production", "test":
	default:
		return fmt.Errorf("server.environment must be development, production, or test, got %q", c.Server.Environment)
	}
	if c.Pipeline.TopProducts < 1 {
		return fmt.Errorf("pipeline.top_products must be positive, got %d", c.Pipeline.TopProducts)
	}
	if c.Basket.SampleSize < 1 {
		return fmt.Errorf("basket.sample_size must be positive, got %d", c.Basket.SampleSize)
	}
	if c.Basket.MinSupport <= 0 || c.Basket.MinSupport > 1 {
		return fmt.Errorf("basket.min_support must be in (0, 1], got %g", c.Basket.MinSupport)
	}
	if c.Basket.MinConfidence <= 0 || c.Basket.MinConfidence > 1 {
		return fmt.Errorf("basket.min_confidence must be in (0, 1], got %g", c.Basket.MinConfidence)
	}
	if c.Basket.KeepConfidence < c.Basket.MinConfidence {
		return fmt.Errorf("basket.keep_confidence (%g) must be >= basket.min_confidence (%g)",
			c.Basket.KeepConfidence, c.Basket.MinConfidence)
	}
	if c.Basket.MaxItemsetSize < 2 {
		return fmt.Errorf("basket.max_itemset_size must be >= 2, got %d", c.Basket.MaxItemsetSize)
	}
	if c.Recommend.DefaultLimit < 1 || c.Recommend.DefaultLimit > c.Recommend.MaxLimit {
		return fmt.Errorf("recommend.default_limit must be 1-%d, got %d",
			c.Recommend.MaxLimit, c.Recommend.DefaultLimit)
	}
	if c.Personas.Fallback == "" {
		return fmt.Errorf("personas.fallback must not be empty")
	}
	if c.LLM.Enabled {
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("llm.base_url is required when llm.enabled is true")
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("llm.model is required when llm.enabled is true")
		}
	}
	return nil
}
