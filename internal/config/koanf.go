// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in priority order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/shoprec/config.yaml",
	"/etc/shoprec/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. Defaults load
// first, then the config file, then environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/shoprec.duckdb",
			MaxMemory: "2GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Dataset: DatasetConfig{
			Dir:            "/data/dataset",
			BuildOnStartup: true,
		},
		Pipeline: PipelineConfig{
			TopProducts: 1000,
		},
		Basket: BasketConfig{
			SampleSize:       30000,
			MinItemFrequency: 10,
			MinSupport:       0.0001,
			MinConfidence:    0.01,
			KeepConfidence:   0.05,
			MaxItemsetSize:   3,
			RebuildInterval:  24 * time.Hour,
		},
		Recommend: RecommendConfig{
			DefaultLimit: 10,
			MaxLimit:     100,
			CacheTTL:     5 * time.Minute,
		},
		Personas: PersonaConfig{
			Rules:    DefaultPersonaRules(),
			Fallback: DefaultPersonaFallback,
		},
		LLM: LLMConfig{
			Enabled:           false, // opt-in: agents degrade to deterministic fallbacks
			BaseURL:           "https://api.openai.com/v1",
			APIKey:            "",
			Model:             "gpt-4o-mini",
			Timeout:           30 * time.Second,
			MaxRetries:        3,
			RequestsPerSecond: 2,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if present)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// SHOPREC_SERVER_PORT -> server.port, LLM_API_KEY -> llm.api_key, etc.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// An empty persona table after overrides falls back to the built-in one.
	if len(cfg.Personas.Rules) == 0 {
		cfg.Personas.Rules = DefaultPersonaRules()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices when
// they arrive as strings from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated env strings into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unrecognized variables are ignored so unrelated environment noise cannot
// leak into configuration.
//
// Examples:
//   - SHOPREC_SERVER_PORT -> server.port
//   - DUCKDB_PATH         -> database.path
//   - LLM_API_KEY         -> llm.api_key
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"shoprec_server_host":    "server.host",
		"shoprec_server_port":    "server.port",
		"shoprec_server_timeout": "server.timeout",
		"shoprec_environment":    "server.environment",
		"environment":            "server.environment",
		"http_port":              "server.port",

		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		"dataset_dir":              "dataset.dir",
		"dataset_build_on_startup": "dataset.build_on_startup",

		"pipeline_top_products": "pipeline.top_products",

		"basket_sample_size":        "basket.sample_size",
		"basket_min_item_frequency": "basket.min_item_frequency",
		"basket_min_support":        "basket.min_support",
		"basket_min_confidence":     "basket.min_confidence",
		"basket_keep_confidence":    "basket.keep_confidence",
		"basket_max_itemset_size":   "basket.max_itemset_size",
		"basket_rebuild_interval":   "basket.rebuild_interval",

		"recommend_default_limit": "recommend.default_limit",
		"recommend_max_limit":     "recommend.max_limit",
		"recommend_cache_ttl":     "recommend.cache_ttl",

		"personas_fallback": "personas.fallback",

		"llm_enabled":             "llm.enabled",
		"llm_base_url":            "llm.base_url",
		"llm_api_key":             "llm.api_key",
		"openai_api_key":          "llm.api_key",
		"llm_model":               "llm.model",
		"llm_timeout":             "llm.timeout",
		"llm_max_retries":         "llm.max_retries",
		"llm_requests_per_second": "llm.requests_per_second",

		"rate_limit_reqs":     "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"rate_limit_disabled": "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if path, ok := envMappings[key]; ok {
		return path
	}
	return "" // unmapped variables are dropped
}
