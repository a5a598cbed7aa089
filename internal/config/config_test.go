// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestDefaultPersonaRulesComplete(t *testing.T) {
	rules := DefaultPersonaRules()
	if len(rules) != 23 {
		t.Errorf("expected 23 persona categories, got %d", len(rules))
	}
	for category, labels := range rules {
		if len(labels) == 0 {
			t.Errorf("category %q has no persona labels", category)
		}
	}
	if got := rules["consoles_games"]; len(got) != 2 || got[0] != "Gamer" {
		t.Errorf("consoles_games = %v, want [Gamer Tech Enthusiast]", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"bad environment", func(c *Config) { c.Server.Environment = "staging" }},
		{"zero top products", func(c *Config) { c.Pipeline.TopProducts = 0 }},
		{"zero sample size", func(c *Config) { c.Basket.SampleSize = 0 }},
		{"support out of range", func(c *Config) { c.Basket.MinSupport = 1.5 }},
		{"keep below min confidence", func(c *Config) {
			c.Basket.MinConfidence = 0.5
			c.Basket.KeepConfidence = 0.1
		}},
		{"itemset size one", func(c *Config) { c.Basket.MaxItemsetSize = 1 }},
		{"default limit above max", func(c *Config) {
			c.Recommend.MaxLimit = 10
			c.Recommend.DefaultLimit = 50
		}},
		{"empty fallback persona", func(c *Config) { c.Personas.Fallback = "" }},
		{"llm enabled without base url", func(c *Config) {
			c.LLM.Enabled = true
			c.LLM.BaseURL = ""
		}},
		{"llm enabled without model", func(c *Config) {
			c.LLM.Enabled = true
			c.LLM.Model = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("SHOPREC_SERVER_PORT", "9090")
	t.Setenv("BASKET_SAMPLE_SIZE", "5000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Basket.SampleSize != 5000 {
		t.Errorf("Basket.SampleSize = %d, want 5000", cfg.Basket.SampleSize)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Security.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Security.CORSOrigins[i] != want[i] {
			t.Errorf("CORSOrigins[%d] = %q, want %q", i, cfg.Security.CORSOrigins[i], want[i])
		}
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 7070
basket:
  rebuild_interval: 1h
personas:
  fallback: Everyday Shopper
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Basket.RebuildInterval != time.Hour {
		t.Errorf("Basket.RebuildInterval = %v, want 1h", cfg.Basket.RebuildInterval)
	}
	if cfg.Personas.Fallback != "Everyday Shopper" {
		t.Errorf("Personas.Fallback = %q, want Everyday Shopper", cfg.Personas.Fallback)
	}
	// File overrides must not wipe unrelated defaults.
	if cfg.Recommend.DefaultLimit != 10 {
		t.Errorf("Recommend.DefaultLimit = %d, want default 10", cfg.Recommend.DefaultLimit)
	}
}

func TestEnvTransformDropsUnknownKeys(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("envTransformFunc(PATH) = %q, want empty", got)
	}
	if got := envTransformFunc("SHOPREC_SERVER_PORT"); got != "server.port" {
		t.Errorf("envTransformFunc(SHOPREC_SERVER_PORT) = %q, want server.port", got)
	}
}
