// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Command server runs the recommendation platform: it loads the marketplace
// export, builds the denormalized feature table into the DuckDB warehouse,
// wires the four recommendation agents and the optional language-model
// collaborator, and serves the HTTP API under a supervisor tree.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/shoprec/internal/api"
	"github.com/tomtom215/shoprec/internal/config"
	"github.com/tomtom215/shoprec/internal/dataset"
	"github.com/tomtom215/shoprec/internal/llm"
	"github.com/tomtom215/shoprec/internal/logging"
	"github.com/tomtom215/shoprec/internal/metrics"
	"github.com/tomtom215/shoprec/internal/middleware"
	"github.com/tomtom215/shoprec/internal/pipeline"
	"github.com/tomtom215/shoprec/internal/recommend"
	"github.com/tomtom215/shoprec/internal/search"
	"github.com/tomtom215/shoprec/internal/sentiment"
	"github.com/tomtom215/shoprec/internal/supervisor"
	"github.com/tomtom215/shoprec/internal/supervisor/services"
	"github.com/tomtom215/shoprec/internal/trends"
	"github.com/tomtom215/shoprec/internal/warehouse"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	log := logging.Logger()

	log.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Shoprec")

	store, err := warehouse.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open warehouse: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing warehouse")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder := pipeline.NewBuilder(pipeline.Config{
		TopProducts:     cfg.Pipeline.TopProducts,
		PersonaRules:    personaRules(cfg),
		PersonaFallback: personaFallback(cfg),
	}, sentiment.NewLexiconScorer(), log)

	rebuilder := &featureRebuilder{
		cfg:     cfg,
		builder: builder,
		store:   store,
	}

	if err := ensureFeatureTable(ctx, cfg, store, rebuilder); err != nil {
		return err
	}

	// Optional language-model collaborator.
	var narrator *llm.Narrator
	var selector recommend.CategorySelector
	if cfg.LLM.Enabled {
		client := llm.NewClient(llm.ClientConfig{
			BaseURL:           cfg.LLM.BaseURL,
			APIKey:            cfg.LLM.APIKey,
			Model:             cfg.LLM.Model,
			Timeout:           cfg.LLM.Timeout,
			MaxRetries:        cfg.LLM.MaxRetries,
			RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		}, nil)
		narrator = llm.NewNarrator(client)
		selector = llm.NewCategorySelector(client)
		log.Info().Str("model", cfg.LLM.Model).Msg("Language model enabled")
	} else {
		narrator = llm.NewNarrator(nil)
		log.Info().Msg("Language model disabled, using template narration")
	}

	engine := recommend.NewEngine(recommend.EngineConfig{
		DefaultLimit: cfg.Recommend.DefaultLimit,
		MaxLimit:     cfg.Recommend.MaxLimit,
		CacheTTL:     cfg.Recommend.CacheTTL,
	}, log)

	basket := recommend.NewBasketAgent(store, recommend.BasketConfig{
		SampleSize:       cfg.Basket.SampleSize,
		MinItemFrequency: cfg.Basket.MinItemFrequency,
		MinSupport:       cfg.Basket.MinSupport,
		MinConfidence:    cfg.Basket.MinConfidence,
		KeepConfidence:   cfg.Basket.KeepConfidence,
		MaxItemsetSize:   cfg.Basket.MaxItemsetSize,
	}, log)

	engine.Register(recommend.NewHistoryAgent(store, log))
	engine.Register(recommend.NewCohortAgent(store, personaFallback(cfg), log))
	engine.Register(basket)
	engine.Register(recommend.NewContextAgent(store, trends.DefaultSources(), selector, log))

	rebuilder.engine = engine
	rebuilder.basket = basket

	// Initial rule training; the basket agent answers ErrNotTrained until
	// this completes or a retrain succeeds.
	trainStart := time.Now()
	if err := basket.Train(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial rule training failed, basket agent degraded")
		metrics.RecordBasketTraining(time.Since(trainStart), 0, err)
	} else {
		rules := 0
		if rs := basket.RuleSet(); rs != nil {
			rules = len(rs.Rules)
		}
		metrics.RecordBasketTraining(time.Since(trainStart), rules, nil)
		log.Info().Int("rules", rules).Msg("Initial rule training completed")
	}

	perfMon := middleware.NewPerformanceMonitor(1000)
	handler := api.NewHandler(engine, store, search.New(store), narrator, rebuilder, perfMon, version)
	router := api.NewRouter(handler, &cfg.Security)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
	}

	slogLogger := slog.New(logging.NewSlogHandler())
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	if cfg.Basket.RebuildInterval > 0 {
		tree.AddDataService(services.NewRetrainService(basket, cfg.Basket.RebuildInterval))
	}

	log.Info().Str("addr", server.Addr).Msg("Serving HTTP API")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor: %w", err)
	}

	log.Info().Msg("Shutdown complete")
	return nil
}

// ensureFeatureTable builds the feature table from the CSV export when the
// warehouse is empty and startup builds are enabled.
func ensureFeatureTable(ctx context.Context, cfg *config.Config, store *warehouse.Store, rebuilder *featureRebuilder) error {
	rows, err := store.CountRows(ctx)
	if err != nil {
		return fmt.Errorf("inspect feature table: %w", err)
	}
	if rows > 0 {
		logging.Info().Int("rows", rows).Msg("Feature table already populated")
		return nil
	}
	if !cfg.Dataset.BuildOnStartup {
		logging.Warn().Msg("Feature table empty and startup build disabled")
		return nil
	}
	return rebuilder.Rebuild(ctx)
}

// personaRules returns the configured persona table, falling back to the
// built-in one.
func personaRules(cfg *config.Config) map[string][]string {
	if len(cfg.Personas.Rules) > 0 {
		return cfg.Personas.Rules
	}
	return config.DefaultPersonaRules()
}

func personaFallback(cfg *config.Config) string {
	if cfg.Personas.Fallback != "" {
		return cfg.Personas.Fallback
	}
	return config.DefaultPersonaFallback
}

// featureRebuilder reloads the CSV export, rebuilds the feature table, swaps
// it into the warehouse, invalidates caches, and retrains the basket agent.
type featureRebuilder struct {
	cfg     *config.Config
	builder *pipeline.Builder
	store   *warehouse.Store

	// Set after engine construction; nil during the startup build.
	engine *recommend.Engine
	basket *recommend.BasketAgent
}

// Rebuild implements api.Rebuilder.
func (r *featureRebuilder) Rebuild(ctx context.Context) error {
	start := time.Now()

	loader := dataset.NewLoader(r.cfg.Dataset.Dir, logging.Logger())
	ds, err := loader.Load(ctx)
	if err != nil {
		metrics.RecordPipelineBuild(time.Since(start), 0, err)
		return fmt.Errorf("load dataset: %w", err)
	}

	rows, err := r.builder.Build(ctx, ds)
	if err != nil {
		metrics.RecordPipelineBuild(time.Since(start), 0, err)
		return fmt.Errorf("build feature table: %w", err)
	}

	if err := r.store.ReplaceRows(ctx, rows); err != nil {
		metrics.RecordPipelineBuild(time.Since(start), 0, err)
		return fmt.Errorf("persist feature table: %w", err)
	}
	metrics.RecordPipelineBuild(time.Since(start), len(rows), nil)

	if r.engine != nil {
		r.engine.InvalidateCache()
	}
	if r.basket != nil {
		if err := r.basket.Train(ctx); err != nil {
			logging.Warn().Err(err).Msg("Rule retraining after rebuild failed")
		}
	}

	logging.Info().
		Int("rows", len(rows)).
		Dur("duration", time.Since(start)).
		Msg("Feature table rebuilt")
	return nil
}
