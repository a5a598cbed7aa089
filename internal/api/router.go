// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/shoprec/internal/config"
	"github.com/tomtom215/shoprec/internal/metrics"
	"github.com/tomtom215/shoprec/internal/middleware"
	"github.com/tomtom215/shoprec/internal/recommend"
)

// Router wires handlers onto the Chi routing tree.
type Router struct {
	handler *Handler
	cfg     *config.SecurityConfig
}

// NewRouter creates a router for the given handler. cfg may be nil for
// defaults (no CORS origins, 100 req/min rate limit).
func NewRouter(handler *Handler, cfg *config.SecurityConfig) *Router {
	if cfg == nil {
		cfg = &config.SecurityConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		}
	}
	return &Router{handler: handler, cfg: cfg}
}

// rateLimit builds an IP-keyed httprate limiter, or a no-op when disabled.
func (router *Router) rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if router.cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
			respondError(w, http.StatusTooManyRequests, "VALIDATION_ERROR", "Rate limit exceeded", nil)
		}),
	)
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         86400,
	}))
	if router.handler.perfMon != nil {
		r.Use(router.handler.perfMon.Middleware)
	}

	// Health endpoints get a permissive limit so probes never starve.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.rateLimit(1000, time.Minute))
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	window := router.cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	requests := router.cfg.RateLimitReqs
	if requests <= 0 {
		requests = 100
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.rateLimit(requests, window))
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.Compression)

		r.Route("/recommendations/{userID}", func(r chi.Router) {
			r.Get("/", router.handler.Recommendations)
			r.Get("/history", router.handler.AgentRecommendations(recommend.AgentHistory))
			r.Get("/cohort", router.handler.AgentRecommendations(recommend.AgentCohort))
			r.Get("/basket", router.handler.AgentRecommendations(recommend.AgentBasket))
			r.Get("/context", router.handler.AgentRecommendations(recommend.AgentContext))
		})

		r.Get("/search", router.handler.Search)
		r.Post("/pipeline/rebuild", router.handler.PipelineRebuild)
	})

	// Prometheus scrape endpoint, outside the API rate limits.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
