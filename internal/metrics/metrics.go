// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Package metrics exposes Prometheus instrumentation for the warehouse,
// the API surface, the feature pipeline, the recommendation agents, and the
// language-model client.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Warehouse metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Feature pipeline metrics
	PipelineBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_build_duration_seconds",
			Help:    "Duration of feature table builds in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	PipelineRowsBuilt = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_feature_rows",
			Help: "Number of rows in the last built feature table",
		},
	)

	PipelineBuildErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_build_errors_total",
			Help: "Total number of failed feature table builds",
		},
	)

	PipelineLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_last_success_timestamp",
			Help: "Unix timestamp of the last successful feature table build",
		},
	)

	// Recommendation agent metrics
	AgentRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_agent_requests_total",
			Help: "Total number of recommendation requests per agent",
		},
		[]string{"agent", "outcome"}, // outcome: "ok", "not_found", "error"
	)

	AgentLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_agent_duration_seconds",
			Help:    "Recommendation agent latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"agent"},
	)

	RecommendCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
	)

	RecommendCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
	)

	// Basket rule mining metrics
	BasketTrainDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "basket_train_duration_seconds",
			Help:    "Duration of association rule training in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	BasketRuleCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "basket_rules",
			Help: "Number of association rules in the active rule set",
		},
	)

	BasketTrainErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "basket_train_errors_total",
			Help: "Total number of failed rule training runs",
		},
	)

	// Language model metrics
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of language model requests",
		},
		[]string{"purpose", "outcome"}, // purpose: "narration", "category_selection"
	)

	LLMLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Language model request latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	LLMFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "llm_fallbacks_total",
			Help: "Total number of times template output replaced model output",
		},
	)
)

// RecordDBQuery records one warehouse query.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPipelineBuild records one feature table build.
func RecordPipelineBuild(duration time.Duration, rows int, err error) {
	PipelineBuildDuration.Observe(duration.Seconds())
	if err != nil {
		PipelineBuildErrors.Inc()
		return
	}
	PipelineRowsBuilt.Set(float64(rows))
	PipelineLastSuccess.SetToCurrentTime()
}

// RecordAgentRequest records one agent invocation.
func RecordAgentRequest(agent, outcome string, duration time.Duration) {
	AgentRequests.WithLabelValues(agent, outcome).Inc()
	AgentLatency.WithLabelValues(agent).Observe(duration.Seconds())
}

// RecordBasketTraining records one rule mining run.
func RecordBasketTraining(duration time.Duration, rules int, err error) {
	BasketTrainDuration.Observe(duration.Seconds())
	if err != nil {
		BasketTrainErrors.Inc()
		return
	}
	BasketRuleCount.Set(float64(rules))
}

// RecordLLMRequest records one language model call.
func RecordLLMRequest(purpose string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	LLMRequests.WithLabelValues(purpose, outcome).Inc()
	LLMLatency.Observe(duration.Seconds())
}
