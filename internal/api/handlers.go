// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package api

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tomtom215/shoprec/internal/llm"
	"github.com/tomtom215/shoprec/internal/logging"
	"github.com/tomtom215/shoprec/internal/middleware"
	"github.com/tomtom215/shoprec/internal/models"
	"github.com/tomtom215/shoprec/internal/recommend"
	"github.com/tomtom215/shoprec/internal/search"
)

// Warehouse is the slice of the storage layer the handlers need for health
// reporting.
type Warehouse interface {
	Ping(ctx context.Context) error
	CountRows(ctx context.Context) (int, error)
}

// Rebuilder re-runs the feature pipeline and swaps the serving data.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

// Handler holds the dependencies for all HTTP endpoints.
type Handler struct {
	engine    *recommend.Engine
	store     Warehouse
	searcher  *search.Searcher
	narrator  *llm.Narrator
	rebuilder Rebuilder
	perfMon   *middleware.PerformanceMonitor

	version   string
	startTime time.Time

	rebuildInFlight atomic.Bool
}

// NewHandler creates a handler. narrator and rebuilder may be nil; the
// corresponding features degrade (template narration, rebuild returns 503).
func NewHandler(engine *recommend.Engine, store Warehouse, searcher *search.Searcher,
	narrator *llm.Narrator, rebuilder Rebuilder, perfMon *middleware.PerformanceMonitor, version string) *Handler {
	return &Handler{
		engine:    engine,
		store:     store,
		searcher:  searcher,
		narrator:  narrator,
		rebuilder: rebuilder,
		perfMon:   perfMon,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthLive is the liveness probe. It answers as long as the process serves
// requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "alive"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady is the readiness probe: the warehouse must answer and the
// feature table must be populated.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "DATA_ERROR", "Warehouse not reachable", err)
		return
	}
	rows, err := h.store.CountRows(ctx)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "DATA_ERROR", "Feature table not readable", err)
		return
	}
	if rows == 0 {
		respondError(w, http.StatusServiceUnavailable, "DATA_ERROR", "Feature table is empty", nil)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]any{"status": "ready", "feature_rows": rows},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// healthReport is the detailed health payload.
type healthReport struct {
	Status        string                     `json:"status"`
	Version       string                     `json:"version"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	FeatureRows   int                        `json:"feature_rows"`
	Agents        []string                   `json:"agents"`
	EngineMetrics map[string]uint64          `json:"engine_metrics"`
	Endpoints     []middleware.EndpointStats `json:"endpoints,omitempty"`
}

// Health returns the detailed health report including engine counters and
// per-endpoint latency statistics.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	rows := 0
	if err := h.store.Ping(ctx); err != nil {
		status = "degraded"
	} else if n, err := h.store.CountRows(ctx); err == nil {
		rows = n
	}

	m := h.engine.Metrics()
	report := healthReport{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		FeatureRows:   rows,
		Agents:        h.engine.Agents(),
		EngineMetrics: map[string]uint64{
			"requests":   m.Requests,
			"cache_hits": m.CacheHits,
			"errors":     m.Errors,
		},
	}
	if h.perfMon != nil {
		report.Endpoints = h.perfMon.GetStats()
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, &models.APIResponse{
		Status:   "success",
		Data:     report,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// PipelineRebuild triggers an asynchronous feature table rebuild. Returns
// 202 when started, 409 when a rebuild is already running.
func (h *Handler) PipelineRebuild(w http.ResponseWriter, r *http.Request) {
	if h.rebuilder == nil {
		respondError(w, http.StatusServiceUnavailable, "DATA_ERROR", "Pipeline rebuild not configured", nil)
		return
	}
	if !h.rebuildInFlight.CompareAndSwap(false, true) {
		respondError(w, http.StatusConflict, "VALIDATION_ERROR", "A rebuild is already running", nil)
		return
	}

	requestID := middleware.GetRequestID(r.Context())
	go func() {
		defer h.rebuildInFlight.Store(false)

		// Detached from the request; a rebuild outlives the HTTP call.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		start := time.Now()
		if err := h.rebuilder.Rebuild(ctx); err != nil {
			logging.Error().Err(err).Str("request_id", requestID).
				Msg("Pipeline rebuild failed")
			return
		}
		logging.Info().
			Dur("duration", time.Since(start)).
			Str("request_id", requestID).
			Msg("Pipeline rebuild completed")
	}()

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "rebuild started"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// searchRequest carries validated query parameters for Search.
type searchRequest struct {
	Query string `validate:"required,min=1,max=200"`
	Limit int    `validate:"min=1,max=100"`
}

// Search looks up catalog products by name or category.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	req := searchRequest{
		Query: r.URL.Query().Get("q"),
		Limit: getIntParam(r, "limit", 20),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	start := time.Now()
	items, err := h.searcher.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATA_ERROR", "Search failed", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   map[string]any{"items": items, "query": req.Query},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Count:       len(items),
		},
	})
}
