// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/shoprec/internal/metrics"
	"github.com/tomtom215/shoprec/internal/models"
	"github.com/tomtom215/shoprec/internal/recommend"
)

// recommendRequest carries validated parameters shared by the
// recommendation endpoints.
type recommendRequest struct {
	UserID string `validate:"required,min=1,max=64"`
	Limit  int    `validate:"min=0,max=100"`
	City   string `validate:"max=100"`
}

func parseRecommendRequest(r *http.Request) recommendRequest {
	return recommendRequest{
		UserID: chi.URLParam(r, "userID"),
		Limit:  getIntParam(r, "limit", 0),
		City:   r.URL.Query().Get("city"),
	}
}

// recommendationsPayload is the combined response of all agents plus
// narration.
type recommendationsPayload struct {
	UserID          string                         `json:"user_id"`
	Recommendations map[string]*recommend.Response `json:"recommendations"`
	Failures        map[string]string              `json:"failures,omitempty"`
	Narration       string                         `json:"narration,omitempty"`
	NarrationSource string                         `json:"narration_source,omitempty"`
}

// Recommendations runs every registered agent for the customer and narrates
// the combined result. Individual agent failures are reported per agent and
// do not fail the request; only all agents failing does.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	req := parseRecommendRequest(r)
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	start := time.Now()
	responses, failures := h.engine.RecommendAll(r.Context(), recommend.Request{
		UserID: req.UserID,
		Limit:  req.Limit,
		City:   req.City,
	})

	if len(responses) == 0 && len(failures) > 0 {
		// Every agent failed; surface the most specific error.
		var firstErr error
		for _, err := range failures {
			if firstErr == nil {
				firstErr = err
			}
		}
		respondRecommendError(w, firstErr)
		return
	}

	payload := recommendationsPayload{
		UserID:          req.UserID,
		Recommendations: responses,
	}
	if len(failures) > 0 {
		payload.Failures = make(map[string]string, len(failures))
		for agent, err := range failures {
			payload.Failures[agent] = err.Error()
		}
	}

	if h.narrator != nil {
		narrateStart := time.Now()
		text, fromModel := h.narrator.Narrate(r.Context(), req.UserID, responses)
		payload.Narration = text
		payload.NarrationSource = "template"
		if fromModel {
			payload.NarrationSource = "model"
		} else {
			metrics.LLMFallbacks.Inc()
		}
		metrics.RecordLLMRequest("narration", time.Since(narrateStart), nil)
	}

	count := 0
	for _, resp := range responses {
		count += len(resp.Items)
	}
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   payload,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Count:       count,
		},
	})
}

// AgentRecommendations runs a single named agent.
func (h *Handler) AgentRecommendations(agentName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := parseRecommendRequest(r)
		if apiErr := validateRequest(&req); apiErr != nil {
			respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
			return
		}

		start := time.Now()
		resp, err := h.engine.Recommend(r.Context(), agentName, recommend.Request{
			UserID: req.UserID,
			Limit:  req.Limit,
			City:   req.City,
		})
		if err != nil {
			metrics.RecordAgentRequest(agentName, "error", time.Since(start))
			respondRecommendError(w, err)
			return
		}
		metrics.RecordAgentRequest(agentName, "ok", time.Since(start))
		if resp.Cached {
			metrics.RecommendCacheHits.Inc()
		} else {
			metrics.RecommendCacheMisses.Inc()
		}

		respondJSON(w, http.StatusOK, &models.APIResponse{
			Status: "success",
			Data:   resp,
			Metadata: models.Metadata{
				Timestamp:   time.Now(),
				QueryTimeMS: time.Since(start).Milliseconds(),
				Cached:      resp.Cached,
				Count:       len(resp.Items),
			},
		})
	}
}
