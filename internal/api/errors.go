// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Package api provides HTTP handlers and Chi routing for the platform.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/shoprec/internal/recommend"
)

// respondRecommendError maps recommendation sentinel errors onto HTTP
// statuses and stable error codes.
func respondRecommendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recommend.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "USER_NOT_FOUND", "Unknown customer identifier", err)
	case errors.Is(err, recommend.ErrNoHistory):
		respondError(w, http.StatusNotFound, "NO_PURCHASE_HISTORY", "Customer has no usable purchase history", err)
	case errors.Is(err, recommend.ErrLocationNotFound):
		respondError(w, http.StatusNotFound, "LOCATION_NOT_FOUND", "No delivery city on record for customer", err)
	case errors.Is(err, recommend.ErrUnknownAgent):
		respondError(w, http.StatusNotFound, "VALIDATION_ERROR", "Unknown recommendation agent", err)
	case errors.Is(err, recommend.ErrNotTrained):
		respondError(w, http.StatusServiceUnavailable, "DATA_ERROR", "Association rules not trained yet", err)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "TIMEOUT", "Recommendation timed out", err)
	default:
		respondError(w, http.StatusInternalServerError, "DATA_ERROR", "Failed to generate recommendations", err)
	}
}
