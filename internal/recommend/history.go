// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// HistoryAgent recommends products from the categories the customer has
// already bought from, ranked by average review sentiment. The customer's
// own purchases stay eligible: repeat purchases are common in this catalog.
type HistoryAgent struct {
	provider DataProvider
	log      zerolog.Logger
}

var _ Agent = (*HistoryAgent)(nil)

// NewHistoryAgent creates the order-history agent.
func NewHistoryAgent(provider DataProvider, log zerolog.Logger) *HistoryAgent {
	return &HistoryAgent{
		provider: provider,
		log:      log.With().Str("agent", AgentHistory).Logger(),
	}
}

// Name implements Agent.
func (a *HistoryAgent) Name() string { return AgentHistory }

// Recommend implements Agent.
func (a *HistoryAgent) Recommend(ctx context.Context, req Request) (*Response, error) {
	history, err := a.provider.RowsByUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("history agent: %w", err)
	}
	if len(history) == 0 {
		return nil, ErrNoHistory
	}

	// Unique categories in first-purchase order.
	seen := make(map[string]struct{})
	var categories []string
	for _, row := range history {
		if row.Category == "" {
			continue
		}
		if _, dup := seen[row.Category]; dup {
			continue
		}
		seen[row.Category] = struct{}{}
		categories = append(categories, row.Category)
	}
	if len(categories) == 0 {
		return nil, ErrNoHistory
	}

	candidates, err := a.provider.RowsByCategories(ctx, categories)
	if err != nil {
		return nil, fmt.Errorf("history agent: %w", err)
	}

	items := topBySentiment(aggregateByProduct(candidates), req.Limit)
	a.log.Debug().
		Str("user", req.UserID).
		Int("categories", len(categories)).
		Int("items", len(items)).
		Msg("history recommendations generated")

	return &Response{
		Agent:       AgentHistory,
		Items:       items,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
