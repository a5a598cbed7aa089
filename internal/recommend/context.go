// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shoprec/internal/models"
)

// TrendSource supplies an opaque trend snapshot for a city. The trends
// package provides seasonal, events, and social implementations.
type TrendSource interface {
	Snapshot(ctx context.Context, city string) (string, error)
}

// CategorySelector narrows the candidate categories for a city given a trend
// snapshot. The llm package provides a language-model implementation; a nil
// selector disables the filter.
type CategorySelector interface {
	SelectCategories(ctx context.Context, city, trendSnapshot string, available []string) ([]string, error)
}

// ContextAgent recommends locally popular products in the customer's
// delivery city, optionally narrowed to trend-relevant categories.
type ContextAgent struct {
	provider DataProvider
	trends   []TrendSource
	selector CategorySelector
	log      zerolog.Logger
}

var _ Agent = (*ContextAgent)(nil)

// NewContextAgent creates the location agent. trends and selector may be
// empty/nil; the agent then ranks on city popularity alone.
func NewContextAgent(provider DataProvider, trends []TrendSource, selector CategorySelector, log zerolog.Logger) *ContextAgent {
	return &ContextAgent{
		provider: provider,
		trends:   trends,
		selector: selector,
		log:      log.With().Str("agent", AgentContext).Logger(),
	}
}

// Name implements Agent.
func (a *ContextAgent) Name() string { return AgentContext }

// Recommend implements Agent. The city resolves from the request override
// first, then the customer's first feature-table row; with neither available
// the result is ErrLocationNotFound.
func (a *ContextAgent) Recommend(ctx context.Context, req Request) (*Response, error) {
	city := req.City
	if city == "" {
		rows, err := a.provider.RowsByUser(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("context agent: %w", err)
		}
		if len(rows) == 0 || rows[0].CustomerCity == "" {
			return nil, ErrLocationNotFound
		}
		city = rows[0].CustomerCity
	}

	local, err := a.provider.RowsByCity(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("context agent: %w", err)
	}

	if filtered := a.applyTrendFilter(ctx, city, local); filtered != nil {
		local = filtered
	}

	items := popularItems(local, req.Limit)
	a.log.Debug().
		Str("user", req.UserID).
		Str("city", city).
		Int("local_rows", len(local)).
		Int("items", len(items)).
		Msg("context recommendations generated")

	return &Response{
		Agent:       AgentContext,
		Items:       items,
		GeneratedAt: time.Now().UTC(),
		City:        city,
	}, nil
}

// applyTrendFilter narrows rows to trend-relevant categories. Any failure
// along the way degrades to no filtering; returns nil when no filter applies.
func (a *ContextAgent) applyTrendFilter(ctx context.Context, city string, rows []models.OrdersFullRow) []models.OrdersFullRow {
	if a.selector == nil || len(rows) == 0 {
		return nil
	}

	snapshot := a.collectTrends(ctx, city)

	available, err := a.provider.Categories(ctx)
	if err != nil || len(available) == 0 {
		return nil
	}

	selected, err := a.selector.SelectCategories(ctx, city, snapshot, available)
	if err != nil {
		a.log.Warn().Err(err).Str("city", city).Msg("category selection failed, skipping trend filter")
		return nil
	}
	if len(selected) == 0 {
		return nil
	}

	keep := make(map[string]struct{}, len(selected))
	for _, cat := range selected {
		keep[cat] = struct{}{}
	}
	filtered := make([]models.OrdersFullRow, 0, len(rows))
	for _, row := range rows {
		if _, ok := keep[row.Category]; ok {
			filtered = append(filtered, row)
		}
	}
	if len(filtered) == 0 {
		// A filter that removes everything is worse than none.
		return nil
	}
	return filtered
}

// collectTrends concatenates the snapshots of all sources. A failing source
// contributes nothing.
func (a *ContextAgent) collectTrends(ctx context.Context, city string) string {
	var snapshot string
	for _, source := range a.trends {
		part, err := source.Snapshot(ctx, city)
		if err != nil {
			a.log.Warn().Err(err).Str("city", city).Msg("trend source failed")
			continue
		}
		if part == "" {
			continue
		}
		if snapshot != "" {
			snapshot += "\n"
		}
		snapshot += part
	}
	return snapshot
}

// popularItems ranks rows by per-product purchase count, ties on product id.
func popularItems(rows []models.OrdersFullRow, limit int) []Item {
	counts := make(map[string]int)
	firstRow := make(map[string]models.OrdersFullRow)
	for _, row := range rows {
		counts[row.ProductID]++
		if _, seen := firstRow[row.ProductID]; !seen {
			firstRow[row.ProductID] = row
		}
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	items := make([]Item, len(ids))
	for i, id := range ids {
		items[i] = hydrate(firstRow[id])
	}
	return items
}
