// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Package search implements catalog lookup over the denormalized feature
// table. Matching is case-insensitive substring over product title and
// category, which is all the prototype catalog needs.
package search

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/tomtom215/shoprec/internal/models"
	"github.com/tomtom215/shoprec/internal/recommend"
)

// ErrEmptyQuery is returned when the trimmed query is blank.
var ErrEmptyQuery = errors.New("search: empty query")

// Searcher finds catalog products by name or category.
type Searcher struct {
	provider recommend.DataProvider
}

// New builds a Searcher over the given provider.
func New(provider recommend.DataProvider) *Searcher {
	return &Searcher{provider: provider}
}

// Search returns up to limit distinct products whose title or category
// contains the query, ordered by sentiment descending with product ID as the
// tiebreaker. limit <= 0 means no cap.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]recommend.Item, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, ErrEmptyQuery
	}

	rows, err := s.provider.SampleRows(ctx, 0)
	if err != nil {
		return nil, err
	}

	type agg struct {
		item      recommend.Item
		sentiment float64
		price     float64
		count     int
	}
	matched := make(map[string]*agg)
	for _, row := range rows {
		if !rowMatches(row, query) {
			continue
		}
		a, ok := matched[row.ProductID]
		if !ok {
			a = &agg{item: recommend.Item{
				ProductID:   row.ProductID,
				Name:        row.Title,
				Description: row.ShortDescription,
				ImageURL:    row.ImageURL,
				Link:        row.ItemWebURL,
				Summary:     row.Summary,
				Category:    row.Category,
			}}
			matched[row.ProductID] = a
		}
		a.sentiment += row.AvgSentiment
		a.price += row.Price
		a.count++
	}

	items := make([]recommend.Item, 0, len(matched))
	for _, a := range matched {
		a.item.Sentiment = a.sentiment / float64(a.count)
		a.item.AvgPrice = a.price / float64(a.count)
		items = append(items, a.item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Sentiment != items[j].Sentiment {
			return items[i].Sentiment > items[j].Sentiment
		}
		return items[i].ProductID < items[j].ProductID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func rowMatches(row models.OrdersFullRow, query string) bool {
	if strings.Contains(strings.ToLower(row.Title), query) {
		return true
	}
	return strings.Contains(strings.ToLower(row.Category), query)
}
