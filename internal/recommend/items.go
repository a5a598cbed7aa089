// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"sort"

	"github.com/tomtom215/shoprec/internal/models"
)

// productAggregate accumulates per-product stats while scanning rows.
type productAggregate struct {
	first        models.OrdersFullRow
	sentimentSum float64
	priceSum     float64
	count        int
	firstIdx     int
}

// aggregateByProduct groups rows by product id. The first row seen per
// product supplies the descriptive fields; sentiment and target price are
// averaged over all rows.
func aggregateByProduct(rows []models.OrdersFullRow) map[string]*productAggregate {
	aggs := make(map[string]*productAggregate)
	for i, row := range rows {
		agg, ok := aggs[row.ProductID]
		if !ok {
			agg = &productAggregate{first: row, firstIdx: i}
			aggs[row.ProductID] = agg
		}
		agg.sentimentSum += row.AvgSentiment
		agg.priceSum += row.TargetPrice
		agg.count++
	}
	return aggs
}

// topBySentiment ranks aggregates by mean sentiment descending and returns
// up to limit hydrated items. Sentiment ties break on product id so output
// is stable.
func topBySentiment(aggs map[string]*productAggregate, limit int) []Item {
	ordered := make([]*productAggregate, 0, len(aggs))
	for _, agg := range aggs {
		ordered = append(ordered, agg)
	}
	sort.Slice(ordered, func(i, j int) bool {
		si := ordered[i].sentimentSum / float64(ordered[i].count)
		sj := ordered[j].sentimentSum / float64(ordered[j].count)
		if si != sj {
			return si > sj
		}
		return ordered[i].first.ProductID < ordered[j].first.ProductID
	})

	if limit > 0 && limit < len(ordered) {
		ordered = ordered[:limit]
	}
	items := make([]Item, len(ordered))
	for i, agg := range ordered {
		items[i] = hydrate(agg.first)
		items[i].Sentiment = agg.sentimentSum / float64(agg.count)
		items[i].AvgPrice = agg.priceSum / float64(agg.count)
	}
	return items
}

// hydrate maps a feature-table row to a recommendation item.
func hydrate(row models.OrdersFullRow) Item {
	return Item{
		ProductID:   row.ProductID,
		Name:        row.Title,
		Description: row.ShortDescription,
		ImageURL:    row.ImageURL,
		Link:        row.ItemWebURL,
		AvgPrice:    row.TargetPrice,
		Summary:     row.Summary,
		Category:    row.Category,
		Sentiment:   row.AvgSentiment,
	}
}
