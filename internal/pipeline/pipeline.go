// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Package pipeline denormalizes the raw marketplace tables into the
// orders_full feature table the recommendation agents consume.
//
// One output row is one order item, left-joined with its order, customer,
// product, seller, review, payment, and catalog enrichment, then annotated
// with time-of-purchase features, review sentiment, and a customer persona.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shoprec/internal/models"
	"github.com/tomtom215/shoprec/internal/sentiment"
)

// ErrEmptyDataset indicates the raw export had no order items to process.
var ErrEmptyDataset = errors.New("pipeline: dataset has no order items")

// noDescription fills missing catalog short descriptions.
const noDescription = "No Description Provided"

// Config tunes the feature build.
type Config struct {
	// TopProducts caps the fallback product ranking when the dataset
	// carries no curated catalog. Frequency ties break on product id for
	// determinism.
	TopProducts int

	// PersonaRules maps a product category to persona labels.
	PersonaRules map[string][]string

	// PersonaFallback is assigned when no category maps to a label.
	PersonaFallback string
}

// Builder runs the feature-engineering pipeline.
type Builder struct {
	cfg    Config
	scorer sentiment.Scorer
	log    zerolog.Logger
}

// NewBuilder creates a Builder. The scorer must not be nil.
func NewBuilder(cfg Config, scorer sentiment.Scorer, log zerolog.Logger) *Builder {
	return &Builder{cfg: cfg, scorer: scorer, log: log.With().Str("component", "pipeline").Logger()}
}

// Build produces the orders_full feature table from the raw dataset.
//
// The join is item-driven: order items filtered to the top products, each
// left-joined against the remaining tables. Missing joins yield zero-value
// fields, never dropped rows. Exact duplicate rows are removed and every
// row gets quantity 1.
func (b *Builder) Build(ctx context.Context, ds *models.Dataset) ([]models.OrdersFullRow, error) {
	if ds == nil || len(ds.OrderItems) == 0 {
		return nil, ErrEmptyDataset
	}
	start := time.Now()

	top := b.curatedProductSet(ds)

	orders := make(map[string]models.Order, len(ds.Orders))
	for _, o := range ds.Orders {
		orders[o.OrderID] = o
	}
	customers := make(map[string]models.Customer, len(ds.Customers))
	for _, c := range ds.Customers {
		customers[c.CustomerID] = c
	}
	products := make(map[string]models.Product, len(ds.Products))
	for _, p := range ds.Products {
		products[p.ProductID] = p
	}
	sellers := make(map[string]models.Seller, len(ds.Sellers))
	for _, s := range ds.Sellers {
		sellers[s.SellerID] = s
	}
	// First review and first payment per order. The source tables can hold
	// several rows per order; row multiplication from a one-to-many join
	// would only be collapsed by dedup later.
	reviews := make(map[string]models.Review, len(ds.Reviews))
	for _, r := range ds.Reviews {
		if _, seen := reviews[r.OrderID]; !seen {
			reviews[r.OrderID] = r
		}
	}
	payments := make(map[string]models.Payment, len(ds.Payments))
	for _, p := range ds.Payments {
		if _, seen := payments[p.OrderID]; !seen {
			payments[p.OrderID] = p
		}
	}
	descriptions := make(map[string]models.ProductDescription, len(ds.Descriptions))
	for _, d := range ds.Descriptions {
		if d.ShortDescription == "" {
			d.ShortDescription = noDescription
		}
		descriptions[d.ProductID] = d
	}
	summaries := make(map[string]models.ReviewSummary, len(ds.Summaries))
	for _, s := range ds.Summaries {
		summaries[s.ProductID] = s
	}

	rows := make([]models.OrdersFullRow, 0, len(ds.OrderItems))
	for i, item := range ds.OrderItems {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("pipeline: build cancelled: %w", err)
			}
		}
		if _, ok := top[item.ProductID]; !ok {
			continue
		}

		row := models.OrdersFullRow{
			OrderID:   item.OrderID,
			ItemSeq:   item.ItemSeq,
			ProductID: item.ProductID,
			SellerID:  item.SellerID,
			Price:     item.Price,
			Freight:   item.Freight,
			Quantity:  1,
		}

		if o, ok := orders[item.OrderID]; ok {
			row.CustomerID = o.CustomerID
			row.OrderStatus = o.Status
			row.PurchaseTS = o.PurchaseTimestamp
			if !o.PurchaseTimestamp.IsZero() {
				row.PurchaseDay = mondayIndexedWeekday(o.PurchaseTimestamp)
				row.PurchaseHour = o.PurchaseTimestamp.Hour()
			}
		}
		if c, ok := customers[row.CustomerID]; ok {
			row.CustomerUniqueID = c.UniqueID
			row.CustomerCity = c.City
			row.CustomerState = c.State
		}
		if p, ok := products[item.ProductID]; ok {
			row.Category = p.Category
		}
		if s, ok := sellers[item.SellerID]; ok {
			row.SellerCity = s.City
			row.SellerState = s.State
		}
		if r, ok := reviews[item.OrderID]; ok {
			row.ReviewScore = r.Score
		}
		if p, ok := payments[item.OrderID]; ok {
			row.PaymentType = p.Type
			row.Installments = p.Installments
			row.PaymentValue = p.Value
		}
		if d, ok := descriptions[item.ProductID]; ok {
			row.Title = d.Title
			row.ShortDescription = d.ShortDescription
			row.Description = d.Description
			row.ImageURL = d.ImageURL
			row.ItemWebURL = d.ItemWebURL
			row.TargetPrice = d.TargetPrice
		}
		if s, ok := summaries[item.ProductID]; ok {
			row.Summary = s.Summary
		}

		row.SentimentScore = b.scorer.Score(row.Summary)
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}

	broadcastAvgSentiment(rows)
	b.assignPersonas(rows)
	rows = dedupe(rows)

	b.log.Info().
		Int("rows", len(rows)).
		Int("products", len(top)).
		Dur("elapsed", time.Since(start)).
		Msg("feature table built")
	return rows, nil
}

// curatedProductSet restricts the build to the catalog subset. The
// product_details table defines which products are in scope; when it carries
// no rows the TopProducts most frequently ordered products stand in.
func (b *Builder) curatedProductSet(ds *models.Dataset) map[string]struct{} {
	if len(ds.Descriptions) > 0 {
		set := make(map[string]struct{}, len(ds.Descriptions))
		for _, d := range ds.Descriptions {
			if d.ProductID != "" {
				set[d.ProductID] = struct{}{}
			}
		}
		return set
	}
	return b.topProductSet(ds.OrderItems)
}

// topProductSet returns the ids of the TopProducts most frequent products.
func (b *Builder) topProductSet(items []models.OrderItem) map[string]struct{} {
	counts := make(map[string]int)
	for _, item := range items {
		counts[item.ProductID]++
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

	n := b.cfg.TopProducts
	if n <= 0 || n > len(ids) {
		n = len(ids)
	}

	top := make(map[string]struct{}, n)
	for _, id := range ids[:n] {
		top[id] = struct{}{}
	}
	return top
}

// mondayIndexedWeekday maps a timestamp to its weekday with Monday=0 and
// Sunday=6, the numbering the feature table persists.
func mondayIndexedWeekday(ts time.Time) int {
	return (int(ts.Weekday()) + 6) % 7
}

// broadcastAvgSentiment sets every row's AvgSentiment to the mean sentiment
// of all rows sharing its product id.
func broadcastAvgSentiment(rows []models.OrdersFullRow) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, row := range rows {
		sums[row.ProductID] += row.SentimentScore
		counts[row.ProductID]++
	}
	for i := range rows {
		rows[i].AvgSentiment = sums[rows[i].ProductID] / float64(counts[rows[i].ProductID])
	}
}

// assignPersonas derives a persona string per customer from their top-5
// purchase categories and writes it onto every row of that customer.
func (b *Builder) assignPersonas(rows []models.OrdersFullRow) {
	type catCount struct {
		category string
		count    int
		firstIdx int
	}

	perCustomer := make(map[string]map[string]*catCount)
	for i, row := range rows {
		if row.CustomerID == "" || row.Category == "" {
			continue
		}
		cats := perCustomer[row.CustomerID]
		if cats == nil {
			cats = make(map[string]*catCount)
			perCustomer[row.CustomerID] = cats
		}
		if cc, ok := cats[row.Category]; ok {
			cc.count++
		} else {
			cats[row.Category] = &catCount{category: row.Category, count: 1, firstIdx: i}
		}
	}

	personas := make(map[string]string, len(perCustomer))
	for customer, cats := range perCustomer {
		ordered := make([]*catCount, 0, len(cats))
		for _, cc := range cats {
			ordered = append(ordered, cc)
		}
		// Top-5 categories by frequency; ties keep first-purchase order.
		sort.Slice(ordered, func(i, j int) bool {
			if ordered[i].count != ordered[j].count {
				return ordered[i].count > ordered[j].count
			}
			return ordered[i].firstIdx < ordered[j].firstIdx
		})
		if len(ordered) > 5 {
			ordered = ordered[:5]
		}

		var labels []string
		seen := make(map[string]struct{})
		for _, cc := range ordered {
			for _, label := range b.cfg.PersonaRules[cc.category] {
				if _, dup := seen[label]; dup {
					continue
				}
				seen[label] = struct{}{}
				labels = append(labels, label)
			}
		}
		if len(labels) == 0 {
			personas[customer] = b.cfg.PersonaFallback
		} else {
			personas[customer] = strings.Join(labels, ", ")
		}
	}

	for i := range rows {
		if p, ok := personas[rows[i].CustomerID]; ok {
			rows[i].Persona = p
		} else {
			rows[i].Persona = b.cfg.PersonaFallback
		}
	}
}

// dedupe removes exact duplicate rows, preserving first occurrence order.
func dedupe(rows []models.OrdersFullRow) []models.OrdersFullRow {
	seen := make(map[models.OrdersFullRow]struct{}, len(rows))
	out := rows[:0]
	for _, row := range rows {
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		out = append(out, row)
	}
	return out
}
