// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/shoprec/internal/config"
	"github.com/tomtom215/shoprec/internal/logging"
	"github.com/tomtom215/shoprec/internal/models"
)

// fixedScorer maps exact summary text to a score.
type fixedScorer struct {
	scores map[string]float64
}

func (f *fixedScorer) Score(text string) float64 {
	return f.scores[text]
}

func testBuilder(scorer *fixedScorer) *Builder {
	return NewBuilder(Config{
		TopProducts:     1000,
		PersonaRules:    config.DefaultPersonaRules(),
		PersonaFallback: config.DefaultPersonaFallback,
	}, scorer, logging.Discard())
}

func testDataset() *models.Dataset {
	purchase := time.Date(2018, 3, 7, 14, 30, 0, 0, time.UTC) // a Wednesday
	return &models.Dataset{
		Orders: []models.Order{
			{OrderID: "o1", CustomerID: "c1", Status: "delivered", PurchaseTimestamp: purchase},
			{OrderID: "o2", CustomerID: "c2", Status: "delivered", PurchaseTimestamp: purchase.Add(24 * time.Hour)},
			{OrderID: "o3", CustomerID: "c1", Status: "delivered", PurchaseTimestamp: purchase.Add(48 * time.Hour)},
		},
		OrderItems: []models.OrderItem{
			{OrderID: "o1", ItemSeq: 1, ProductID: "p1", SellerID: "s1", Price: 100, Freight: 10},
			{OrderID: "o1", ItemSeq: 2, ProductID: "p2", SellerID: "s1", Price: 50, Freight: 5},
			{OrderID: "o2", ItemSeq: 1, ProductID: "p1", SellerID: "s1", Price: 100, Freight: 12},
			{OrderID: "o3", ItemSeq: 1, ProductID: "p3", SellerID: "s2", Price: 30, Freight: 3},
		},
		Customers: []models.Customer{
			{CustomerID: "c1", UniqueID: "u1", City: "sao paulo", State: "SP"},
			{CustomerID: "c2", UniqueID: "u2", City: "rio de janeiro", State: "RJ"},
		},
		Products: []models.Product{
			{ProductID: "p1", Category: "electronics"},
			{ProductID: "p2", Category: "toys"},
			{ProductID: "p3", Category: "obscure_category"},
		},
		Sellers: []models.Seller{
			{SellerID: "s1", City: "campinas", State: "SP"},
			{SellerID: "s2", City: "curitiba", State: "PR"},
		},
		Reviews: []models.Review{
			{ReviewID: "r1", OrderID: "o1", Score: 5},
			{ReviewID: "r2", OrderID: "o2", Score: 2},
		},
		Payments: []models.Payment{
			{OrderID: "o1", Type: "credit_card", Installments: 3, Value: 165},
			{OrderID: "o2", Type: "boleto", Installments: 1, Value: 112},
		},
		Descriptions: []models.ProductDescription{
			{ProductID: "p1", Title: "Wireless Headphones", ShortDescription: "Over-ear", ImageURL: "http://img/p1", ItemWebURL: "http://shop/p1", TargetPrice: 95},
			{ProductID: "p2", Title: "Building Blocks", ShortDescription: "", ImageURL: "http://img/p2", ItemWebURL: "http://shop/p2", TargetPrice: 45},
			{ProductID: "p3", Title: "Garden Shears", ShortDescription: "Steel", ImageURL: "http://img/p3", ItemWebURL: "http://shop/p3", TargetPrice: 25},
		},
		Summaries: []models.ReviewSummary{
			{ProductID: "p1", Summary: "great sound quality"},
			{ProductID: "p2", Summary: "kids love it"},
		},
	}
}

func TestBuildJoinsAllTables(t *testing.T) {
	scorer := &fixedScorer{scores: map[string]float64{"great sound quality": 0.8, "kids love it": 0.6}}
	rows, err := testBuilder(scorer).Build(context.Background(), testDataset())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}

	var first models.OrdersFullRow
	for _, row := range rows {
		if row.OrderID == "o1" && row.ProductID == "p1" {
			first = row
		}
	}
	if first.OrderID == "" {
		t.Fatal("row for o1/p1 not found")
	}

	if first.CustomerUniqueID != "u1" || first.CustomerCity != "sao paulo" {
		t.Errorf("customer join wrong: %+v", first)
	}
	if first.Category != "electronics" {
		t.Errorf("Category = %q, want electronics", first.Category)
	}
	if first.SellerCity != "campinas" {
		t.Errorf("SellerCity = %q, want campinas", first.SellerCity)
	}
	if first.ReviewScore != 5 {
		t.Errorf("ReviewScore = %d, want 5", first.ReviewScore)
	}
	if first.PaymentType != "credit_card" || first.Installments != 3 {
		t.Errorf("payment join wrong: %+v", first)
	}
	if first.Title != "Wireless Headphones" || first.TargetPrice != 95 {
		t.Errorf("enrichment join wrong: %+v", first)
	}
	if first.Summary != "great sound quality" {
		t.Errorf("Summary = %q", first.Summary)
	}
	if first.Quantity != 1 {
		t.Errorf("Quantity = %d, want 1", first.Quantity)
	}
}

func TestBuildTimeFeatures(t *testing.T) {
	scorer := &fixedScorer{scores: map[string]float64{}}
	rows, err := testBuilder(scorer).Build(context.Background(), testDataset())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	for _, row := range rows {
		if row.OrderID != "o1" {
			continue
		}
		// 2018-03-07 is a Wednesday: 2 in Monday-indexed numbering.
		if row.PurchaseDay != 2 {
			t.Errorf("PurchaseDay = %d, want 2", row.PurchaseDay)
		}
		if row.PurchaseHour != 14 {
			t.Errorf("PurchaseHour = %d, want 14", row.PurchaseHour)
		}
	}
}

func TestBuildMissingJoinsYieldZeroValues(t *testing.T) {
	ds := testDataset()
	// o3/p3 has no review, payment, or summary.
	scorer := &fixedScorer{scores: map[string]float64{}}
	rows, err := testBuilder(scorer).Build(context.Background(), ds)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	found := false
	for _, row := range rows {
		if row.ProductID != "p3" {
			continue
		}
		found = true
		if row.ReviewScore != 0 || row.PaymentType != "" || row.Summary != "" {
			t.Errorf("expected zero-value joins for p3, got %+v", row)
		}
		if row.SentimentScore != 0 {
			t.Errorf("sentiment of empty summary = %g, want 0", row.SentimentScore)
		}
	}
	if !found {
		t.Fatal("row for p3 missing: left join must not drop rows")
	}
}

func TestBuildRestrictsToCatalogProducts(t *testing.T) {
	ds := testDataset()
	// Drop p3 from the catalog: its order item must not produce a row even
	// though it was ordered.
	ds.Descriptions = ds.Descriptions[:2]
	scorer := &fixedScorer{scores: map[string]float64{}}

	rows, err := testBuilder(scorer).Build(context.Background(), ds)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.ProductID == "p3" {
			t.Errorf("p3 outside the catalog produced row %+v", row)
		}
	}
}

func TestBuildMissingShortDescriptionFilled(t *testing.T) {
	scorer := &fixedScorer{scores: map[string]float64{}}
	rows, err := testBuilder(scorer).Build(context.Background(), testDataset())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	for _, row := range rows {
		if row.ProductID == "p2" && row.ShortDescription != "No Description Provided" {
			t.Errorf("ShortDescription = %q, want fill value", row.ShortDescription)
		}
	}
}

func TestBuildAvgSentimentBroadcast(t *testing.T) {
	scorer := &fixedScorer{scores: map[string]float64{"great sound quality": 0.8}}
	rows, err := testBuilder(scorer).Build(context.Background(), testDataset())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	// p1 appears in two rows, both with the same summary text: avg equals
	// the row score and must be identical across all p1 rows.
	var p1Avgs []float64
	for _, row := range rows {
		if row.ProductID == "p1" {
			p1Avgs = append(p1Avgs, row.AvgSentiment)
		}
	}
	if len(p1Avgs) != 2 {
		t.Fatalf("expected 2 rows for p1, got %d", len(p1Avgs))
	}
	if p1Avgs[0] != p1Avgs[1] {
		t.Errorf("avg sentiment differs across rows of one product: %v", p1Avgs)
	}
	if p1Avgs[0] != 0.8 {
		t.Errorf("avg sentiment = %g, want 0.8", p1Avgs[0])
	}
}

func TestBuildPersonas(t *testing.T) {
	scorer := &fixedScorer{scores: map[string]float64{}}
	rows, err := testBuilder(scorer).Build(context.Background(), testDataset())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	for _, row := range rows {
		if row.Persona == "" {
			t.Fatalf("row %s/%s has empty persona", row.OrderID, row.ProductID)
		}
		switch row.CustomerID {
		case "c1":
			// c1 bought electronics, toys, and an unmapped category.
			for _, want := range []string{"Tech Enthusiast", "Gadget Lover", "Parent", "Child-oriented"} {
				if !containsLabel(row.Persona, want) {
					t.Errorf("c1 persona %q missing %q", row.Persona, want)
				}
			}
		case "c2":
			if !containsLabel(row.Persona, "Tech Enthusiast") {
				t.Errorf("c2 persona %q missing Tech Enthusiast", row.Persona)
			}
		}
	}
}

func TestBuildPersonaFallback(t *testing.T) {
	ds := testDataset()
	// Strip categories so no rule matches.
	for i := range ds.Products {
		ds.Products[i].Category = "unmapped"
	}
	scorer := &fixedScorer{scores: map[string]float64{}}
	rows, err := testBuilder(scorer).Build(context.Background(), ds)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	for _, row := range rows {
		if row.Persona != config.DefaultPersonaFallback {
			t.Errorf("persona = %q, want %q", row.Persona, config.DefaultPersonaFallback)
		}
	}
}

func TestBuildTopProductsFallbackFilter(t *testing.T) {
	scorer := &fixedScorer{scores: map[string]float64{}}
	b := NewBuilder(Config{
		TopProducts:     1, // only p1 (2 orders) survives
		PersonaRules:    config.DefaultPersonaRules(),
		PersonaFallback: config.DefaultPersonaFallback,
	}, scorer, logging.Discard())

	// Without a curated catalog the frequency ranking takes over.
	ds := testDataset()
	ds.Descriptions = nil

	rows, err := b.Build(context.Background(), ds)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	for _, row := range rows {
		if row.ProductID != "p1" {
			t.Errorf("unexpected product %q after top-1 filter", row.ProductID)
		}
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
}

func TestBuildDeduplicates(t *testing.T) {
	ds := testDataset()
	ds.OrderItems = append(ds.OrderItems, ds.OrderItems[0]) // exact duplicate item
	scorer := &fixedScorer{scores: map[string]float64{}}

	rows, err := testBuilder(scorer).Build(context.Background(), ds)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(rows) != 4 {
		t.Errorf("expected duplicate row collapsed, got %d rows", len(rows))
	}
}

func TestBuildEmptyDataset(t *testing.T) {
	scorer := &fixedScorer{scores: map[string]float64{}}
	_, err := testBuilder(scorer).Build(context.Background(), &models.Dataset{})
	if !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("expected ErrEmptyDataset, got %v", err)
	}
}

func containsLabel(persona, label string) bool {
	for _, part := range strings.Split(persona, ", ") {
		if part == label {
			return true
		}
	}
	return false
}
