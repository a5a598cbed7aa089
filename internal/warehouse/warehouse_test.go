// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/tomtom215/shoprec/internal/config"
	"github.com/tomtom215/shoprec/internal/metrics"
	"github.com/tomtom215/shoprec/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(&config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func testRows() []models.OrdersFullRow {
	ts := time.Date(2017, 8, 14, 10, 30, 0, 0, time.UTC)
	return []models.OrdersFullRow{
		{
			OrderID: "o1", ItemSeq: 1, ProductID: "p1", SellerID: "s1",
			Price: 50, CustomerID: "c1", CustomerUniqueID: "u1",
			OrderStatus: "delivered", PurchaseTS: ts, PurchaseDay: 0,
			PurchaseHour: 10, CustomerCity: "Sao Paulo", CustomerState: "SP",
			Category: "electronics", ReviewScore: 5, SentimentScore: 0.8,
			AvgSentiment: 0.8, Persona: "Tech Enthusiast", Quantity: 1,
		},
		{
			OrderID: "o2", ItemSeq: 1, ProductID: "p2", SellerID: "s1",
			Price: 30, CustomerID: "c2", CustomerUniqueID: "u2",
			OrderStatus: "delivered", PurchaseTS: ts, PurchaseDay: 0,
			PurchaseHour: 11, CustomerCity: "rio de janeiro", CustomerState: "RJ",
			Category: "garden_tools", ReviewScore: 4, SentimentScore: 0.4,
			AvgSentiment: 0.4, Persona: "Gardener", Quantity: 1,
		},
		{
			OrderID: "o3", ItemSeq: 1, ProductID: "p1", SellerID: "s2",
			Price: 55, CustomerID: "c3", CustomerUniqueID: "u1",
			OrderStatus: "delivered", PurchaseTS: ts, PurchaseDay: 1,
			PurchaseHour: 9, CustomerCity: "Sao Paulo", CustomerState: "SP",
			Category: "electronics", ReviewScore: 5, SentimentScore: 0.9,
			AvgSentiment: 0.8, Persona: "Tech Enthusiast", Quantity: 1,
		},
	}
}

func TestReplaceRowsAndCount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.ReplaceRows(ctx, testRows()); err != nil {
		t.Fatalf("ReplaceRows() error = %v", err)
	}
	count, err := s.CountRows(ctx)
	if err != nil {
		t.Fatalf("CountRows() error = %v", err)
	}
	if count != 3 {
		t.Errorf("CountRows() = %d, want 3", count)
	}

	// A second replace swaps, not appends.
	if err := s.ReplaceRows(ctx, testRows()[:1]); err != nil {
		t.Fatalf("ReplaceRows() error = %v", err)
	}
	count, err = s.CountRows(ctx)
	if err != nil {
		t.Fatalf("CountRows() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountRows() after replace = %d, want 1", count)
	}
}

func TestRowsByUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.ReplaceRows(ctx, testRows()); err != nil {
		t.Fatalf("ReplaceRows() error = %v", err)
	}

	rows, err := s.RowsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("RowsByUser() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("RowsByUser() returned %d rows, want 2", len(rows))
	}
	// Insertion order preserved.
	if rows[0].OrderID != "o1" || rows[1].OrderID != "o3" {
		t.Errorf("RowsByUser() order = [%s %s], want [o1 o3]", rows[0].OrderID, rows[1].OrderID)
	}
	if !rows[0].PurchaseTS.Equal(time.Date(2017, 8, 14, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("PurchaseTS = %v, want round-tripped timestamp", rows[0].PurchaseTS)
	}

	rows, err = s.RowsByUser(ctx, "nobody")
	if err != nil {
		t.Fatalf("RowsByUser() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("RowsByUser(nobody) = %d rows, want 0", len(rows))
	}
}

func TestRowsByCategoriesAndUsers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.ReplaceRows(ctx, testRows()); err != nil {
		t.Fatalf("ReplaceRows() error = %v", err)
	}

	rows, err := s.RowsByCategories(ctx, []string{"electronics"})
	if err != nil {
		t.Fatalf("RowsByCategories() error = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("RowsByCategories() = %d rows, want 2", len(rows))
	}

	rows, err = s.RowsByCategories(ctx, nil)
	if err != nil {
		t.Fatalf("RowsByCategories(nil) error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("RowsByCategories(nil) = %d rows, want 0", len(rows))
	}

	rows, err = s.RowsByUsers(ctx, []string{"u1", "u2"})
	if err != nil {
		t.Fatalf("RowsByUsers() error = %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("RowsByUsers() = %d rows, want 3", len(rows))
	}
}

func TestRowsByCityCaseInsensitive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.ReplaceRows(ctx, testRows()); err != nil {
		t.Fatalf("ReplaceRows() error = %v", err)
	}

	rows, err := s.RowsByCity(ctx, "SAO PAULO")
	if err != nil {
		t.Fatalf("RowsByCity() error = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("RowsByCity() = %d rows, want 2", len(rows))
	}
}

func TestPersonasFirstRowWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rows := testRows()
	rows[2].Persona = "Changed Later"
	if err := s.ReplaceRows(ctx, rows); err != nil {
		t.Fatalf("ReplaceRows() error = %v", err)
	}

	personas, err := s.Personas(ctx)
	if err != nil {
		t.Fatalf("Personas() error = %v", err)
	}
	if personas["u1"] != "Tech Enthusiast" {
		t.Errorf("Personas()[u1] = %q, want first row's persona", personas["u1"])
	}
	if personas["u2"] != "Gardener" {
		t.Errorf("Personas()[u2] = %q, want Gardener", personas["u2"])
	}
}

func TestSampleRowsAndCategories(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.ReplaceRows(ctx, testRows()); err != nil {
		t.Fatalf("ReplaceRows() error = %v", err)
	}

	rows, err := s.SampleRows(ctx, 2)
	if err != nil {
		t.Fatalf("SampleRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("SampleRows(2) = %d rows, want 2", len(rows))
	}
	if rows[0].OrderID != "o1" || rows[1].OrderID != "o2" {
		t.Errorf("SampleRows() order = [%s %s], want [o1 o2]", rows[0].OrderID, rows[1].OrderID)
	}

	rows, err = s.SampleRows(ctx, 0)
	if err != nil {
		t.Fatalf("SampleRows(0) error = %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("SampleRows(0) = %d rows, want all 3", len(rows))
	}

	cats, err := s.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	if len(cats) != 2 || cats[0] != "electronics" || cats[1] != "garden_tools" {
		t.Errorf("Categories() = %v, want sorted [electronics garden_tools]", cats)
	}
}

func TestPing(t *testing.T) {
	s := openTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestQueriesInstrumented(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.ReplaceRows(ctx, testRows()); err != nil {
		t.Fatalf("ReplaceRows() error = %v", err)
	}
	if _, err := s.RowsByUser(ctx, "u1"); err != nil {
		t.Fatalf("RowsByUser() error = %v", err)
	}

	// Each operation label must have produced a duration sample.
	for _, op := range []string{"replace_rows", "rows_by_user"} {
		h, err := metrics.DBQueryDuration.GetMetricWithLabelValues(op)
		if err != nil {
			t.Fatalf("GetMetricWithLabelValues(%s): %v", op, err)
		}
		var m dto.Metric
		if err := h.(prometheus.Histogram).Write(&m); err != nil {
			t.Fatalf("write %s histogram: %v", op, err)
		}
		if m.GetHistogram().GetSampleCount() == 0 {
			t.Errorf("no duration samples recorded for %s", op)
		}
	}
}
