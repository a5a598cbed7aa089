// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package search

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/shoprec/internal/models"
	"github.com/tomtom215/shoprec/internal/recommend"
)

func testProvider() *recommend.MemoryProvider {
	rows := []models.OrdersFullRow{
		{ProductID: "p1", Title: "Wireless Mouse", Category: "electronics", AvgSentiment: 0.8, Price: 50},
		{ProductID: "p1", Title: "Wireless Mouse", Category: "electronics", AvgSentiment: 0.8, Price: 70},
		{ProductID: "p2", Title: "Gaming Keyboard", Category: "electronics", AvgSentiment: 0.4, Price: 120},
		{ProductID: "p3", Title: "Garden Hose", Category: "garden_tools", AvgSentiment: 0.9, Price: 30},
	}
	return recommend.NewMemoryProvider(rows)
}

func TestSearchByTitle(t *testing.T) {
	s := New(testProvider())
	items, err := s.Search(context.Background(), "MOUSE", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 1 || items[0].ProductID != "p1" {
		t.Fatalf("Search() = %v, want single p1", items)
	}
	if items[0].AvgPrice != 60 {
		t.Errorf("AvgPrice = %v, want 60", items[0].AvgPrice)
	}
}

func TestSearchByCategory(t *testing.T) {
	s := New(testProvider())
	items, err := s.Search(context.Background(), "electronics", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Search() returned %d items, want 2", len(items))
	}
	// Sorted by sentiment descending.
	if items[0].ProductID != "p1" || items[1].ProductID != "p2" {
		t.Errorf("Search() order = [%s %s], want [p1 p2]", items[0].ProductID, items[1].ProductID)
	}
}

func TestSearchLimit(t *testing.T) {
	s := New(testProvider())
	items, err := s.Search(context.Background(), "e", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 1 {
		t.Errorf("Search() returned %d items, want 1", len(items))
	}
}

func TestSearchNoMatches(t *testing.T) {
	s := New(testProvider())
	items, err := s.Search(context.Background(), "submarine", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Search() = %v, want empty", items)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	s := New(testProvider())
	if _, err := s.Search(context.Background(), "   ", 10); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Search() error = %v, want ErrEmptyQuery", err)
	}
}
