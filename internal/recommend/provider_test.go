// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"context"
	"testing"

	"github.com/tomtom215/shoprec/internal/models"
)

func TestMemoryProviderRowsByUser(t *testing.T) {
	p := fixtureProvider()

	rows, err := p.RowsByUser(context.Background(), "u2")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("rows for u2 = %d, want 3", len(rows))
	}

	rows, err = p.RowsByUser(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("rows for unknown user = %d, want 0", len(rows))
	}
}

func TestMemoryProviderRowsByCityCaseInsensitive(t *testing.T) {
	p := fixtureProvider()

	lower, err := p.RowsByCity(context.Background(), "sao paulo")
	if err != nil {
		t.Fatal(err)
	}
	upper, err := p.RowsByCity(context.Background(), "SAO PAULO")
	if err != nil {
		t.Fatal(err)
	}
	if len(lower) == 0 || len(lower) != len(upper) {
		t.Errorf("case-insensitive lookup mismatch: %d vs %d", len(lower), len(upper))
	}
}

func TestMemoryProviderPersonasFirstRowWins(t *testing.T) {
	rows := fixtureRows()
	// Vary a later row's persona; the first row's value must win.
	rows = append(rows, models.OrdersFullRow{
		OrderID: "o9", ProductID: "p9", CustomerUniqueID: "u1",
		Persona: "Someone Else",
	})
	p := NewMemoryProvider(rows)

	personas, err := p.Personas(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if personas["u1"] != "Tech Enthusiast, Gadget Lover" {
		t.Errorf("persona[u1] = %q, want first-row persona", personas["u1"])
	}
}

func TestMemoryProviderSampleRows(t *testing.T) {
	p := fixtureProvider()

	sample, err := p.SampleRows(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(sample) != 3 {
		t.Errorf("sample = %d, want 3", len(sample))
	}
	if sample[0].OrderID != "o1" {
		t.Errorf("sample must preserve insertion order, got %v", sample[0].OrderID)
	}

	all, err := p.SampleRows(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != p.Len() {
		t.Errorf("limit 0 = %d rows, want all %d", len(all), p.Len())
	}
}

func TestMemoryProviderCategoriesSorted(t *testing.T) {
	p := fixtureProvider()

	cats, err := p.Categories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"electronics", "garden_tools", "toys"}
	if len(cats) != len(want) {
		t.Fatalf("categories = %v, want %v", cats, want)
	}
	for i := range want {
		if cats[i] != want[i] {
			t.Errorf("categories[%d] = %q, want %q", i, cats[i], want[i])
		}
	}
}

func TestMemoryProviderReplace(t *testing.T) {
	p := fixtureProvider()
	p.Replace([]models.OrdersFullRow{
		{OrderID: "n1", ProductID: "x1", CustomerUniqueID: "u9", CustomerCity: "recife"},
	})

	rows, err := p.RowsByUser(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("old rows should be gone, got %d", len(rows))
	}
	rows, err = p.RowsByUser(context.Background(), "u9")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("new rows missing, got %d", len(rows))
	}
}
