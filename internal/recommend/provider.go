// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tomtom215/shoprec/internal/models"
)

// DataProvider reads the orders_full feature table for the agents. The
// warehouse package provides the DuckDB-backed implementation;
// MemoryProvider serves tests and freshly built in-process tables.
type DataProvider interface {
	// RowsByUser returns all rows of one customer (customer_unique_id),
	// in insertion order.
	RowsByUser(ctx context.Context, userID string) ([]models.OrdersFullRow, error)

	// RowsByCategories returns all rows whose category is in the set.
	RowsByCategories(ctx context.Context, categories []string) ([]models.OrdersFullRow, error)

	// RowsByUsers returns all rows of the given customers.
	RowsByUsers(ctx context.Context, userIDs []string) ([]models.OrdersFullRow, error)

	// RowsByCity returns all rows delivered to the given city
	// (case-insensitive match).
	RowsByCity(ctx context.Context, city string) ([]models.OrdersFullRow, error)

	// Personas returns each customer's persona string, first row wins.
	Personas(ctx context.Context) (map[string]string, error)

	// SampleRows returns up to limit rows in insertion order, for rule
	// mining.
	SampleRows(ctx context.Context, limit int) ([]models.OrdersFullRow, error)

	// Categories returns the distinct categories present, sorted.
	Categories(ctx context.Context) ([]string, error)
}

// MemoryProvider is an in-memory DataProvider over a row slice.
type MemoryProvider struct {
	mu   sync.RWMutex
	rows []models.OrdersFullRow

	byUser map[string][]int
	byCity map[string][]int
	byCat  map[string][]int
}

var _ DataProvider = (*MemoryProvider)(nil)

// NewMemoryProvider indexes the given rows.
func NewMemoryProvider(rows []models.OrdersFullRow) *MemoryProvider {
	p := &MemoryProvider{}
	p.Replace(rows)
	return p
}

// Replace swaps the backing rows, e.g. after a pipeline rebuild.
func (p *MemoryProvider) Replace(rows []models.OrdersFullRow) {
	byUser := make(map[string][]int)
	byCity := make(map[string][]int)
	byCat := make(map[string][]int)
	for i, row := range rows {
		if row.CustomerUniqueID != "" {
			byUser[row.CustomerUniqueID] = append(byUser[row.CustomerUniqueID], i)
		}
		if row.CustomerCity != "" {
			city := strings.ToLower(row.CustomerCity)
			byCity[city] = append(byCity[city], i)
		}
		if row.Category != "" {
			byCat[row.Category] = append(byCat[row.Category], i)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows = rows
	p.byUser = byUser
	p.byCity = byCity
	p.byCat = byCat
}

// Len returns the number of rows held.
func (p *MemoryProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.rows)
}

func (p *MemoryProvider) collect(indices []int) []models.OrdersFullRow {
	out := make([]models.OrdersFullRow, len(indices))
	for i, idx := range indices {
		out[i] = p.rows[idx]
	}
	return out
}

// RowsByUser implements DataProvider.
func (p *MemoryProvider) RowsByUser(_ context.Context, userID string) ([]models.OrdersFullRow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.collect(p.byUser[userID]), nil
}

// RowsByCategories implements DataProvider.
func (p *MemoryProvider) RowsByCategories(_ context.Context, categories []string) ([]models.OrdersFullRow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var indices []int
	for _, cat := range categories {
		indices = append(indices, p.byCat[cat]...)
	}
	sort.Ints(indices)
	return p.collect(indices), nil
}

// RowsByUsers implements DataProvider.
func (p *MemoryProvider) RowsByUsers(_ context.Context, userIDs []string) ([]models.OrdersFullRow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var indices []int
	for _, uid := range userIDs {
		indices = append(indices, p.byUser[uid]...)
	}
	sort.Ints(indices)
	return p.collect(indices), nil
}

// RowsByCity implements DataProvider.
func (p *MemoryProvider) RowsByCity(_ context.Context, city string) ([]models.OrdersFullRow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.collect(p.byCity[strings.ToLower(city)]), nil
}

// Personas implements DataProvider.
func (p *MemoryProvider) Personas(_ context.Context) (map[string]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	personas := make(map[string]string, len(p.byUser))
	for uid, indices := range p.byUser {
		if len(indices) > 0 {
			personas[uid] = p.rows[indices[0]].Persona
		}
	}
	return personas, nil
}

// SampleRows implements DataProvider.
func (p *MemoryProvider) SampleRows(_ context.Context, limit int) ([]models.OrdersFullRow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := len(p.rows)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.OrdersFullRow, n)
	copy(out, p.rows[:n])
	return out, nil
}

// Categories implements DataProvider.
func (p *MemoryProvider) Categories(_ context.Context) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	cats := make([]string, 0, len(p.byCat))
	for cat := range p.byCat {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats, nil
}
