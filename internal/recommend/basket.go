// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shoprec/internal/mining"
	"github.com/tomtom215/shoprec/internal/models"
)

// BasketConfig tunes rule mining for the basket agent.
type BasketConfig struct {
	// SampleSize caps the feature-table rows mined per rebuild.
	SampleSize int
	// MinItemFrequency drops products seen fewer times in the sample.
	MinItemFrequency int
	// MinSupport is the Apriori support floor.
	MinSupport float64
	// MinConfidence is the rule-derivation confidence floor.
	MinConfidence float64
	// KeepConfidence is the post-derivation retention floor.
	KeepConfidence float64
	// MaxItemsetSize bounds Apriori candidate growth.
	MaxItemsetSize int
}

// RuleSet is one immutable generation of mined rules. Requests read whichever
// generation is current; Train swaps in a new one on completion.
type RuleSet struct {
	Rules     []mining.AssociationRule
	Version   int
	TrainedAt time.Time
	// SampledRows and Baskets describe the mining input, for status
	// reporting.
	SampledRows int
	Baskets     int
}

// BasketAgent recommends consequents of association rules whose antecedents
// overlap the customer's purchase history.
type BasketAgent struct {
	provider DataProvider
	cfg      BasketConfig
	log      zerolog.Logger

	mu      sync.RWMutex
	current *RuleSet

	// trainMu serializes rebuilds without blocking reads.
	trainMu sync.Mutex
}

var _ Agent = (*BasketAgent)(nil)

// NewBasketAgent creates the market-basket agent. Call Train before the
// first Recommend; until then Recommend returns ErrNotTrained.
func NewBasketAgent(provider DataProvider, cfg BasketConfig, log zerolog.Logger) *BasketAgent {
	return &BasketAgent{
		provider: provider,
		cfg:      cfg,
		log:      log.With().Str("agent", AgentBasket).Logger(),
	}
}

// Name implements Agent.
func (a *BasketAgent) Name() string { return AgentBasket }

// RuleSet returns the current rule generation, nil before the first Train.
func (a *BasketAgent) RuleSet() *RuleSet {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

// Train mines a fresh rule set from the sample and swaps it in atomically.
// Concurrent Train calls coalesce: the second caller returns immediately
// with no error while the first rebuild runs.
func (a *BasketAgent) Train(ctx context.Context) error {
	if !a.trainMu.TryLock() {
		a.log.Debug().Msg("rule rebuild already in progress")
		return nil
	}
	defer a.trainMu.Unlock()

	start := time.Now()
	rows, err := a.provider.SampleRows(ctx, a.cfg.SampleSize)
	if err != nil {
		return fmt.Errorf("basket agent: sample rows: %w", err)
	}

	baskets := buildBaskets(rows, a.cfg.MinItemFrequency)
	itemsets := mining.Apriori(baskets, a.cfg.MinSupport, a.cfg.MaxItemsetSize)
	rules := mining.Rules(itemsets, a.cfg.MinConfidence)

	kept := rules[:0]
	for _, r := range rules {
		if r.Confidence >= a.cfg.KeepConfidence {
			kept = append(kept, r)
		}
	}

	a.mu.Lock()
	version := 1
	if a.current != nil {
		version = a.current.Version + 1
	}
	a.current = &RuleSet{
		Rules:       kept,
		Version:     version,
		TrainedAt:   time.Now().UTC(),
		SampledRows: len(rows),
		Baskets:     len(baskets),
	}
	a.mu.Unlock()

	a.log.Info().
		Int("version", version).
		Int("rows", len(rows)).
		Int("baskets", len(baskets)).
		Int("itemsets", len(itemsets)).
		Int("rules", len(kept)).
		Dur("elapsed", time.Since(start)).
		Msg("basket rules rebuilt")
	return nil
}

// Recommend implements Agent. For each product in the customer's history it
// collects the consequents of rules whose antecedents contain that product,
// then drops anything already purchased.
func (a *BasketAgent) Recommend(ctx context.Context, req Request) (*Response, error) {
	rules := a.RuleSet()
	if rules == nil {
		return nil, ErrNotTrained
	}

	history, err := a.provider.RowsByUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("basket agent: %w", err)
	}
	if len(history) == 0 {
		return nil, ErrNoHistory
	}

	owned := make(map[string]struct{}, len(history))
	for _, row := range history {
		owned[row.ProductID] = struct{}{}
	}

	recommended := make(map[string]struct{})
	for _, rule := range rules.Rules {
		if !antecedentMatches(rule.Antecedent, owned) {
			continue
		}
		for _, product := range rule.Consequent {
			if _, own := owned[product]; own {
				continue
			}
			recommended[product] = struct{}{}
		}
	}

	ids := make([]string, 0, len(recommended))
	for id := range recommended {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if req.Limit > 0 && req.Limit < len(ids) {
		ids = ids[:req.Limit]
	}

	items, err := a.hydrateProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	a.log.Debug().
		Str("user", req.UserID).
		Int("history", len(owned)).
		Int("items", len(items)).
		Int("rule_version", rules.Version).
		Msg("basket recommendations generated")

	return &Response{
		Agent:       AgentBasket,
		Items:       items,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// hydrateProducts resolves product ids to items via the feature table.
func (a *BasketAgent) hydrateProducts(ctx context.Context, ids []string) ([]Item, error) {
	items := make([]Item, 0, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	// One scan over the sample serves all ids; the sample contains every
	// product the rules can name.
	rows, err := a.provider.SampleRows(ctx, a.cfg.SampleSize)
	if err != nil {
		return nil, fmt.Errorf("basket agent: hydrate: %w", err)
	}
	firstRow := make(map[string]models.OrdersFullRow, len(ids))
	for _, row := range rows {
		if _, seen := firstRow[row.ProductID]; !seen {
			firstRow[row.ProductID] = row
		}
	}
	for _, id := range ids {
		if row, ok := firstRow[id]; ok {
			items = append(items, hydrate(row))
		} else {
			items = append(items, Item{ProductID: id})
		}
	}
	return items, nil
}

// antecedentMatches reports whether any antecedent item is owned.
func antecedentMatches(antecedent []string, owned map[string]struct{}) bool {
	for _, item := range antecedent {
		if _, ok := owned[item]; ok {
			return true
		}
	}
	return false
}

// buildBaskets groups sampled rows into per-order product baskets, dropping
// products below the frequency floor.
func buildBaskets(rows []models.OrdersFullRow, minItemFrequency int) [][]string {
	freq := make(map[string]int)
	for _, row := range rows {
		freq[row.ProductID]++
	}

	byOrder := make(map[string][]string)
	orderSeq := make([]string, 0)
	for _, row := range rows {
		if minItemFrequency > 0 && freq[row.ProductID] < minItemFrequency {
			continue
		}
		if _, seen := byOrder[row.OrderID]; !seen {
			orderSeq = append(orderSeq, row.OrderID)
		}
		byOrder[row.OrderID] = append(byOrder[row.OrderID], row.ProductID)
	}

	baskets := make([][]string, 0, len(byOrder))
	for _, orderID := range orderSeq {
		baskets = append(baskets, byOrder[orderID])
	}
	return baskets
}
