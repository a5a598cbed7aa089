// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/shoprec/internal/recommend"
)

const selectorSystemPrompt = `You select product categories relevant to local shopping trends.
You are given a city, a trend snapshot, and the list of available categories.
Reply with a JSON array of category names chosen from the available list only.
Pick at most five. Reply with [] if nothing fits. JSON only, no prose.`

// CategorySelector asks the language model which catalog categories match the
// current trend snapshot for a city. It implements
// recommend.CategorySelector.
type CategorySelector struct {
	gen TextGenerator
}

var _ recommend.CategorySelector = (*CategorySelector)(nil)

// NewCategorySelector builds a selector over the given generator.
func NewCategorySelector(gen TextGenerator) *CategorySelector {
	return &CategorySelector{gen: gen}
}

// SelectCategories implements recommend.CategorySelector. Categories not in
// the available list are discarded from the model's answer; the caller treats
// an empty result as "no filter".
func (s *CategorySelector) SelectCategories(ctx context.Context, city, trendSnapshot string, available []string) ([]string, error) {
	if s.gen == nil {
		return nil, ErrDisabled
	}

	var b strings.Builder
	fmt.Fprintf(&b, "City: %s\n\nTrends:\n%s\n\nAvailable categories:\n", city, trendSnapshot)
	for _, cat := range available {
		fmt.Fprintf(&b, "- %s\n", cat)
	}

	var selected []string
	if err := s.gen.GenerateJSON(ctx, selectorSystemPrompt, b.String(), &selected); err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}

	allowed := make(map[string]struct{}, len(available))
	for _, cat := range available {
		allowed[cat] = struct{}{}
	}
	out := make([]string, 0, len(selected))
	seen := make(map[string]struct{}, len(selected))
	for _, cat := range selected {
		cat = strings.TrimSpace(cat)
		if _, ok := allowed[cat]; !ok {
			continue
		}
		if _, dup := seen[cat]; dup {
			continue
		}
		seen[cat] = struct{}{}
		out = append(out, cat)
	}
	return out, nil
}
