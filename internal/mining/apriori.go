// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Package mining implements Apriori frequent-itemset mining and
// association-rule derivation over order baskets.
//
// Output ordering is deterministic: itemsets sort by size then lexicographic
// key, rules by descending confidence with a lexicographic tiebreak. The
// basket agent depends on this for stable recommendations across rebuilds.
package mining

import (
	"sort"
	"strings"
)

// keySep joins item ids into canonical itemset keys. Unit separator cannot
// collide with product ids.
const keySep = "\x1f"

// Itemset is a frequent set of items with its support.
type Itemset struct {
	// Items are sorted ascending.
	Items   []string
	Support float64
}

// AssociationRule is a mined implication antecedent => consequent.
type AssociationRule struct {
	// Antecedent and Consequent are sorted ascending and disjoint.
	Antecedent []string
	Consequent []string
	Support    float64
	Confidence float64
	Lift       float64
}

// Apriori mines frequent itemsets from baskets using level-wise candidate
// generation. Baskets may contain duplicates; each basket counts an item at
// most once. maxSize bounds itemset cardinality (minimum 2 for rule mining).
func Apriori(baskets [][]string, minSupport float64, maxSize int) []Itemset {
	if len(baskets) == 0 || minSupport <= 0 {
		return nil
	}
	if maxSize < 1 {
		maxSize = 1
	}

	// Normalize baskets to sorted unique item slices.
	normalized := make([][]string, 0, len(baskets))
	for _, basket := range baskets {
		seen := make(map[string]struct{}, len(basket))
		uniq := make([]string, 0, len(basket))
		for _, item := range basket {
			if item == "" {
				continue
			}
			if _, dup := seen[item]; dup {
				continue
			}
			seen[item] = struct{}{}
			uniq = append(uniq, item)
		}
		if len(uniq) > 0 {
			sort.Strings(uniq)
			normalized = append(normalized, uniq)
		}
	}
	if len(normalized) == 0 {
		return nil
	}
	total := float64(len(normalized))

	// Level 1.
	counts := make(map[string]int)
	for _, basket := range normalized {
		for _, item := range basket {
			counts[item]++
		}
	}
	frequent := make(map[string]float64) // key -> support, across all levels
	var level [][]string
	for item, n := range counts {
		support := float64(n) / total
		if support >= minSupport {
			frequent[item] = support
			level = append(level, []string{item})
		}
	}
	sortLevel(level)

	// Levels 2..maxSize.
	for k := 2; k <= maxSize && len(level) > 1; k++ {
		candidates := generateCandidates(level, frequent)
		if len(candidates) == 0 {
			break
		}

		candidateCounts := make(map[string]int, len(candidates))
		for _, basket := range normalized {
			if len(basket) < k {
				continue
			}
			members := make(map[string]struct{}, len(basket))
			for _, item := range basket {
				members[item] = struct{}{}
			}
			for key, items := range candidates {
				if containsAll(members, items) {
					candidateCounts[key]++
				}
			}
		}

		var next [][]string
		for key, n := range candidateCounts {
			support := float64(n) / total
			if support >= minSupport {
				frequent[key] = support
				next = append(next, candidates[key])
			}
		}
		sortLevel(next)
		level = next
	}

	// Collect deterministically.
	out := make([]Itemset, 0, len(frequent))
	for key, support := range frequent {
		out = append(out, Itemset{Items: strings.Split(key, keySep), Support: support})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Items) != len(out[j].Items) {
			return len(out[i].Items) < len(out[j].Items)
		}
		return Key(out[i].Items) < Key(out[j].Items)
	})
	return out
}

// Rules derives association rules from frequent itemsets. Every non-empty
// proper subset of each itemset of size >= 2 becomes an antecedent; rules
// below minConfidence are dropped.
func Rules(itemsets []Itemset, minConfidence float64) []AssociationRule {
	support := make(map[string]float64, len(itemsets))
	for _, is := range itemsets {
		support[Key(is.Items)] = is.Support
	}

	var rules []AssociationRule
	for _, is := range itemsets {
		if len(is.Items) < 2 {
			continue
		}
		for _, antecedent := range properSubsets(is.Items) {
			antSupport, ok := support[Key(antecedent)]
			if !ok || antSupport == 0 {
				continue
			}
			confidence := is.Support / antSupport
			if confidence < minConfidence {
				continue
			}
			consequent := difference(is.Items, antecedent)
			rule := AssociationRule{
				Antecedent: antecedent,
				Consequent: consequent,
				Support:    is.Support,
				Confidence: confidence,
			}
			if conSupport, ok := support[Key(consequent)]; ok && conSupport > 0 {
				rule.Lift = confidence / conSupport
			}
			rules = append(rules, rule)
		}
	}

	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Confidence != rules[j].Confidence {
			return rules[i].Confidence > rules[j].Confidence
		}
		ki := Key(rules[i].Antecedent) + "=>" + Key(rules[i].Consequent)
		kj := Key(rules[j].Antecedent) + "=>" + Key(rules[j].Consequent)
		return ki < kj
	})
	return rules
}

// Key returns the canonical key of a sorted item slice.
func Key(items []string) string {
	return strings.Join(items, keySep)
}

func sortLevel(level [][]string) {
	sort.Slice(level, func(i, j int) bool {
		return Key(level[i]) < Key(level[j])
	})
}

// generateCandidates joins k-1 itemsets sharing a prefix, pruning candidates
// with an infrequent subset.
func generateCandidates(level [][]string, frequent map[string]float64) map[string][]string {
	candidates := make(map[string][]string)
	for i := 0; i < len(level); i++ {
		for j := i + 1; j < len(level); j++ {
			a, b := level[i], level[j]
			if !samePrefix(a, b) {
				// Level is sorted, so no later j shares a's prefix.
				break
			}
			candidate := make([]string, len(a)+1)
			copy(candidate, a)
			candidate[len(a)] = b[len(b)-1]
			sort.Strings(candidate)

			if hasInfrequentSubset(candidate, frequent) {
				continue
			}
			candidates[Key(candidate)] = candidate
		}
	}
	return candidates
}

// samePrefix reports whether two equal-length sorted itemsets share all but
// the last item.
func samePrefix(a, b []string) bool {
	for i := 0; i < len(a)-1; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// hasInfrequentSubset prunes candidates whose (k-1)-subsets are not all
// frequent.
func hasInfrequentSubset(candidate []string, frequent map[string]float64) bool {
	if len(candidate) <= 2 {
		return false // 1-subsets were checked at level 1
	}
	sub := make([]string, 0, len(candidate)-1)
	for skip := range candidate {
		sub = sub[:0]
		for i, item := range candidate {
			if i != skip {
				sub = append(sub, item)
			}
		}
		if _, ok := frequent[Key(sub)]; !ok {
			return true
		}
	}
	return false
}

func containsAll(members map[string]struct{}, items []string) bool {
	for _, item := range items {
		if _, ok := members[item]; !ok {
			return false
		}
	}
	return true
}

// properSubsets enumerates all non-empty proper subsets of a sorted set,
// each returned sorted.
func properSubsets(items []string) [][]string {
	n := len(items)
	var out [][]string
	for mask := 1; mask < (1<<n)-1; mask++ {
		sub := make([]string, 0, n-1)
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				sub = append(sub, items[i])
			}
		}
		out = append(out, sub)
	}
	return out
}

// difference returns items not in remove; both inputs are sorted.
func difference(items, remove []string) []string {
	removed := make(map[string]struct{}, len(remove))
	for _, item := range remove {
		removed[item] = struct{}{}
	}
	out := make([]string, 0, len(items)-len(remove))
	for _, item := range items {
		if _, ok := removed[item]; !ok {
			out = append(out, item)
		}
	}
	return out
}
