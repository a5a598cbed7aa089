// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Package sentiment scores review text polarity in [-1, 1].
//
// The default scorer is a deterministic lexicon model: token polarity with
// negation flipping and intensity scaling, averaged over matched tokens.
// It needs no model files and produces stable output across runs, which the
// feature pipeline depends on.
package sentiment

import (
	"strings"
	"unicode"
)

// Scorer computes a polarity score for a piece of text.
// Implementations must return values in [-1, 1] and 0 for empty input.
type Scorer interface {
	Score(text string) float64
}

// LexiconScorer is the default lexicon-based Scorer.
type LexiconScorer struct {
	polarity     map[string]float64
	negations    map[string]struct{}
	intensifiers map[string]float64
}

var _ Scorer = (*LexiconScorer)(nil)

// NewLexiconScorer builds a scorer with the built-in review lexicon.
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{
		polarity:     defaultPolarity(),
		negations:    defaultNegations(),
		intensifiers: defaultIntensifiers(),
	}
}

// Score returns the mean signed polarity of matched tokens, 0 when the text
// is empty or matches nothing. A negation within the two preceding tokens
// flips a token's polarity; an intensifier scales it.
func (s *LexiconScorer) Score(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	var sum float64
	var matched int
	for i, tok := range tokens {
		pol, ok := s.polarity[tok]
		if !ok {
			continue
		}

		weight := 1.0
		negated := false
		for j := i - 1; j >= 0 && j >= i-2; j-- {
			prev := tokens[j]
			if _, neg := s.negations[prev]; neg {
				negated = true
			}
			if scale, ok := s.intensifiers[prev]; ok {
				weight *= scale
			}
		}
		if negated {
			pol = -pol
		}

		sum += pol * weight
		matched++
	}

	if matched == 0 {
		return 0
	}
	return clamp(sum/float64(matched), -1, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// tokenize lowercases and splits on non-letter runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func defaultNegations() map[string]struct{} {
	words := []string{
		"not", "no", "never", "neither", "nor", "nothing",
		"isn't", "wasn't", "aren't", "don't", "doesn't", "didn't",
		"won't", "wouldn't", "can't", "couldn't", "hardly", "barely",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func defaultIntensifiers() map[string]float64 {
	return map[string]float64{
		"very":       1.5,
		"really":     1.5,
		"extremely":  2.0,
		"absolutely": 2.0,
		"totally":    1.75,
		"quite":      1.25,
		"so":         1.5,
		"somewhat":   0.5,
		"slightly":   0.5,
		"a":          1.0,
	}
}

// defaultPolarity is tuned for product-review vocabulary.
func defaultPolarity() map[string]float64 {
	return map[string]float64{
		// positive
		"good": 0.5, "great": 0.8, "excellent": 0.9, "amazing": 0.9,
		"awesome": 0.9, "fantastic": 0.9, "wonderful": 0.8, "perfect": 1.0,
		"love": 0.8, "loved": 0.8, "like": 0.4, "liked": 0.4,
		"best": 0.9, "better": 0.4, "nice": 0.5, "happy": 0.6,
		"satisfied": 0.6, "recommend": 0.7, "recommended": 0.7,
		"fast": 0.4, "quick": 0.4, "easy": 0.4, "beautiful": 0.7,
		"sturdy": 0.5, "durable": 0.5, "reliable": 0.6, "comfortable": 0.5,
		"quality": 0.4, "worth": 0.5, "value": 0.4, "works": 0.3,
		"arrived": 0.1, "fine": 0.3, "pleased": 0.6, "impressed": 0.7,
		"smooth": 0.4, "solid": 0.4, "helpful": 0.5, "friendly": 0.5,

		// negative
		"bad": -0.6, "terrible": -0.9, "horrible": -0.9, "awful": -0.9,
		"worst": -1.0, "worse": -0.5, "poor": -0.6, "cheap": -0.4,
		"hate": -0.8, "hated": -0.8, "disappointed": -0.7, "disappointing": -0.7,
		"broken": -0.8, "broke": -0.7, "defective": -0.8, "damaged": -0.7,
		"useless": -0.8, "waste": -0.7, "refund": -0.5, "return": -0.3,
		"slow": -0.4, "late": -0.4, "delayed": -0.4, "missing": -0.6,
		"wrong": -0.5, "problem": -0.4, "problems": -0.4, "issue": -0.3,
		"fake": -0.8, "flimsy": -0.6, "uncomfortable": -0.5, "difficult": -0.4,
		"overpriced": -0.6, "scam": -0.9, "stopped": -0.4,
	}
}
