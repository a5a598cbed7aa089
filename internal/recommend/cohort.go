// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CohortAgent recommends products bought by customers who share at least one
// persona label with the requester, ranked by average review sentiment.
// Users absent from the persona table are treated as members of the fallback
// cohort rather than rejected.
type CohortAgent struct {
	provider DataProvider
	fallback string
	log      zerolog.Logger
}

var _ Agent = (*CohortAgent)(nil)

// NewCohortAgent creates the persona-cohort agent. fallback is the persona
// label assumed for users with no persona of their own.
func NewCohortAgent(provider DataProvider, fallback string, log zerolog.Logger) *CohortAgent {
	if fallback == "" {
		fallback = "General Consumer"
	}
	return &CohortAgent{
		provider: provider,
		fallback: fallback,
		log:      log.With().Str("agent", AgentCohort).Logger(),
	}
}

// Name implements Agent.
func (a *CohortAgent) Name() string { return AgentCohort }

// Recommend implements Agent.
func (a *CohortAgent) Recommend(ctx context.Context, req Request) (*Response, error) {
	personas, err := a.provider.Personas(ctx)
	if err != nil {
		return nil, fmt.Errorf("cohort agent: %w", err)
	}

	ownLabels := splitPersona(personas[req.UserID])
	if len(ownLabels) == 0 {
		ownLabels = []string{a.fallback}
	}

	// Cohort membership: any shared label, requester excluded.
	var cohort []string
	for uid, persona := range personas {
		if uid == req.UserID {
			continue
		}
		if sharesLabel(ownLabels, splitPersona(persona)) {
			cohort = append(cohort, uid)
		}
	}
	sort.Strings(cohort)

	if len(cohort) == 0 {
		return &Response{Agent: AgentCohort, Items: []Item{}, GeneratedAt: time.Now().UTC()}, nil
	}

	rows, err := a.provider.RowsByUsers(ctx, cohort)
	if err != nil {
		return nil, fmt.Errorf("cohort agent: %w", err)
	}

	items := topBySentiment(aggregateByProduct(rows), req.Limit)
	a.log.Debug().
		Str("user", req.UserID).
		Int("cohort_size", len(cohort)).
		Int("items", len(items)).
		Msg("cohort recommendations generated")

	return &Response{
		Agent:       AgentCohort,
		Items:       items,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// splitPersona breaks a persona string into its labels.
func splitPersona(persona string) []string {
	if persona == "" {
		return nil
	}
	parts := strings.Split(persona, ", ")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sharesLabel(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, label := range a {
		set[label] = struct{}{}
	}
	for _, label := range b {
		if _, ok := set[label]; ok {
			return true
		}
	}
	return false
}
