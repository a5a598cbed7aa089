// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/shoprec/internal/logging"
	"github.com/tomtom215/shoprec/internal/recommend"
)

const narratorSystemPrompt = `You are a shopping assistant for an e-commerce site.
You are given recommendation results produced by several algorithms for one user.
Write a short, friendly paragraph presenting the recommendations.
Mention why each group of products was chosen (purchase history, similar shoppers,
frequently bought together, or local trends). Do not invent products that are not
in the input. Plain text only, no markdown.`

// Narrator turns raw agent output into a human-readable explanation. When the
// generator fails or is absent, it falls back to a deterministic template so
// the API always has narration to return.
type Narrator struct {
	gen TextGenerator
}

// NewNarrator builds a narrator. gen may be nil to force template output.
func NewNarrator(gen TextGenerator) *Narrator {
	return &Narrator{gen: gen}
}

// agentIntro maps agent names to the phrasing used in narration.
var agentIntro = map[string]string{
	recommend.AgentHistory: "based on your purchase history",
	recommend.AgentCohort:  "popular with shoppers like you",
	recommend.AgentBasket:  "frequently bought together with your items",
	recommend.AgentContext: "trending in your area",
}

// Narrate produces an explanation for the given per-agent responses. The
// returned bool reports whether the text came from the language model.
func (n *Narrator) Narrate(ctx context.Context, userID string, responses map[string]*recommend.Response) (string, bool) {
	if n.gen != nil {
		prompt := buildNarrationPrompt(userID, responses)
		text, err := n.gen.GenerateText(ctx, narratorSystemPrompt, prompt)
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), true
		}
		if err != nil {
			logging.Warn().Err(err).Str("user_id", userID).
				Msg("narration generation failed, using template")
		}
	}
	return templateNarration(responses), false
}

// buildNarrationPrompt serializes the recommendation results into a compact
// prompt block, one agent per section.
func buildNarrationPrompt(userID string, responses map[string]*recommend.Response) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User: %s\n", userID)
	for _, agent := range orderedAgents(responses) {
		resp := responses[agent]
		fmt.Fprintf(&b, "\nAlgorithm %q (%s):\n", agent, agentIntro[agent])
		for _, item := range resp.Items {
			name := item.Name
			if name == "" {
				name = item.ProductID
			}
			fmt.Fprintf(&b, "- %s (category: %s)\n", name, item.Category)
		}
	}
	return b.String()
}

// templateNarration is the deterministic fallback.
func templateNarration(responses map[string]*recommend.Response) string {
	var b strings.Builder
	b.WriteString("I have run several recommendation algorithms for you.")
	for _, agent := range orderedAgents(responses) {
		resp := responses[agent]
		if len(resp.Items) == 0 {
			continue
		}
		names := make([]string, 0, len(resp.Items))
		for _, item := range resp.Items {
			if item.Name != "" {
				names = append(names, item.Name)
			} else {
				names = append(names, item.ProductID)
			}
		}
		fmt.Fprintf(&b, " %s, you might like: %s.",
			capitalize(agentIntro[agent]), strings.Join(names, ", "))
	}
	return b.String()
}

// orderedAgents returns agent names in the platform's canonical order so
// narration is stable across runs.
func orderedAgents(responses map[string]*recommend.Response) []string {
	canonical := []string{
		recommend.AgentHistory,
		recommend.AgentCohort,
		recommend.AgentBasket,
		recommend.AgentContext,
	}
	out := make([]string, 0, len(responses))
	for _, agent := range canonical {
		if resp, ok := responses[agent]; ok && resp != nil {
			out = append(out, agent)
		}
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
