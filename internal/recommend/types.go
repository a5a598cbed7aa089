// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Package recommend implements the recommendation agents and the engine
// that fronts them.
//
// Four agents cover complementary strategies:
//
//   - history: products from categories the customer has bought from,
//     ranked by average review sentiment
//   - cohort: products bought by customers sharing a persona label
//   - basket: association-rule mining over order baskets
//   - context: locally popular products in the customer's delivery city
//
// All agents read the orders_full feature table through DataProvider and are
// safe for concurrent use.
package recommend

import (
	"context"
	"errors"
	"time"
)

// Agent names as registered with the engine and exposed over the API.
const (
	AgentHistory = "history"
	AgentCohort  = "cohort"
	AgentBasket  = "basket"
	AgentContext = "context"
)

var (
	// ErrUserNotFound indicates the customer id has no rows in the
	// feature table.
	ErrUserNotFound = errors.New("recommend: user not found")

	// ErrNoHistory indicates the customer exists but has no usable
	// purchase history for the requested agent.
	ErrNoHistory = errors.New("recommend: user has no purchase history")

	// ErrLocationNotFound indicates no delivery city is on record for the
	// customer and none was supplied with the request.
	ErrLocationNotFound = errors.New("recommend: user location not found")

	// ErrNotTrained indicates the basket agent has no rule set yet.
	ErrNotTrained = errors.New("recommend: agent not trained")

	// ErrUnknownAgent indicates a request named an unregistered agent.
	ErrUnknownAgent = errors.New("recommend: unknown agent")
)

// Item is one recommended product, hydrated from the feature table.
type Item struct {
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Link        string  `json:"link"`
	AvgPrice    float64 `json:"avg_price"`
	Summary     string  `json:"summary,omitempty"`
	Category    string  `json:"category,omitempty"`
	Sentiment   float64 `json:"sentiment"`
}

// Request asks an agent for recommendations.
type Request struct {
	// UserID is the durable customer identifier (customer_unique_id).
	UserID string

	// Limit caps returned items. Zero means the engine default.
	Limit int

	// City overrides the customer's recorded delivery city for the
	// context agent.
	City string
}

// Response is one agent's answer.
type Response struct {
	Agent       string    `json:"agent"`
	Items       []Item    `json:"items"`
	GeneratedAt time.Time `json:"generated_at"`
	Cached      bool      `json:"cached,omitempty"`

	// City is the resolved location, set by the context agent only.
	City string `json:"city,omitempty"`
}

// Agent produces recommendations for one strategy.
type Agent interface {
	// Name returns the agent identifier.
	Name() string

	// Recommend returns up to req.Limit items for the user. Sentinel
	// errors (ErrUserNotFound, ErrNoHistory, ErrLocationNotFound,
	// ErrNotTrained) describe empty-result conditions a caller may want
	// to distinguish.
	Recommend(ctx context.Context, req Request) (*Response, error)
}
