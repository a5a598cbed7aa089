// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Package trends supplies trend snapshots for the context agent.
//
// Each source returns an opaque human-readable snapshot string that feeds
// the language-model category selection prompt. The built-in sources are
// static stand-ins with the shape real integrations would have; swapping in
// live ones means implementing recommend.TrendSource.
package trends

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/shoprec/internal/recommend"
)

// Seasonal reports the current retail season. The clock is injectable so
// tests pin a month.
type Seasonal struct {
	Now func() time.Time
}

var _ recommend.TrendSource = (*Seasonal)(nil)

// Snapshot implements recommend.TrendSource.
func (s *Seasonal) Snapshot(_ context.Context, city string) (string, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	var season string
	switch now().Month() {
	case time.December, time.January, time.February:
		season = "summer holidays" // southern-hemisphere catalog
	case time.March, time.April, time.May:
		season = "back to school"
	case time.June, time.July, time.August:
		season = "winter"
	default:
		season = "spring"
	}
	return fmt.Sprintf("Seasonal context for %s: %s shopping period.", city, season), nil
}

// Events reports notable local events per city.
type Events struct {
	// ByCity maps a lowercase city name to event descriptions.
	ByCity map[string][]string
}

var _ recommend.TrendSource = (*Events)(nil)

// Snapshot implements recommend.TrendSource.
func (e *Events) Snapshot(_ context.Context, city string) (string, error) {
	events, ok := e.ByCity[strings.ToLower(city)]
	if !ok || len(events) == 0 {
		return fmt.Sprintf("No notable events on record for %s.", city), nil
	}
	out := fmt.Sprintf("Upcoming events in %s:", city)
	for _, event := range events {
		out += " " + event + "."
	}
	return out, nil
}

// Social reports trending purchase topics.
type Social struct {
	Topics []string
}

var _ recommend.TrendSource = (*Social)(nil)

// Snapshot implements recommend.TrendSource.
func (s *Social) Snapshot(_ context.Context, city string) (string, error) {
	if len(s.Topics) == 0 {
		return fmt.Sprintf("No social shopping trends tracked for %s.", city), nil
	}
	out := "Trending on social media:"
	for _, topic := range s.Topics {
		out += " " + topic + ";"
	}
	return out, nil
}

// DefaultSources returns the built-in seasonal, events, and social sources.
func DefaultSources() []recommend.TrendSource {
	return []recommend.TrendSource{
		&Seasonal{},
		&Events{ByCity: map[string][]string{
			"sao paulo":      {"Tech industry expo", "Marathon weekend"},
			"rio de janeiro": {"Beach volleyball championship"},
		}},
		&Social{Topics: []string{"home office setups", "fitness gear", "board games"}},
	}
}
