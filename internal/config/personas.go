// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package config

// DefaultPersonaFallback is assigned to customers whose purchase categories
// map to no persona label.
const DefaultPersonaFallback = "General Consumer"

// DefaultPersonaRules maps marketplace product categories to the persona
// labels they imply. The table is configuration, not code: deployments
// override it per catalog via the personas.rules config section.
func DefaultPersonaRules() map[string][]string {
	return map[string][]string{
		"sports_leisure":                  {"Athlete", "Fitness Enthusiast"},
		"baby":                            {"Parent", "Caregiver"},
		"toys":                            {"Parent", "Child-oriented"},
		"books_general_interest":          {"Bookworm", "Intellectual"},
		"electronics":                     {"Tech Enthusiast", "Gadget Lover"},
		"computers_accessories":           {"Tech Professional", "Gadget Lover"},
		"health_beauty":                   {"Beauty Enthusiast", "Health-conscious"},
		"furniture_decor":                 {"Home Decorator", "Interior Design Enthusiast"},
		"garden_tools":                    {"Gardener", "Outdoor Enthusiast"},
		"pet_shop":                        {"Pet Owner", "Animal Lover"},
		"fashion_bags_accessories":        {"Fashion Enthusiast", "Trendsetter"},
		"musical_instruments":             {"Musician", "Music Lover"},
		"food_drink":                      {"Foodie", "Culinary Enthusiast"},
		"art":                             {"Artist", "Art Collector"},
		"cine_photo":                      {"Photographer", "Film Buff"},
		"watches_gifts":                   {"Gift Giver", "Luxury Enthusiast"},
		"home_appliances":                 {"Home Chef", "Domestic Enthusiast"},
		"auto":                            {"Car Enthusiast", "DIY Mechanic"},
		"books_technical":                 {"Professional", "Lifelong Learner"},
		"construction_tools_construction": {"DIY Enthusiast", "Home Improver"},
		"stationery":                      {"Office Professional", "Stationery Lover"},
		"cool_stuff":                      {"Trendsetter", "Early Adopter"},
		"consoles_games":                  {"Gamer", "Tech Enthusiast"},
	}
}
