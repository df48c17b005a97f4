package main

import "strings"

// skuCategories maps lowercase keywords found in query text to the
// consumables category shown on the dashboard. Order matters: the first
// keyword contained in the query text wins, so the more specific
// keywords come first.
var skuCategories = []struct {
	keyword  string
	category string
}{
	{"neutralizer", "Media & Microbiology"},
	{"serum", "Media & Microbiology"},
	{"dmem", "Media & Microbiology"},
	{"agar", "Media & Microbiology"},
	{"tsa", "Media & Microbiology"},
	{"media", "Media & Microbiology"},
	{"elisa", "Lab Chemicals, Reagents and Kits"},
	{"recombinant", "Lab Chemicals, Reagents and Kits"},
	{"reagent", "Lab Chemicals, Reagents and Kits"},
	{"buffer", "Lab Chemicals, Reagents and Kits"},
	{"kit", "Lab Chemicals, Reagents and Kits"},
	{"membrane", "Chromatography & Filtration"},
	{"filter", "Chromatography & Filtration"},
	{"funnel", "Chromatography & Filtration"},
	{"column", "Chromatography & Filtration"},
	{"resin", "Chromatography & Filtration"},
	{"pipette", "Labware & Plastics"},
	{"flask", "Labware & Plastics"},
	{"plate", "Labware & Plastics"},
	{"bottle", "Labware & Plastics"},
	{"tube", "Labware & Plastics"},
	{"vial", "Labware & Plastics"},
	{"lab coat", "Safety & PPE"},
	{"glove", "Safety & PPE"},
	{"goggle", "Safety & PPE"},
	{"disinfectant", "Cleaning & Facility"},
	{"sterilization", "Cleaning & Facility"},
	{"wipe", "Cleaning & Facility"},
}

// skuCategory classifies a query's text into a dashboard category.
func skuCategory(queryText string) string {
	text := strings.ToLower(strings.TrimSpace(queryText))
	for _, entry := range skuCategories {
		if strings.Contains(text, entry.keyword) {
			return entry.category
		}
	}
	return "Other"
}

// countryFlags is keyed by the lowercase country names the identity
// normalizer emits.
var countryFlags = map[string]string{
	"united states":  "\U0001F1FA\U0001F1F8",
	"united kingdom": "\U0001F1EC\U0001F1E7",
	"germany":        "\U0001F1E9\U0001F1EA",
	"france":         "\U0001F1EB\U0001F1F7",
	"switzerland":    "\U0001F1E8\U0001F1ED",
	"japan":          "\U0001F1EF\U0001F1F5",
	"china":          "\U0001F1E8\U0001F1F3",
	"india":          "\U0001F1EE\U0001F1F3",
	"canada":         "\U0001F1E8\U0001F1E6",
	"netherlands":    "\U0001F1F3\U0001F1F1",
	"belgium":        "\U0001F1E7\U0001F1EA",
	"denmark":        "\U0001F1E9\U0001F1F0",
	"sweden":         "\U0001F1F8\U0001F1EA",
	"ireland":        "\U0001F1EE\U0001F1EA",
	"australia":      "\U0001F1E6\U0001F1FA",
	"south korea":    "\U0001F1F0\U0001F1F7",
}

// countryFlag returns the flag emoji for a country, or a globe when the
// country is not in the table.
func countryFlag(country string) string {
	if flag, ok := countryFlags[strings.ToLower(strings.TrimSpace(country))]; ok {
		return flag
	}
	return "\U0001F30D"
}
