package model

import (
	"fmt"
	"strings"
)

// ComparisonAttribute is a named product-comparison dimension. Identity is
// by Key, unique within a version. Aliases help the extraction model
// recognize the same concept worded differently by a vendor.
type ComparisonAttribute struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Aliases     []string `json:"aliases,omitempty"`
}

// BaseAttributes returns the attribute set present in every version.
// Product-specific attributes discovered during enrichment are appended
// after these.
func BaseAttributes() []ComparisonAttribute {
	return []ComparisonAttribute{
		{
			Key:         "price",
			DisplayName: "Price",
			Description: "Unit price with currency and quantity",
			Aliases: []string{
				"price", "list price", "unit price", "cost", "USD", "EUR", "GBP",
				"per pack", "per kit", "per unit", "each",
			},
		},
		{
			Key:         "storage_condition",
			DisplayName: "Storage",
			Description: "Temperature and storage requirements",
			Aliases: []string{
				"storage", "store at", "temperature", "refrigerate", "freeze",
				"-20", "-80", "2-8", "room temp", "ambient", "protect from light",
				"cold chain",
			},
		},
		{
			Key:         "shelf_life",
			DisplayName: "Shelf Life",
			Description: "Product stability period",
			Aliases: []string{
				"shelf life", "expiry", "expiration", "stability", "valid for",
				"best before", "months from receipt", "use by",
			},
		},
		{
			Key:         "certifications",
			DisplayName: "Certifications",
			Description: "Regulatory and quality certifications",
			Aliases: []string{
				"certification", "compliance", "USP", "EP", "GMP", "ISO", "RUO",
				"IVD", "CE", "FDA", "monograph", "pharmacopeial",
			},
		},
		{
			Key:         "pack_size",
			DisplayName: "Pack Size",
			Description: "Quantity per package",
			Aliases: []string{
				"pack size", "quantity", "unit size", "contents", "per pack",
				"per kit", "reactions", "tests", "vials", "tubes", "wells",
			},
		},
		{
			Key:         "catalog_number",
			DisplayName: "Catalog #",
			Description: "Product catalog or SKU number",
			Aliases: []string{
				"catalog", "cat #", "cat no", "SKU", "product code", "item number",
				"part number", "ref", "order number",
			},
		},
		{
			Key:         "manufacturer",
			DisplayName: "Manufacturer",
			Description: "Product manufacturer or brand",
			Aliases: []string{
				"manufacturer", "brand", "made by", "produced by", "supplier",
				"distributed by",
			},
		},
		{
			Key:         "lead_time",
			DisplayName: "Lead Time",
			Description: "Delivery timeline and availability",
			Aliases: []string{
				"lead time", "delivery", "ships", "shipping", "in stock",
				"available", "backordered", "dispatch", "business days",
			},
		},
	}
}

// maxPromptAliases caps how many aliases are rendered per attribute so a
// large alias table cannot blow up the prompt.
const maxPromptAliases = 8

// FormatAttributesForPrompt renders attribute definitions for inclusion
// in an LLM prompt.
func FormatAttributesForPrompt(attrs []ComparisonAttribute) string {
	var b strings.Builder
	for i, a := range attrs {
		if i > 0 {
			b.WriteByte('\n')
		}
		aliases := a.Aliases
		if len(aliases) > maxPromptAliases {
			aliases = aliases[:maxPromptAliases]
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n  Look for: %s",
			a.Key, a.DisplayName, a.Description, strings.Join(aliases, ", "))
	}
	return b.String()
}

// MergeAttributes appends extras onto base, dropping duplicates by key.
// Base order is preserved; extras keep their relative order.
func MergeAttributes(base, extras []ComparisonAttribute) []ComparisonAttribute {
	seen := make(map[string]bool, len(base))
	out := make([]ComparisonAttribute, 0, len(base)+len(extras))
	for _, a := range base {
		if a.Key == "" || seen[a.Key] {
			continue
		}
		seen[a.Key] = true
		out = append(out, a)
	}
	for _, a := range extras {
		if a.Key == "" || seen[a.Key] {
			continue
		}
		seen[a.Key] = true
		out = append(out, a)
	}
	return out
}
