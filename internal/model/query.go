// Package model defines the data shapes shared across the research pipeline.
package model

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Query is a normalized procurement request. It owns the full version
// history for that request; the record itself is never deleted, only
// superseded by new versions.
type Query struct {
	Slug           string    `json:"query_id"`
	QueryText      string    `json:"query_text"`
	Versions       []Version `json:"versions"`
	CurrentVersion int       `json:"current_version"`
	LastUpdated    time.Time `json:"last_updated"`
}

// Version is one immutable snapshot of a complete pipeline run.
// Corrections create a new version; an existing version is never mutated.
type Version struct {
	Number        int                   `json:"version"`
	CreatedAt     time.Time             `json:"created_at"`
	EnrichedQuery string                `json:"enriched_query"`
	Attributes    []ComparisonAttribute `json:"comparison_attributes"`
	Discovery     DiscoveryRecord       `json:"discovery"`
	Vendors       []VendorRecord        `json:"vendors"`
	Stats         PipelineStats         `json:"stats"`
}

// VersionSummary is the lightweight listing shape for a version.
type VersionSummary struct {
	Number      int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	VendorCount int       `json:"vendor_count"`
	TotalTokens int       `json:"total_tokens"`
	CostUSD     float64   `json:"cost_usd"`
}

// QuerySummary is the lightweight listing shape for a query.
type QuerySummary struct {
	Slug           string    `json:"query_id"`
	QueryText      string    `json:"query_text"`
	VersionCount   int       `json:"version_count"`
	CurrentVersion int       `json:"current_version"`
	VendorCount    int       `json:"vendor_count"`
	LastUpdated    time.Time `json:"last_updated"`
}

// DiscoveryRecord is the unparsed output of the discovery phase, retained
// for provenance even after parsing.
type DiscoveryRecord struct {
	RawText  string     `json:"raw_text"`
	Model    string     `json:"model"`
	Duration float64    `json:"duration_seconds"`
	Usage    TokenUsage `json:"tokens_used"`
}

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[-\s]+`)
)

// NormalizeKey folds a raw query string into the canonical store key.
func NormalizeKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Slugify derives the stable URL-friendly identifier for a query.
// Diacritics are folded to their base letters so keys stay ASCII-safe.
func Slugify(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	s := NormalizeKey(folded)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Summary reduces a query to its listing shape.
func (q *Query) Summary() QuerySummary {
	vendorCount := 0
	if v := q.Version(q.CurrentVersion); v != nil {
		vendorCount = len(v.Vendors)
	}
	return QuerySummary{
		Slug:           q.Slug,
		QueryText:      q.QueryText,
		VersionCount:   len(q.Versions),
		CurrentVersion: q.CurrentVersion,
		VendorCount:    vendorCount,
		LastUpdated:    q.LastUpdated,
	}
}

// Version returns the version with the given number, or nil.
func (q *Query) Version(n int) *Version {
	for i := range q.Versions {
		if q.Versions[i].Number == n {
			return &q.Versions[i]
		}
	}
	return nil
}

// Summaries lists all versions of the query in order.
func (q *Query) Summaries() []VersionSummary {
	out := make([]VersionSummary, 0, len(q.Versions))
	for i := range q.Versions {
		out = append(out, q.Versions[i].Summary())
	}
	return out
}

// Summary reduces a version to its listing shape.
func (v *Version) Summary() VersionSummary {
	return VersionSummary{
		Number:      v.Number,
		CreatedAt:   v.CreatedAt,
		VendorCount: len(v.Vendors),
		TotalTokens: v.Stats.Totals.TotalTokens,
		CostUSD:     v.Stats.TotalCostUSD,
	}
}

// Attribute returns the comparison attribute with the given key, or nil.
func (v *Version) Attribute(key string) *ComparisonAttribute {
	for i := range v.Attributes {
		if v.Attributes[i].Key == key {
			return &v.Attributes[i]
		}
	}
	return nil
}

// Vendor returns the vendor with the given id, or nil.
func (v *Version) Vendor(id int) *VendorRecord {
	for i := range v.Vendors {
		if v.Vendors[i].ID == id {
			return &v.Vendors[i]
		}
	}
	return nil
}
