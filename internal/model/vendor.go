package model

import (
	"strings"
	"time"
)

// Confidence tags how certain a phase was about a piece of data.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// AvailabilityStatus reflects whether discovery could verify the product
// is actually purchasable on the vendor's page.
type AvailabilityStatus string

const (
	AvailabilityAvailable  AvailabilityStatus = "available"
	AvailabilityLimited    AvailabilityStatus = "limited"
	AvailabilityUnverified AvailabilityStatus = "unverified"
)

// VendorRecord is one candidate supplier within a version. The ID is
// assigned in discovery order starting at 1 and is only unique within
// its version, not globally.
type VendorRecord struct {
	ID                 int                `json:"id"`
	VendorName         string             `json:"vendor_name"`
	ProductName        string             `json:"product_name,omitempty"`
	ProductDescription string             `json:"product_description,omitempty"`
	ProductURL         string             `json:"product_url,omitempty"`
	Region             string             `json:"region,omitempty"`
	Availability       AvailabilityStatus `json:"availability_status,omitempty"`

	// Discovery signals.
	DiscoveryConfidence  Confidence `json:"discovery_confidence,omitempty"`
	RecommendationScore  *float64   `json:"recommendation_score,omitempty"`
	RecommendationReason string     `json:"recommendation_reason,omitempty"`
	Concerns             string     `json:"concerns,omitempty"`

	// Identity normalizer output. Empty when unresolvable.
	CompanyName string `json:"company_name,omitempty"`
	Country     string `json:"country,omitempty"`

	// Extraction output, keyed by comparison-attribute key.
	Specs             map[string]ExtractedSpec `json:"specs"`
	SpecsAvailability string                   `json:"specs_availability,omitempty"`

	SuitabilityScore int `json:"suitability_score"`
}

// ExtractedSpec is the value found for one comparison attribute on one
// vendor's page. NotFound marks an explicit "not on the page" result,
// which is distinct from an empty value.
type ExtractedSpec struct {
	Value       string     `json:"value"`
	NotFound    bool       `json:"not_found,omitempty"`
	SourceLabel string     `json:"source_label,omitempty"`
	Confidence  Confidence `json:"confidence,omitempty"`
	ExtractedAt time.Time  `json:"extracted_at"`
}

// notApplicableSentinels are value strings treated the same as no value.
var notApplicableSentinels = map[string]bool{
	"":              true,
	"na":            true,
	"n/a":           true,
	"unknown":       true,
	"not available": true,
}

// IsValidSpecValue reports whether a spec value carries real data, i.e.
// is non-empty and not one of the not-applicable sentinels.
func IsValidSpecValue(value string) bool {
	return !notApplicableSentinels[strings.ToLower(strings.TrimSpace(value))]
}

// HasValue reports whether the spec holds a usable extracted value.
func (s ExtractedSpec) HasValue() bool {
	return !s.NotFound && IsValidSpecValue(s.Value)
}
