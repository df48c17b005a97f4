package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/procurelabs/vendor-research-cli/internal/model"
	"github.com/procurelabs/vendor-research-cli/internal/parse"
	"github.com/procurelabs/vendor-research-cli/internal/resilience"
	"github.com/procurelabs/vendor-research-cli/pkg/textgen"
)

// discover runs the web-search-backed vendor research call. The raw
// response text is retained on the version for provenance; parsing it is
// the next phase's job.
func (p *Pipeline) discover(ctx context.Context, version *model.Version) (model.PhaseStats, error) {
	req := textgen.GenerateRequest{
		Model:           p.cfg.Anthropic.ResearchModel,
		MaxTokens:       p.cfg.Pipeline.ResearchMaxTokens,
		System:          researchSystem(version.Attributes),
		Input:           version.EnrichedQuery,
		EnableWebSearch: true,
		MaxWebSearches:  p.cfg.Anthropic.MaxWebSearches,
	}

	start := time.Now()
	resp, err := resilience.DoVal(ctx, p.cfg.Pipeline.Retry.Executor("anthropic", "discover"),
		func(ctx context.Context) (*textgen.GenerateResponse, error) {
			return p.textgen.Generate(ctx, req)
		})
	if err != nil {
		return model.PhaseStats{}, err
	}

	usage := usageFromResponse(resp)
	version.Discovery = model.DiscoveryRecord{
		RawText:  resp.Text,
		Model:    resp.Model,
		Duration: time.Since(start).Seconds(),
		Usage:    usage,
	}

	return model.PhaseStats{
		Usage:   usage,
		CostUSD: p.costCalc.Text(resp.Model, usage.InputTokens, usage.OutputTokens, int(resp.Usage.WebSearchRequests)),
	}, nil
}

// fixedVendorKeys are discovery-response keys mapped onto VendorRecord
// fields. Everything else is folded into Specs as a discovery-sourced
// attribute value.
var fixedVendorKeys = map[string]bool{
	"id":                    true,
	"vendor_name":           true,
	"product_name":          true,
	"product_description":   true,
	"product_url":           true,
	"region":                true,
	"availability_status":   true,
	"discovery_confidence":  true,
	"recommendation_score":  true,
	"recommendation_reason": true,
	"concerns":              true,
	"source_urls":           true,
}

// parseVendors turns the raw discovery text into vendor records. IDs are
// assigned in discovery order starting at 1. Pure and deterministic;
// failure here is fatal to the run.
func parseVendors(raw string, attrs []model.ComparisonAttribute) ([]model.VendorRecord, error) {
	var objects []map[string]json.RawMessage
	if err := parse.ExtractInto(raw, &objects); err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, eris.New("parse: discovery response has no vendors")
	}

	known := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		known[a.Key] = true
	}

	now := time.Now().UTC()
	vendors := make([]model.VendorRecord, 0, len(objects))
	for i, obj := range objects {
		v := model.VendorRecord{
			ID:                   i + 1,
			VendorName:           rawString(obj, "vendor_name"),
			ProductName:          rawString(obj, "product_name"),
			ProductDescription:   rawString(obj, "product_description"),
			ProductURL:           cleanURL(rawString(obj, "product_url")),
			Region:               rawString(obj, "region"),
			RecommendationReason: rawString(obj, "recommendation_reason"),
			Concerns:             rawString(obj, "concerns"),
			Specs:                make(map[string]model.ExtractedSpec),
		}
		if v.VendorName == "" {
			v.VendorName = "Unknown"
		}

		v.Availability = model.AvailabilityUnverified
		switch model.AvailabilityStatus(rawString(obj, "availability_status")) {
		case model.AvailabilityAvailable:
			v.Availability = model.AvailabilityAvailable
		case model.AvailabilityLimited:
			v.Availability = model.AvailabilityLimited
		}

		switch model.Confidence(rawString(obj, "discovery_confidence")) {
		case model.ConfidenceHigh:
			v.DiscoveryConfidence = model.ConfidenceHigh
		case model.ConfidenceLow:
			v.DiscoveryConfidence = model.ConfidenceLow
		default:
			v.DiscoveryConfidence = model.ConfidenceMedium
		}

		if data, ok := obj["recommendation_score"]; ok {
			var score float64
			if err := json.Unmarshal(data, &score); err == nil {
				v.RecommendationScore = &score
			}
		}

		// Dynamic attribute keys become discovery-sourced spec values.
		// Only known attribute keys are kept; extraction overwrites them
		// later when it finds page values.
		for key, data := range obj {
			if fixedVendorKeys[key] || !known[key] {
				continue
			}
			var value string
			if err := json.Unmarshal(data, &value); err != nil {
				continue
			}
			v.Specs[key] = model.ExtractedSpec{
				Value:       value,
				SourceLabel: "discovery",
				Confidence:  model.ConfidenceMedium,
				ExtractedAt: now,
			}
		}

		vendors = append(vendors, v)
	}
	return vendors, nil
}

func rawString(obj map[string]json.RawMessage, key string) string {
	data, ok := obj[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// cleanURL normalizes the discovery product_url field: the NA sentinel
// and non-http values mean the vendor has no usable product page.
func cleanURL(raw string) string {
	if !model.IsValidSpecValue(raw) {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return ""
	}
	return raw
}
