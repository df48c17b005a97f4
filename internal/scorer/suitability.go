// Package scorer ranks vendor records by a 0-100 suitability score.
//
// The score weights attribute completeness at 90% and discovery-time
// recommendation confidence at 10%: a vendor page we could not extract
// from is operationally useless no matter how confident discovery was,
// while the small recommendation weight differentiates equally-complete
// vendors.
package scorer

import (
	"math"
	"sort"

	"github.com/procurelabs/vendor-research-cli/internal/model"
)

const (
	completenessWeight   = 90
	recommendationWeight = 10

	// neutralRecommendation stands in for a missing recommendation
	// score: treat it as 50% confidence.
	neutralRecommendation = 5
)

// Score computes the suitability score for a single vendor record from
// its current spec data. Always in [0, 100].
func Score(v model.VendorRecord) int {
	completeness := 0.0
	if attempted := len(v.Specs); attempted > 0 {
		valid := 0
		for _, spec := range v.Specs {
			if spec.HasValue() {
				valid++
			}
		}
		completeness = float64(valid) / float64(attempted)
	}

	rec := float64(neutralRecommendation)
	if v.RecommendationScore != nil {
		if s := *v.RecommendationScore; s >= 0 && s <= 1 {
			rec = s * recommendationWeight
		}
	}

	score := int(math.Round(completeness*completenessWeight + rec))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Rank recomputes the score for every vendor and sorts descending by
// score. The sort is stable: ties keep their relative discovery order,
// since vendor ids reflect discovery priority.
func Rank(vendors []model.VendorRecord) []model.VendorRecord {
	out := make([]model.VendorRecord, len(vendors))
	copy(out, vendors)
	for i := range out {
		out[i].SuitabilityScore = Score(out[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SuitabilityScore > out[j].SuitabilityScore
	})
	return out
}
