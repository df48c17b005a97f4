package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/procurelabs/vendor-research-cli/internal/model"
)

func floatPtr(f float64) *float64 { return &f }

func vendorWithSpecs(valid, invalid int, rec *float64) model.VendorRecord {
	specs := make(map[string]model.ExtractedSpec)
	for i := 0; i < valid; i++ {
		specs[specKey(i)] = model.ExtractedSpec{Value: "2-8°C"}
	}
	for i := 0; i < invalid; i++ {
		specs[specKey(valid+i)] = model.ExtractedSpec{Value: "NA"}
	}
	return model.VendorRecord{Specs: specs, RecommendationScore: rec}
}

func specKey(i int) string {
	keys := []string{
		"price", "storage_condition", "shelf_life", "certifications",
		"pack_size", "catalog_number", "manufacturer", "lead_time",
		"purity", "grade",
	}
	return keys[i]
}

func TestScore_Boundaries(t *testing.T) {
	// No attempted specs, zero recommendation -> 0.
	zero := model.VendorRecord{
		Specs:               map[string]model.ExtractedSpec{"price": {Value: "NA"}},
		RecommendationScore: floatPtr(0),
	}
	assert.Equal(t, 0, Score(zero))

	// Full completeness, full recommendation -> 100.
	full := vendorWithSpecs(8, 0, floatPtr(1.0))
	assert.Equal(t, 100, Score(full))
}

func TestScore_SixOfEightWithRecommendation(t *testing.T) {
	// 6 valid of 8 attempted, rec 0.8:
	// round(0.75*90 + 0.8*10) = round(75.5) = 76.
	v := vendorWithSpecs(6, 2, floatPtr(0.8))
	assert.Equal(t, 76, Score(v))
}

func TestScore_NoAttemptedSpecs(t *testing.T) {
	v := model.VendorRecord{RecommendationScore: floatPtr(0.9)}
	// Completeness 0, rec 9 -> 9.
	assert.Equal(t, 9, Score(v))
}

func TestScore_MissingRecommendationIsNeutral(t *testing.T) {
	v := vendorWithSpecs(4, 4, nil)
	// round(0.5*90 + 5) = 50.
	assert.Equal(t, 50, Score(v))
}

func TestScore_OutOfRangeRecommendationIgnored(t *testing.T) {
	v := vendorWithSpecs(4, 4, floatPtr(3.0))
	// Invalid recommendation falls back to the neutral default.
	assert.Equal(t, 50, Score(v))
}

func TestScore_SentinelValuesNotCounted(t *testing.T) {
	v := model.VendorRecord{Specs: map[string]model.ExtractedSpec{
		"price":             {Value: "$125.00 / 100 pack"},
		"storage_condition": {Value: "n/a"},
		"shelf_life":        {Value: "Unknown"},
		"certifications":    {Value: "not available"},
		"pack_size":         {Value: ""},
		"catalog_number":    {NotFound: true, Value: ""},
	}}
	// 1 valid of 6, no rec: round(0.1667*90 + 5) = round(20) = 20.
	assert.Equal(t, 20, Score(v))
}

func TestScore_AlwaysInRange(t *testing.T) {
	for valid := 0; valid <= 8; valid++ {
		for _, rec := range []*float64{nil, floatPtr(0), floatPtr(0.33), floatPtr(1)} {
			s := Score(vendorWithSpecs(valid, 8-valid, rec))
			assert.GreaterOrEqual(t, s, 0)
			assert.LessOrEqual(t, s, 100)
		}
	}
}

func TestRank_DescendingStable(t *testing.T) {
	vendors := []model.VendorRecord{
		{ID: 1, Specs: map[string]model.ExtractedSpec{"price": {Value: "NA"}}},
		{ID: 2, Specs: map[string]model.ExtractedSpec{"price": {Value: "$10"}}},
		{ID: 3, Specs: map[string]model.ExtractedSpec{"price": {Value: "NA"}}},
		{ID: 4, Specs: map[string]model.ExtractedSpec{"price": {Value: "$20"}}},
	}

	ranked := Rank(vendors)

	// Vendors 2 and 4 are complete (score 95), 1 and 3 empty (score 5);
	// within each tier discovery order is preserved.
	ids := []int{ranked[0].ID, ranked[1].ID, ranked[2].ID, ranked[3].ID}
	assert.Equal(t, []int{2, 4, 1, 3}, ids)
	assert.Equal(t, 95, ranked[0].SuitabilityScore)
	assert.Equal(t, 5, ranked[2].SuitabilityScore)
}

func TestRank_RecomputesStaleScores(t *testing.T) {
	v := vendorWithSpecs(8, 0, floatPtr(1.0))
	v.SuitabilityScore = 1 // stale
	ranked := Rank([]model.VendorRecord{v})
	assert.Equal(t, 100, ranked[0].SuitabilityScore)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	vendors := []model.VendorRecord{
		{ID: 1, Specs: map[string]model.ExtractedSpec{"price": {Value: "$10"}}},
		{ID: 2},
	}
	_ = Rank(vendors)
	assert.Equal(t, 0, vendors[0].SuitabilityScore)
	assert.Equal(t, 1, vendors[0].ID)
}
