package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Fetal Bovine Serum, 500ml", "fetal-bovine-serum-500ml"},
		{"  E.coli hcDNA Kits; Cat #: 4458435  ", "ecoli-hcdna-kits-cat-4458435"},
		{"Küvetten für Photometer", "kuvetten-fur-photometer"},
		{"---", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "input %q", tt.in)
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	s := Slugify("Fetal Bovine Serum, 500ml")
	assert.Equal(t, s, Slugify(s))
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "fetal bovine serum, 500ml", NormalizeKey("  Fetal Bovine Serum, 500ml "))
}

func TestIsValidSpecValue(t *testing.T) {
	for _, v := range []string{"", "NA", "n/a", "Unknown", "not available", "  na  "} {
		assert.False(t, IsValidSpecValue(v), "value %q", v)
	}
	assert.True(t, IsValidSpecValue("$450 per 500ml"))
	assert.True(t, IsValidSpecValue("0"))
}

func TestExtractedSpecHasValue(t *testing.T) {
	assert.True(t, ExtractedSpec{Value: "$450"}.HasValue())
	assert.False(t, ExtractedSpec{Value: "$450", NotFound: true}.HasValue())
	assert.False(t, ExtractedSpec{Value: "NA"}.HasValue())
}

func TestQueryVersionLookup(t *testing.T) {
	q := Query{
		Slug:           "fbs",
		QueryText:      "Fetal Bovine Serum",
		CurrentVersion: 2,
		Versions: []Version{
			{Number: 1},
			{Number: 2, Vendors: []VendorRecord{{ID: 1}, {ID: 2}}},
		},
	}

	require.NotNil(t, q.Version(2))
	assert.Len(t, q.Version(2).Vendors, 2)
	assert.Nil(t, q.Version(3))

	s := q.Summary()
	assert.Equal(t, 2, s.VersionCount)
	assert.Equal(t, 2, s.VendorCount)
}

func TestVersionSummaryTotals(t *testing.T) {
	v := Version{
		Number:    3,
		CreatedAt: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Vendors:   []VendorRecord{{ID: 1}},
	}
	v.Stats.Totals.TotalTokens = 9100
	v.Stats.TotalCostUSD = 0.38

	s := v.Summary()
	assert.Equal(t, 3, s.Number)
	assert.Equal(t, 1, s.VendorCount)
	assert.Equal(t, 9100, s.TotalTokens)
	assert.Equal(t, 0.38, s.CostUSD)
}

func TestBaseAttributes(t *testing.T) {
	attrs := BaseAttributes()
	require.Len(t, attrs, 8)
	assert.Equal(t, "price", attrs[0].Key)

	keys := make(map[string]bool)
	for _, a := range attrs {
		assert.NotEmpty(t, a.DisplayName, "attribute %s", a.Key)
		assert.NotEmpty(t, a.Aliases, "attribute %s", a.Key)
		assert.False(t, keys[a.Key], "duplicate key %s", a.Key)
		keys[a.Key] = true
	}
}

func TestMergeAttributes(t *testing.T) {
	base := []ComparisonAttribute{{Key: "price"}, {Key: "storage_condition"}}
	extras := []ComparisonAttribute{
		{Key: "price", DisplayName: "shadowed"},
		{Key: "origin", DisplayName: "Origin"},
		{Key: ""},
	}

	merged := MergeAttributes(base, extras)
	require.Len(t, merged, 3)
	assert.Equal(t, "price", merged[0].Key)
	assert.Empty(t, merged[0].DisplayName, "base wins on duplicate key")
	assert.Equal(t, "origin", merged[2].Key)
}

func TestFormatAttributesForPrompt_CapsAliases(t *testing.T) {
	attr := ComparisonAttribute{
		Key:         "price",
		DisplayName: "Price",
		Description: "Unit price",
		Aliases:     []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9"},
	}

	out := FormatAttributesForPrompt([]ComparisonAttribute{attr})
	assert.Contains(t, out, "price (Price): Unit price")
	assert.Contains(t, out, "a8")
	assert.NotContains(t, out, "a9")
}
