package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procurelabs/vendor-research-cli/internal/model"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "research.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_VersionNumbering(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		n, err := s.SaveVersion(ctx, "Fetal Bovine Serum", sampleVersion("enriched", i))
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	q, v, err := s.LoadCurrent(ctx, "fetal bovine serum")
	require.NoError(t, err)
	assert.Equal(t, 3, q.CurrentVersion)
	assert.Equal(t, 3, v.Number)
	assert.Len(t, v.Vendors, 3)
}

func TestSQLiteStore_ConcurrentSameKeySaves(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	const writers = 8
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		go func(n int) {
			_, err := s.SaveVersion(ctx, "Fetal Bovine Serum", sampleVersion("enriched", n))
			errs <- err
		}(i + 1)
	}
	for i := 0; i < writers; i++ {
		require.NoError(t, <-errs)
	}

	// Racing writers serialize: numbers come out gapless 1..N and the
	// pointer lands on the last one.
	summaries, err := s.ListVersions(ctx, "fetal bovine serum")
	require.NoError(t, err)
	require.Len(t, summaries, writers)
	for i, vs := range summaries {
		assert.Equal(t, i+1, vs.Number)
	}

	q, _, err := s.LoadCurrent(ctx, "fetal bovine serum")
	require.NoError(t, err)
	assert.Equal(t, writers, q.CurrentVersion)
}

func TestSQLiteStore_RoundTripPayload(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	score := 0.9
	in := &model.Version{
		EnrichedQuery: "Nitrile exam gloves, size M, powder-free",
		Attributes:    model.BaseAttributes(),
		Vendors: []model.VendorRecord{
			{
				ID:                  1,
				VendorName:          "Kimberly-Clark",
				ProductURL:          "https://example.com/gloves",
				RecommendationScore: &score,
				Specs: map[string]model.ExtractedSpec{
					"price": {Value: "$12.99 / 100ct"},
				},
			},
		},
	}
	_, err := s.SaveVersion(ctx, "nitrile gloves", in)
	require.NoError(t, err)

	_, v, err := s.LoadCurrent(ctx, "nitrile gloves")
	require.NoError(t, err)
	assert.Equal(t, in.EnrichedQuery, v.EnrichedQuery)
	require.Len(t, v.Vendors, 1)
	assert.Equal(t, "Kimberly-Clark", v.Vendors[0].VendorName)
	require.NotNil(t, v.Vendors[0].RecommendationScore)
	assert.InDelta(t, 0.9, *v.Vendors[0].RecommendationScore, 0.0001)
	assert.Equal(t, "$12.99 / 100ct", v.Vendors[0].Specs["price"].Value)
	assert.Len(t, v.Attributes, 8)
}

func TestSQLiteStore_LoadVersion(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	_, err := s.SaveVersion(ctx, "q", sampleVersion("first", 1))
	require.NoError(t, err)
	_, err = s.SaveVersion(ctx, "q", sampleVersion("second", 2))
	require.NoError(t, err)

	_, v1, err := s.LoadVersion(ctx, "q", 1)
	require.NoError(t, err)
	assert.Equal(t, "first", v1.EnrichedQuery)

	_, _, err = s.LoadVersion(ctx, "q", 7)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLiteStore_LookupBySlug(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	_, err := s.SaveVersion(ctx, "Fetal Bovine Serum, 500mL", sampleVersion("e", 1))
	require.NoError(t, err)

	q, _, err := s.LoadCurrent(ctx, "fetal-bovine-serum-500ml")
	require.NoError(t, err)
	assert.Equal(t, "Fetal Bovine Serum, 500mL", q.QueryText)
}

func TestSQLiteStore_ListVersions(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	_, err := s.SaveVersion(ctx, "q", sampleVersion("e", 1))
	require.NoError(t, err)
	_, err = s.SaveVersion(ctx, "q", sampleVersion("e", 4))
	require.NoError(t, err)

	versions, err := s.ListVersions(ctx, "q")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[0].Number)
	assert.Equal(t, 4, versions[1].VendorCount)
}

func TestSQLiteStore_ListQueries(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	_, err := s.SaveVersion(ctx, "alpha", sampleVersion("e", 2))
	require.NoError(t, err)
	_, err = s.SaveVersion(ctx, "beta", sampleVersion("e", 3))
	require.NoError(t, err)

	queries, err := s.ListQueries(ctx)
	require.NoError(t, err)
	require.Len(t, queries, 2)
	for _, qs := range queries {
		assert.Equal(t, 1, qs.VersionCount)
		assert.Equal(t, 1, qs.CurrentVersion)
	}
}

func TestSQLiteStore_NotFound(t *testing.T) {
	s := newSQLiteStore(t)
	_, _, err := s.LoadCurrent(context.Background(), "missing")
	assert.True(t, eris.Is(err, ErrNotFound))
}
