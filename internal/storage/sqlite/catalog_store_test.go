package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popkes/cinematch/internal/storage"
	"github.com/popkes/cinematch/pkg/types"
)

const testDim = 3

func newTestStore(t *testing.T) *CatalogStore {
	t.Helper()
	store, err := NewCatalogStore(":memory:", testDim)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func movie(title string, embedding []float32) *types.Movie {
	return &types.Movie{Title: title, Embedding: embedding}
}

func TestUpsert_AssignsIDs(t *testing.T) {
	store := newTestStore(t)

	affected, err := store.Upsert(context.Background(), []*types.Movie{
		movie("Inception", []float32{1, 0, 0}),
		movie("Heat", []float32{0, 1, 0}),
	})
	require.NoError(t, err)
	require.Len(t, affected, 2)

	assert.NotEmpty(t, affected[0].ID)
	assert.NotEmpty(t, affected[1].ID)
	assert.NotEqual(t, affected[0].ID, affected[1].ID)
	assert.Equal(t, "Inception", affected[0].Title)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUpsert_ReplaceSemantics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Upsert(ctx, []*types.Movie{movie("Inception", []float32{1, 0, 0})})
	require.NoError(t, err)
	id := first[0].ID

	// Same ID again with a new embedding: replaces, does not duplicate.
	updated := movie("Inception", []float32{0, 0, 1})
	updated.ID = id
	second, err := store.Upsert(ctx, []*types.Movie{updated})
	require.NoError(t, err)
	assert.Equal(t, id, second[0].ID)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// The stored embedding is the new one: the old vector no longer matches.
	results, err := store.SimilaritySearch(ctx, []float32{0, 0, 1}, 10, 0.9)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)
}

func TestUpsert_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch := []*types.Movie{movie("Arrival", []float32{1, 1, 0})}
	first, err := store.Upsert(ctx, batch)
	require.NoError(t, err)

	second, err := store.Upsert(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsert_Validation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = store.Upsert(ctx, []*types.Movie{movie("", []float32{1, 0, 0})})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = store.Upsert(ctx, []*types.Movie{movie("Wrong Dim", []float32{1, 0})})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestSimilaritySearch_OrderingAndThreshold(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	year := 2010
	movies := []*types.Movie{
		{Title: "Exact", Year: &year, Genres: []string{"Sci-Fi"}, Embedding: []float32{1, 0, 0}},
		{Title: "Close", Embedding: []float32{0.9, 0.1, 0}},
		{Title: "Orthogonal", Embedding: []float32{0, 1, 0}},
	}
	_, err := store.Upsert(ctx, movies)
	require.NoError(t, err)

	results, err := store.SimilaritySearch(ctx, []float32{1, 0, 0}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Exact", results[0].Title)
	assert.Equal(t, "Close", results[1].Title)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
	}
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.5)
	}

	// Display fields round-trip.
	require.NotNil(t, results[0].Year)
	assert.Equal(t, 2010, *results[0].Year)
	assert.Equal(t, []string{"Sci-Fi"}, results[0].Genres)
}

func TestSimilaritySearch_Limit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, []*types.Movie{
		movie("A", []float32{1, 0, 0}),
		movie("B", []float32{0.9, 0.1, 0}),
		movie("C", []float32{0.8, 0.2, 0}),
	})
	require.NoError(t, err)

	results, err := store.SimilaritySearch(ctx, []float32{1, 0, 0}, 2, 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSimilaritySearch_ThresholdOneMatchesOnlyEqualVectors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, []*types.Movie{
		movie("Romance Comedy", []float32{0, 1, 0}),
	})
	require.NoError(t, err)

	results, err := store.SimilaritySearch(ctx, []float32{1, 0, 0}, 1, 0.9)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSimilaritySearch_Validation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SimilaritySearch(ctx, []float32{1, 0}, 5, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = store.SimilaritySearch(ctx, []float32{1, 0, 0}, 0, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0, 0}, []float32{0, 1, 0}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3}))
}
