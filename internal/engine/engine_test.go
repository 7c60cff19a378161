package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popkes/cinematch/internal/llm"
	"github.com/popkes/cinematch/internal/storage/sqlite"
	"github.com/popkes/cinematch/pkg/types"
)

const testDim = 3

// fakeEmbedder maps canonical text onto fixed unit vectors by keyword, so
// tests control similarity without a live provider.
type fakeEmbedder struct {
	err   error
	calls []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "sci-fi"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(lower, "romance"):
		return []float32{0, 1, 0}, nil
	default:
		return []float32{0, 0, 1}, nil
	}
}

func (f *fakeEmbedder) GetModel() string { return "fake-embedder" }

// fakeGenerator returns a canned completion and records the prompt.
type fakeGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeGenerator) Complete(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeGenerator) GetModel() string { return "fake-generator" }

func newTestRecommender(t *testing.T, generator llm.TextGenerator) (*Recommender, *fakeEmbedder, *sqlite.CatalogStore) {
	t.Helper()
	store, err := sqlite.NewCatalogStore(":memory:", testDim)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	embedder := &fakeEmbedder{}
	return NewRecommender(store, embedder, generator), embedder, store
}

func seedCatalog(t *testing.T, r *Recommender) {
	t.Helper()
	year := 2010
	_, err := r.Ingest(context.Background(), []*types.Movie{
		{Title: "Inception", Year: &year, Genres: []string{"Sci-Fi"}, Description: "sci-fi dream heist"},
		{Title: "Notting Hill", Genres: []string{"Romance", "Comedy"}, Description: "romance in a bookshop"},
		{Title: "Grand Budapest", Description: "a concierge caper"},
	})
	require.NoError(t, err)
}

func TestIngest_ReturnsAffectedRows(t *testing.T) {
	r, embedder, _ := newTestRecommender(t, nil)

	year := 2010
	affected, err := r.Ingest(context.Background(), []*types.Movie{
		{Title: "Inception", Year: &year, Genres: []string{"Sci-Fi"}, Description: "dream heist"},
	})
	require.NoError(t, err)
	require.Len(t, affected, 1)
	assert.NotEmpty(t, affected[0].ID)
	assert.Equal(t, "Inception", affected[0].Title)

	// The embedder saw the canonical text, not raw fields.
	require.Len(t, embedder.calls, 1)
	assert.Contains(t, embedder.calls[0], "Title: Inception")
	assert.Contains(t, embedder.calls[0], "Year: 2010")
}

func TestIngest_Validation(t *testing.T) {
	r, embedder, _ := newTestRecommender(t, nil)

	_, err := r.Ingest(context.Background(), nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = r.Ingest(context.Background(), []*types.Movie{{Title: ""}})
	assert.ErrorIs(t, err, ErrValidation)

	// Rejected before any provider call.
	assert.Empty(t, embedder.calls)
}

func TestIngest_ProviderFailureAbortsWholeBatch(t *testing.T) {
	r, embedder, store := newTestRecommender(t, nil)
	embedder.err = fmt.Errorf("%w: quota exceeded", llm.ErrProvider)

	_, err := r.Ingest(context.Background(), []*types.Movie{
		{Title: "One"},
		{Title: "Two"},
	})
	require.ErrorIs(t, err, llm.ErrProvider)

	// No partial commit.
	n, countErr := store.Count(context.Background())
	require.NoError(t, countErr)
	assert.Equal(t, 0, n)
}

func TestIngest_Idempotent(t *testing.T) {
	r, _, store := newTestRecommender(t, nil)
	ctx := context.Background()

	m := &types.Movie{Title: "Inception", Description: "sci-fi dream heist"}
	first, err := r.Ingest(ctx, []*types.Movie{m})
	require.NoError(t, err)

	second, err := r.Ingest(ctx, []*types.Movie{m})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecommend_OrderedAboveThreshold(t *testing.T) {
	r, _, _ := newTestRecommender(t, nil)
	seedCatalog(t, r)

	results, err := r.Recommend(context.Background(), RecommendParams{
		Answers:   []string{"mind-bending sci-fi"},
		TopN:      5,
		Threshold: 0.25,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "Inception", results[0].Title)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
	}
	for _, c := range results {
		assert.GreaterOrEqual(t, c.Score, 0.25)
		assert.Nil(t, c.Why)
	}
}

func TestRecommend_HighThresholdReturnsEmptyNotError(t *testing.T) {
	r, _, _ := newTestRecommender(t, nil)

	// Catalog contains only a romance far from the sci-fi query.
	_, err := r.Ingest(context.Background(), []*types.Movie{
		{Title: "Notting Hill", Description: "romance in a bookshop"},
	})
	require.NoError(t, err)

	results, err := r.Recommend(context.Background(), RecommendParams{
		Answers:   []string{"mind-bending sci-fi"},
		TopN:      1,
		Threshold: 0.9,
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRecommend_OffsetBeyondMatchesReturnsEmpty(t *testing.T) {
	r, _, _ := newTestRecommender(t, nil)
	seedCatalog(t, r)

	results, err := r.Recommend(context.Background(), RecommendParams{
		Answers:   []string{"anything"},
		TopN:      5,
		Offset:    5,
		Threshold: 0,
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRecommend_PaginationWindow(t *testing.T) {
	r, _, _ := newTestRecommender(t, nil)
	seedCatalog(t, r)

	all, err := r.Recommend(context.Background(), RecommendParams{
		Answers: []string{"sci-fi"}, TopN: 3, Threshold: 0,
	})
	require.NoError(t, err)
	require.Len(t, all, 3)

	second, err := r.Recommend(context.Background(), RecommendParams{
		Answers: []string{"sci-fi"}, TopN: 1, Offset: 1, Threshold: 0,
	})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, all[1].Title, second[0].Title)
}

func TestRecommend_Validation(t *testing.T) {
	r, embedder, _ := newTestRecommender(t, nil)

	tests := []struct {
		name   string
		params RecommendParams
	}{
		{"no answers", RecommendParams{TopN: 5, Threshold: 0.25}},
		{"too many answers", RecommendParams{Answers: make([]string, 11), TopN: 5}},
		{"blank answer", RecommendParams{Answers: []string{"  "}, TopN: 5}},
		{"topN too small", RecommendParams{Answers: []string{"a"}, TopN: 0}},
		{"topN too large", RecommendParams{Answers: []string{"a"}, TopN: 51}},
		{"negative offset", RecommendParams{Answers: []string{"a"}, TopN: 5, Offset: -1}},
		{"offset too large", RecommendParams{Answers: []string{"a"}, TopN: 5, Offset: 501}},
		{"threshold below zero", RecommendParams{Answers: []string{"a"}, TopN: 5, Threshold: -0.1}},
		{"threshold above one", RecommendParams{Answers: []string{"a"}, TopN: 5, Threshold: 1.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Recommend(context.Background(), tt.params)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	// All rejected before any provider call.
	assert.Empty(t, embedder.calls)
}

func TestRecommend_RerankAttachesReasons(t *testing.T) {
	gen := &fakeGenerator{
		// Model reorders and uses different casing; only reasons survive.
		response: `{"rankings": [
			{"title": "notting hill", "reason": "warm and romantic"},
			{"title": "INCEPTION", "reason": "the dream heist you asked for"}
		]}`,
	}
	r, _, _ := newTestRecommender(t, gen)
	seedCatalog(t, r)

	plain, err := r.Recommend(context.Background(), RecommendParams{
		Answers: []string{"sci-fi"}, TopN: 3, Threshold: 0,
	})
	require.NoError(t, err)

	reranked, err := r.Recommend(context.Background(), RecommendParams{
		Answers: []string{"sci-fi"}, TopN: 3, Threshold: 0, Rerank: true,
	})
	require.NoError(t, err)
	require.Len(t, reranked, len(plain))

	// Order and scores are untouched by the rerank pass.
	for i := range plain {
		assert.Equal(t, plain[i].Title, reranked[i].Title)
		assert.Equal(t, plain[i].Score, reranked[i].Score)
	}

	byTitle := map[string]*string{}
	for _, c := range reranked {
		byTitle[c.Title] = c.Why
	}
	require.NotNil(t, byTitle["Inception"])
	assert.Equal(t, "the dream heist you asked for", *byTitle["Inception"])
	require.NotNil(t, byTitle["Notting Hill"])
	assert.Equal(t, "warm and romantic", *byTitle["Notting Hill"])
	assert.Nil(t, byTitle["Grand Budapest"])

	// The prompt carried the numbered listing and the profile.
	assert.Contains(t, gen.lastPrompt, "1. Inception")
	assert.Contains(t, gen.lastPrompt, "Q1: sci-fi")
}

func TestRecommend_RerankUnparsableResponseDegrades(t *testing.T) {
	gen := &fakeGenerator{response: "Sorry, I cannot produce JSON today."}
	r, _, _ := newTestRecommender(t, gen)
	seedCatalog(t, r)

	results, err := r.Recommend(context.Background(), RecommendParams{
		Answers: []string{"sci-fi"}, TopN: 3, Threshold: 0, Rerank: true,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, c := range results {
		assert.Nil(t, c.Why)
	}
}

func TestRecommend_RerankProviderFailureDegrades(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("completion timeout")}
	r, _, _ := newTestRecommender(t, gen)
	seedCatalog(t, r)

	results, err := r.Recommend(context.Background(), RecommendParams{
		Answers: []string{"sci-fi"}, TopN: 3, Threshold: 0, Rerank: true,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, c := range results {
		assert.Nil(t, c.Why)
	}
}

func TestRecommend_EmbedFailurePropagates(t *testing.T) {
	r, embedder, _ := newTestRecommender(t, nil)
	seedCatalog(t, r)
	embedder.err = fmt.Errorf("%w: auth", llm.ErrProvider)

	_, err := r.Recommend(context.Background(), RecommendParams{
		Answers: []string{"sci-fi"}, TopN: 5, Threshold: 0,
	})
	assert.ErrorIs(t, err, llm.ErrProvider)
}
