// Package engine implements the two pipelines at the heart of CineMatch:
// ingestion (canonicalize, embed, batch-upsert) and retrieval (embed the
// preference profile, similarity-search the catalog, window the results,
// optionally annotate them with rerank explanations).
package engine

import (
	"errors"

	"github.com/popkes/cinematch/internal/llm"
	"github.com/popkes/cinematch/internal/storage"
)

// ErrValidation indicates malformed or out-of-range caller input. It is
// rejected before any provider or store call, so it never has side effects.
var ErrValidation = errors.New("validation failed")

// Parameter bounds and defaults for a recommendation request.
const (
	MaxAnswers = 10

	MinTopN     = 1
	MaxTopN     = 50
	DefaultTopN = 5

	MinOffset = 0
	MaxOffset = 500

	DefaultThreshold = 0.25
)

// RecommendParams carries a single recommendation request through the
// retrieval pipeline. Callers apply defaults before handing it over;
// Recommend only validates ranges.
type RecommendParams struct {
	// Answers is the ordered list of free-text preference answers (1..10).
	Answers []string

	// TopN is the number of results desired (1..50).
	TopN int

	// Offset is the pagination skip (0..500).
	Offset int

	// Threshold is the minimum cosine similarity (0..1). 0 disables the
	// floor; 1 demands near-exact vector equality.
	Threshold float64

	// Rerank requests the explanation pass over the paginated window.
	Rerank bool
}

// Recommender wires the providers and the catalog store into the ingestion
// and retrieval pipelines. The handles are resolved once at startup and
// injected; they are never mutated afterwards.
type Recommender struct {
	store     storage.CatalogStore
	embedder  llm.EmbeddingGenerator
	generator llm.TextGenerator
}

// NewRecommender creates a Recommender over the given store and providers.
// The generator may be nil when rerank support is not configured; rerank
// requests then degrade to unexplained candidates.
func NewRecommender(store storage.CatalogStore, embedder llm.EmbeddingGenerator, generator llm.TextGenerator) *Recommender {
	return &Recommender{
		store:     store,
		embedder:  embedder,
		generator: generator,
	}
}
