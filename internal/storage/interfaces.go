// Package storage defines the catalog store contract for the CineMatch
// recommendation service. Backends implement batch upsert with identifier
// assignment and top-K cosine similarity search with a server-side similarity
// floor; everything else (pagination windows, rerank) happens above this layer.
package storage

import (
	"context"
	"errors"

	"github.com/popkes/cinematch/pkg/types"
)

var (
	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable indicates that the store could not serve the operation
	// (connectivity loss, constraint violation, backend failure).
	ErrUnavailable = errors.New("store unavailable")
)

// CatalogStore persists movie records with their embeddings and answers
// similarity queries against them.
type CatalogStore interface {
	// Upsert inserts or replaces the given movies as a single atomic batch,
	// keyed by ID. Movies without an ID are assigned one. Replace semantics:
	// an existing ID has all fields, including the embedding, overwritten.
	// Returns the affected {id, title} rows in store order.
	Upsert(ctx context.Context, movies []*types.Movie) ([]types.UpsertedMovie, error)

	// SimilaritySearch returns up to limit movies ordered by descending cosine
	// similarity to the query vector, including only rows whose similarity is
	// >= minScore. Candidates come back with Why unset.
	SimilaritySearch(ctx context.Context, query []float32, limit int, minScore float64) ([]types.Candidate, error)

	// Count returns the number of movies in the catalog.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
