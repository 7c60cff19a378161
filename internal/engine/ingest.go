package engine

import (
	"context"
	"fmt"

	"github.com/popkes/cinematch/internal/canonical"
	"github.com/popkes/cinematch/pkg/types"
)

// Ingest canonicalizes and embeds each movie, then submits the whole batch to
// the catalog store as a single upsert keyed by ID (records without an ID are
// inserted with a fresh one).
//
// Embeddings are computed strictly one record at a time in input order. That
// trades throughput for predictable provider rate-limit behavior; correctness
// does not depend on it. Any provider failure aborts the whole call before
// anything is written, and a store failure aborts the batch — there is no
// partial commit.
func (r *Recommender) Ingest(ctx context.Context, movies []*types.Movie) ([]types.UpsertedMovie, error) {
	if len(movies) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	for i, m := range movies {
		if m == nil {
			return nil, fmt.Errorf("%w: item %d is null", ErrValidation, i)
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrValidation, i, err)
		}
	}

	for i, m := range movies {
		text := canonical.ItemText(m)

		embedding, err := r.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed item %d (%q): %w", i, m.Title, err)
		}
		m.Embedding = embedding
	}

	affected, err := r.store.Upsert(ctx, movies)
	if err != nil {
		return nil, fmt.Errorf("upsert batch of %d: %w", len(movies), err)
	}

	return affected, nil
}
