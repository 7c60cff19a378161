package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/popkes/cinematch/internal/canonical"
	"github.com/popkes/cinematch/pkg/types"
)

// Recommend runs the retrieval pipeline: canonicalize the answers into one
// profile string, embed it, ask the store for the topN+offset nearest movies
// above the similarity floor, then slice the pagination window.
//
// The store is over-fetched by offset because it has no native offset
// parameter — pagination happens here. When fewer than offset rows clear the
// threshold the window is empty; that is "no more matches", not an error.
func (r *Recommender) Recommend(ctx context.Context, params RecommendParams) ([]types.Candidate, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	profileText := canonical.ProfileText(params.Answers)

	queryVec, err := r.embedder.Embed(ctx, profileText)
	if err != nil {
		return nil, fmt.Errorf("embed preference profile: %w", err)
	}

	fetch := params.TopN + params.Offset
	candidates, err := r.store.SimilaritySearch(ctx, queryVec, fetch, params.Threshold)
	if err != nil {
		return nil, fmt.Errorf("similarity search (limit %d): %w", fetch, err)
	}

	window := paginate(candidates, params.Offset, params.TopN)

	if params.Rerank && len(window) > 0 {
		window = r.rerankMerge(ctx, profileText, window)
	}

	return window, nil
}

func validateParams(params RecommendParams) error {
	if len(params.Answers) == 0 {
		return fmt.Errorf("%w: at least one answer is required", ErrValidation)
	}
	if len(params.Answers) > MaxAnswers {
		return fmt.Errorf("%w: at most %d answers are allowed, got %d", ErrValidation, MaxAnswers, len(params.Answers))
	}
	for i, a := range params.Answers {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("%w: answer %d is empty", ErrValidation, i+1)
		}
	}
	if params.TopN < MinTopN || params.TopN > MaxTopN {
		return fmt.Errorf("%w: topN must be between %d and %d, got %d", ErrValidation, MinTopN, MaxTopN, params.TopN)
	}
	if params.Offset < MinOffset || params.Offset > MaxOffset {
		return fmt.Errorf("%w: offset must be between %d and %d, got %d", ErrValidation, MinOffset, MaxOffset, params.Offset)
	}
	if params.Threshold < 0 || params.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be between 0 and 1, got %g", ErrValidation, params.Threshold)
	}
	return nil
}

// paginate drops the first offset candidates and keeps up to topN thereafter.
func paginate(candidates []types.Candidate, offset, topN int) []types.Candidate {
	if offset >= len(candidates) {
		return []types.Candidate{}
	}
	window := candidates[offset:]
	if len(window) > topN {
		window = window[:topN]
	}
	return window
}
