package engine

import (
	"context"
	"log"
	"strings"

	"github.com/popkes/cinematch/internal/llm"
	"github.com/popkes/cinematch/pkg/types"
)

// rerankMerge sends the windowed candidates and the profile text to the text
// generator and merges the parsed explanations back onto the candidates.
//
// The model's ranking is advisory only — it is not guaranteed deterministic or
// faithful to the similarity scores that drove retrieval, so candidate order
// and scores are never touched. Only the textual reasons are salvaged, and
// only where a case-insensitive title match exists. Unusable model output
// (provider failure, unparsable text) degrades to unexplained candidates.
func (r *Recommender) rerankMerge(ctx context.Context, profileText string, candidates []types.Candidate) []types.Candidate {
	if r.generator == nil {
		return candidates
	}

	prompt := llm.RerankPrompt(profileText, candidates)

	raw, err := r.generator.Complete(ctx, prompt)
	if err != nil {
		log.Printf("rerank: completion failed, returning unexplained candidates: %v", err)
		return candidates
	}

	entries := llm.ParseRerankResponse(raw)
	if entries == nil {
		log.Printf("rerank: unparsable response (%d bytes), returning unexplained candidates", len(raw))
		return candidates
	}

	for i := range candidates {
		for _, e := range entries {
			if strings.EqualFold(e.Title, candidates[i].Title) {
				reason := e.Reason
				candidates[i].Why = &reason
				break
			}
		}
	}

	return candidates
}
