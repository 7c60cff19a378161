// Package llm provides the model provider clients used by the recommendation
// pipeline: an embedding generator for catalog and profile vectors, and a text
// generator for the optional rerank explanation pass. Prompts are strict
// JSON-only templates paired with tolerant response parsers.
package llm

import (
	"fmt"
	"strings"

	"github.com/popkes/cinematch/pkg/types"
)

// RerankPrompt builds the strict JSON-only prompt asking the model to rank an
// already-retrieved candidate list against the viewer's preference profile and
// justify each pick. Candidates are listed in their retrieval order with
// 1-based indexes; the model's ordering is advisory only — the caller keeps
// the similarity ranking and salvages just the reasons.
func RerankPrompt(profileText string, candidates []types.Candidate) string {
	var listing strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&listing, "%d. %s", i+1, c.Title)
		if c.Year != nil {
			fmt.Fprintf(&listing, " (%d)", *c.Year)
		}
		if len(c.Genres) > 0 {
			fmt.Fprintf(&listing, " [%s]", strings.Join(c.Genres, ", "))
		}
		listing.WriteString("\n")
	}

	return fmt.Sprintf(`TASK: Rank the movies below from best to worst match for the viewer, with a one-sentence reason each.
OUTPUT: ONLY valid JSON. NO markdown. NO code blocks. NO backticks.

VIEWER PREFERENCES:
%s

MOVIES:
%s
REQUIRED JSON STRUCTURE:
{"rankings": [{"title": "exact movie title from the list", "reason": "one sentence"}]}

RULES:
- Use every movie from the list exactly once.
- Copy titles exactly as written.
- "reason" explains the match against the viewer preferences.`, profileText, listing.String())
}
