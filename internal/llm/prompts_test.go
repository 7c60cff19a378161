package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/popkes/cinematch/pkg/types"
)

func intPtr(n int) *int { return &n }

func TestRerankPrompt(t *testing.T) {
	candidates := []types.Candidate{
		{Title: "Inception", Year: intPtr(2010), Genres: []string{"Sci-Fi", "Thriller"}},
		{Title: "Before Sunrise", Year: intPtr(1995)},
		{Title: "Untitled Indie"},
	}

	prompt := RerankPrompt("Q1: mind-bending sci-fi", candidates)

	assert.Contains(t, prompt, "1. Inception (2010) [Sci-Fi, Thriller]")
	assert.Contains(t, prompt, "2. Before Sunrise (1995)")
	assert.Contains(t, prompt, "3. Untitled Indie")
	assert.Contains(t, prompt, "Q1: mind-bending sci-fi")
	assert.Contains(t, prompt, `{"rankings":`)
	assert.Contains(t, prompt, "ONLY valid JSON")
}

func TestRerankPrompt_PreservesCandidateOrder(t *testing.T) {
	candidates := []types.Candidate{
		{Title: "Second", Score: 0.5},
		{Title: "First", Score: 0.9},
	}

	prompt := RerankPrompt("profile", candidates)

	// Listing follows retrieval order, not score or alphabetical order.
	assert.Less(t, indexOf(t, prompt, "1. Second"), indexOf(t, prompt, "2. First"))
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	idx := -1
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			idx = i
			break
		}
	}
	assert.GreaterOrEqual(t, idx, 0, "expected %q in prompt", needle)
	return idx
}
