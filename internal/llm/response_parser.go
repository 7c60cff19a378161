package llm

import (
	"encoding/json"
	"strings"
)

// RankedEntry is a single {title, reason} pair parsed from a rerank response.
type RankedEntry struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// rerankResponse is the expected shape of the rerank completion.
type rerankResponse struct {
	Rankings []RankedEntry `json:"rankings"`
}

// ParseRerankResponse parses a rerank completion into its ranked entries.
// Models add prose and markdown fences despite instructions, so the raw text
// is scanned for the first complete JSON object before decoding. A bare JSON
// array of entries is also accepted. Entries without a title are dropped.
//
// Returns nil (not an error) when no usable JSON is present — the caller
// degrades to unexplained candidates rather than failing the request.
func ParseRerankResponse(text string) []RankedEntry {
	cleaned := extractJSON(text)

	var resp rerankResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err == nil && len(resp.Rankings) > 0 {
		return validEntries(resp.Rankings)
	}

	// Some models ignore the wrapper object and emit the array directly.
	var entries []RankedEntry
	if err := json.Unmarshal([]byte(cleaned), &entries); err == nil {
		return validEntries(entries)
	}

	return nil
}

func validEntries(entries []RankedEntry) []RankedEntry {
	valid := make([]RankedEntry, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Title) == "" {
			continue
		}
		valid = append(valid, e)
	}
	if len(valid) == 0 {
		return nil
	}
	return valid
}

// extractJSON extracts the first valid JSON object or array from a string that
// may contain extra text. This handles cases where LLMs add explanations
// before/after the JSON despite instructions.
func extractJSON(text string) string {
	// Remove common markdown code block markers
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")

	start := objStart
	open, close := byte('{'), byte('}')
	if start == -1 || (arrStart != -1 && arrStart < objStart) {
		start = arrStart
		open, close = '[', ']'
	}
	if start == -1 {
		return text // no JSON found, return as-is and let the parser fail
	}

	// Find the matching closing bracket, skipping string contents.
	depth := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]

		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			switch char {
			case open:
				depth++
			case close:
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	return text // no complete JSON found, return as-is
}
