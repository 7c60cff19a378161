// Package canonical turns structured movie records and free-text preference
// answers into the single embeddable strings used throughout the pipeline.
//
// Both functions are pure and deterministic: identical input always yields an
// identical string. The field order and inclusion rules in ItemText determine
// what the embedding model "sees", so the same function must be used for every
// ingested record.
package canonical

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/popkes/cinematch/pkg/types"
)

// profilePreamble opens every synthesized preference profile. It frames the
// numbered answers for the embedding model the same way on every request.
const profilePreamble = "A viewer described what they want to watch:"

// ItemText renders a movie record as one labeled, newline-separated string.
// Only non-empty fields are included; the title line is always present.
func ItemText(m *types.Movie) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Title: %s", m.Title)
	if m.Year != nil {
		fmt.Fprintf(&b, "\nYear: %d", *m.Year)
	}
	if len(m.Genres) > 0 {
		fmt.Fprintf(&b, "\nGenres: %s", strings.Join(m.Genres, ", "))
	}
	if len(m.Cast) > 0 {
		fmt.Fprintf(&b, "\nCast: %s", strings.Join(m.Cast, ", "))
	}
	if m.Description != "" {
		fmt.Fprintf(&b, "\nDescription: %s", m.Description)
	}
	if len(m.Attributes) > 0 {
		fmt.Fprintf(&b, "\nAttributes: %s", attributesText(m.Attributes))
	}

	return b.String()
}

// ProfileText renders an ordered list of free-text answers as one profile
// string: a fixed preamble followed by each answer on its own "Q<n>:" line.
func ProfileText(answers []string) string {
	var b strings.Builder

	b.WriteString(profilePreamble)
	for i, answer := range answers {
		fmt.Fprintf(&b, "\nQ%d: %s", i+1, answer)
	}

	return b.String()
}

// attributesText serializes an attributes map with lexicographically sorted
// keys. Map iteration order is not stable, so sorting is what keeps ItemText
// reproducible for records carrying attributes.
func attributesText(attrs map[string]interface{}) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, attributeValue(attrs[k])))
	}

	return strings.Join(parts, "; ")
}

// attributeValue renders a single attribute value. Strings are emitted bare;
// everything else (numbers, bools, nested arrays/objects, null) goes through
// encoding/json, which sorts object keys and is therefore deterministic.
func attributeValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
