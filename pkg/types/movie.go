// Package types contains the core domain types shared across the CineMatch
// recommendation service.
package types

import (
	"errors"
	"fmt"
)

// Movie represents one recommendable title in the catalog.
//
// ID is assigned by the catalog store on first insert when empty and is stable
// across updates. Embedding is derived from the canonical text at ingestion
// time and is never supplied by callers.
type Movie struct {
	ID          string                 `json:"id,omitempty"`
	Title       string                 `json:"title"`
	Year        *int                   `json:"year,omitempty"`
	Genres      []string               `json:"genres,omitempty"`
	Cast        []string               `json:"cast,omitempty"`
	Description string                 `json:"description,omitempty"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
	Embedding   []float32              `json:"-"`
}

// ErrEmptyTitle indicates a movie record without a title.
var ErrEmptyTitle = errors.New("movie title is required")

// Validate checks the structural constraints on a movie record.
func (m *Movie) Validate() error {
	if m.Title == "" {
		return ErrEmptyTitle
	}
	return nil
}

// UpsertedMovie identifies one row affected by a catalog upsert.
type UpsertedMovie struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Candidate is a single recommendation: the movie's displayable fields plus
// the cosine similarity score against the query vector. Why is populated only
// when the rerank pass found a matching explanation; it never affects order
// or score.
type Candidate struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Year        *int                   `json:"year,omitempty"`
	Genres      []string               `json:"genres,omitempty"`
	Description string                 `json:"description,omitempty"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
	Score       float64                `json:"score"`
	Why         *string                `json:"why"`
}

// String returns a short human-readable form used in logs.
func (c Candidate) String() string {
	if c.Year != nil {
		return fmt.Sprintf("%s (%d) score=%.3f", c.Title, *c.Year, c.Score)
	}
	return fmt.Sprintf("%s score=%.3f", c.Title, c.Score)
}
