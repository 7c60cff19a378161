// Package sqlite provides a SQLite implementation of the catalog store.
//
// SQLite has no native vector index, so similarity search loads the stored
// embeddings and computes cosine similarity in-process. That keeps the store
// fully embeddable (single file, or :memory: for tests) at the cost of a
// linear scan, which is fine at catalog sizes this backend is meant for.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/popkes/cinematch/internal/storage"
	"github.com/popkes/cinematch/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS movies (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    year INTEGER,
    genres TEXT,
    cast_members TEXT,
    description TEXT NOT NULL DEFAULT '',
    attributes TEXT,
    embedding TEXT NOT NULL,

    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_movies_title ON movies (title COLLATE NOCASE);
`

// CatalogStore implements storage.CatalogStore using SQLite.
type CatalogStore struct {
	db        *sql.DB
	dimension int
}

// NewCatalogStore opens a SQLite catalog store at the given path
// (":memory:" for an in-memory store) with the system embedding dimension.
func NewCatalogStore(path string, dimension int) (*CatalogStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// A single writer avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to apply schema: %w", err)
	}

	return &CatalogStore{db: db, dimension: dimension}, nil
}

// Upsert inserts or replaces movies as one transaction keyed by ID.
func (s *CatalogStore) Upsert(ctx context.Context, movies []*types.Movie) ([]types.UpsertedMovie, error) {
	if len(movies) == 0 {
		return nil, fmt.Errorf("%w: at least one movie is required", storage.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin upsert batch: %v", storage.ErrUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsertSQL = `
		INSERT INTO movies (id, title, year, genres, cast_members, description, attributes, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			year = excluded.year,
			genres = excluded.genres,
			cast_members = excluded.cast_members,
			description = excluded.description,
			attributes = excluded.attributes,
			embedding = excluded.embedding,
			updated_at = CURRENT_TIMESTAMP
	`

	affected := make([]types.UpsertedMovie, 0, len(movies))
	for _, m := range movies {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
		}
		if len(m.Embedding) != s.dimension {
			return nil, fmt.Errorf("%w: movie %q embedding has dimension %d, want %d",
				storage.ErrInvalidInput, m.Title, len(m.Embedding), s.dimension)
		}

		if m.ID == "" {
			m.ID = uuid.NewString()
		}

		genresJSON, err := marshalNullable(m.Genres)
		if err != nil {
			return nil, fmt.Errorf("sqlite: marshal genres: %w", err)
		}
		castJSON, err := marshalNullable(m.Cast)
		if err != nil {
			return nil, fmt.Errorf("sqlite: marshal cast: %w", err)
		}
		attrsJSON, err := marshalNullable(m.Attributes)
		if err != nil {
			return nil, fmt.Errorf("sqlite: marshal attributes: %w", err)
		}
		embeddingJSON, err := json.Marshal(m.Embedding)
		if err != nil {
			return nil, fmt.Errorf("sqlite: marshal embedding: %w", err)
		}

		var year interface{}
		if m.Year != nil {
			year = *m.Year
		}

		if _, err := tx.ExecContext(ctx, upsertSQL,
			m.ID, m.Title, year, genresJSON, castJSON, m.Description, attrsJSON, string(embeddingJSON),
		); err != nil {
			return nil, fmt.Errorf("%w: upsert movie %q: %v", storage.ErrUnavailable, m.Title, err)
		}

		affected = append(affected, types.UpsertedMovie{ID: m.ID, Title: m.Title})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit upsert batch: %v", storage.ErrUnavailable, err)
	}

	return affected, nil
}

// SimilaritySearch scans the catalog, scores every row by cosine similarity
// against the query vector, and returns the top limit rows at or above
// minScore in descending score order.
func (s *CatalogStore) SimilaritySearch(ctx context.Context, query []float32, limit int, minScore float64) ([]types.Candidate, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query vector has dimension %d, want %d",
			storage.ErrInvalidInput, len(query), s.dimension)
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidInput)
	}

	const querySQL = `
		SELECT id, title, year, genres, description, attributes, embedding
		FROM movies
	`

	rows, err := s.db.QueryContext(ctx, querySQL)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity scan: %v", storage.ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var candidates []types.Candidate
	for rows.Next() {
		var (
			c             types.Candidate
			year          sql.NullInt64
			genresJSON    sql.NullString
			attrsJSON     sql.NullString
			embeddingJSON string
		)
		if err := rows.Scan(&c.ID, &c.Title, &year, &genresJSON, &c.Description, &attrsJSON, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("sqlite: scan movie row: %w", err)
		}

		var embedding []float32
		if err := json.Unmarshal([]byte(embeddingJSON), &embedding); err != nil {
			return nil, fmt.Errorf("sqlite: unmarshal embedding for %s: %w", c.ID, err)
		}

		score := cosineSimilarity(query, embedding)
		if score < minScore {
			continue
		}
		c.Score = score

		if year.Valid {
			y := int(year.Int64)
			c.Year = &y
		}
		if genresJSON.Valid && genresJSON.String != "" {
			if err := json.Unmarshal([]byte(genresJSON.String), &c.Genres); err != nil {
				return nil, fmt.Errorf("sqlite: unmarshal genres: %w", err)
			}
		}
		if attrsJSON.Valid && attrsJSON.String != "" {
			if err := json.Unmarshal([]byte(attrsJSON.String), &c.Attributes); err != nil {
				return nil, fmt.Errorf("sqlite: unmarshal attributes: %w", err)
			}
		}

		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: similarity scan rows: %v", storage.ErrUnavailable, err)
	}

	// Stable sort keeps insertion order among equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

// Count returns the number of movies in the catalog.
func (s *CatalogStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count movies: %v", storage.ErrUnavailable, err)
	}
	return n, nil
}

// Close releases the database handle.
func (s *CatalogStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched lengths or zero-magnitude vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// marshalNullable marshals a slice or map to JSON, mapping empty values to NULL.
func marshalNullable(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case []string:
		if len(val) == 0 {
			return nil, nil
		}
	case map[string]interface{}:
		if len(val) == 0 {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Compile-time assertion.
var _ storage.CatalogStore = (*CatalogStore)(nil)
