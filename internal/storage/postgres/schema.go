// Package postgres provides a PostgreSQL + pgvector implementation of the
// catalog store.
package postgres

import "fmt"

// schema returns the SQL statements creating the catalog schema for the given
// embedding dimension. All statements are idempotent (IF NOT EXISTS) so the
// schema can be re-applied on every startup.
func schema(dimension int) string {
	return fmt.Sprintf(`
-- Movies table: catalog records with their canonical-text embeddings
CREATE TABLE IF NOT EXISTS movies (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    year INTEGER,
    genres JSONB,
    cast_members JSONB,
    description TEXT NOT NULL DEFAULT '',
    attributes JSONB,
    embedding vector(%d) NOT NULL,

    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- ivfflat accelerates the cosine-distance ORDER BY once the table is non-trivial
CREATE INDEX IF NOT EXISTS idx_movies_embedding_cosine
    ON movies USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);

CREATE INDEX IF NOT EXISTS idx_movies_title ON movies (lower(title));
`, dimension)
}
