package postgres

import (
	"context"
	"fmt"
)

// Migrate bootstraps the schema. Idempotent; mirrors what a fresh deployment
// needs, including the pgvector extension and embedding columns sized to the
// deployed model dimension.
func Migrate(ctx context.Context, pool PgxPool, embeddingDim int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS resumes (
			id UUID PRIMARY KEY,
			filename TEXT NOT NULL,
			content_type TEXT,
			storage_path TEXT NOT NULL,
			status TEXT NOT NULL,
			raw_text TEXT,
			clean_text TEXT,
			parsed_json JSONB,
			embedding vector(%d),
			embedding_model TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, embeddingDim),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS job_descriptions (
			id UUID PRIMARY KEY,
			title TEXT,
			content TEXT NOT NULL,
			clean_text TEXT NOT NULL,
			embedding vector(%d),
			embedding_model TEXT,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, embeddingDim),
		`CREATE INDEX IF NOT EXISTS resumes_status_idx ON resumes (status)`,
	}
	for _, q := range stmts {
		if _, err := pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("op=postgres.migrate: %w", err)
		}
	}
	return nil
}
