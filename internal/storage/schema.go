package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/todmy/reasoning-engine/internal/errors"
)

// schemaStatements create the tables used by accounts and the analysis archive.
// %d is the embedding dimension.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reasoning_analyses (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		claim TEXT NOT NULL,
		reasoning_type TEXT NOT NULL,
		validity DOUBLE PRECISION NOT NULL,
		result JSONB NOT NULL,
		claim_embedding vector(%d),
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS reasoning_analyses_user_created_idx
		ON reasoning_analyses (user_id, created_at DESC)`,
}

// Migrate creates the schema if it does not exist
func Migrate(ctx context.Context, db *sql.DB, dimension int) error {
	for _, stmt := range schemaStatements {
		if strings.Contains(stmt, "%d") {
			stmt = fmt.Sprintf(stmt, dimension)
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.DatabaseError("failed to apply schema", err)
		}
	}
	return nil
}
