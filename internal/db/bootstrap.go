package db

import (
	"context"
	"fmt"
)

// Base tables the service depends on. Everything else is created by callers
// through the schema API.
var bootstrapStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS credits (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users (user_id),
		credits BIGINT NOT NULL DEFAULT 0,
		last_updated TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Bootstrap creates the users and credits tables when missing.
func Bootstrap(ctx context.Context, q Querier) error {
	for _, stmt := range bootstrapStatements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create base tables: %w", err)
		}
	}
	return nil
}
