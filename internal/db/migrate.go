package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS coin (
		id        TEXT PRIMARY KEY,
		name      TEXT NOT NULL,
		symbol    VARCHAR(20) NOT NULL,
		image     VARCHAR(1000),
		synced_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS coin_symbol_idx ON coin (symbol)`,
}

// Migrate creates the schema if it does not exist. Every statement is
// idempotent, so it runs on each start.
func Migrate(ctx context.Context, p *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := p.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
