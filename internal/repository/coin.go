package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/launchpool-backend/internal/models"
)

type CoinRepo struct {
	pool *pgxpool.Pool
}

func NewCoinRepo(pool *pgxpool.Pool) *CoinRepo {
	return &CoinRepo{pool: pool}
}

// ReplaceAll swaps the whole catalogue for coins in one transaction, so
// readers see either the old or the new listing.
func (r *CoinRepo) ReplaceAll(ctx context.Context, coins []models.Coin) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM coin`); err != nil {
		return fmt.Errorf("delete coins: %w", err)
	}

	now := time.Now()
	rows := make([][]any, len(coins))
	for i, c := range coins {
		rows[i] = []any{c.ID, c.Name, c.Symbol, nullable(c.Image), now}
	}
	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"coin"},
		[]string{"id", "name", "symbol", "image", "synced_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy coins: %w", err)
	}
	if int(n) != len(coins) {
		return fmt.Errorf("copy coins: wrote %d of %d rows", n, len(coins))
	}

	return tx.Commit(ctx)
}

func (r *CoinRepo) GetAll(ctx context.Context) ([]models.Coin, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, symbol, image FROM coin ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCoins(rows)
}

func (r *CoinRepo) GetByID(ctx context.Context, id string) (*models.Coin, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, symbol, image FROM coin WHERE id = $1`, id)
	c, err := scanCoin(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *CoinRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM coin`).Scan(&n)
	return n, err
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

func scanCoin(row scannable) (*models.Coin, error) {
	var (
		c     models.Coin
		image *string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Symbol, &image); err != nil {
		return nil, err
	}
	if image != nil {
		c.Image = *image
	}
	return &c, nil
}

func collectCoins(rows pgx.Rows) ([]models.Coin, error) {
	var out []models.Coin
	for rows.Next() {
		c, err := scanCoin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
