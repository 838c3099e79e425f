package repository_test

import (
	"context"
	"testing"

	"github.com/kjannette/launchpool-backend/internal/models"
	"github.com/kjannette/launchpool-backend/internal/repository"
	"github.com/kjannette/launchpool-backend/internal/testutil"
)

// ---------- CoinRepo ----------

func TestCoinRepo(t *testing.T) {
	pool := testutil.SetupPool(t)
	ctx := context.Background()
	repo := repository.NewCoinRepo(pool)

	// ReplaceAll
	first := []models.Coin{
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "btc", Image: "https://img/btc.png"},
		{ID: "ethereum", Name: "Ethereum", Symbol: "eth"},
	}
	if err := repo.ReplaceAll(ctx, first); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 coins, got %d", n)
	}

	// GetByID
	c, err := repo.GetByID(ctx, "bitcoin")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if c == nil || c.Image != "https://img/btc.png" {
		t.Fatalf("unexpected coin: %+v", c)
	}

	missing, err := repo.GetByID(ctx, "no-such-coin")
	if err != nil {
		t.Fatalf("GetByID missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing coin, got %+v", missing)
	}

	// ReplaceAll drops coins absent from the new listing
	second := []models.Coin{
		{ID: "tether", Name: "Tether", Symbol: "usdt"},
		{ID: "ethereum", Name: "Ethereum", Symbol: "eth", Image: "https://img/eth.png"},
	}
	if err := repo.ReplaceAll(ctx, second); err != nil {
		t.Fatalf("ReplaceAll second: %v", err)
	}

	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 coins after replace, got %d", len(all))
	}
	if all[0].ID != "ethereum" || all[1].ID != "tether" {
		t.Fatalf("expected id order, got %s, %s", all[0].ID, all[1].ID)
	}
	if all[0].Image != "https://img/eth.png" {
		t.Fatalf("image not updated: %q", all[0].Image)
	}
	t.Logf("GetAll: %d coins", len(all))

	// Empty listing clears the table
	if err := repo.ReplaceAll(ctx, nil); err != nil {
		t.Fatalf("ReplaceAll empty: %v", err)
	}
	if n, _ := repo.Count(ctx); n != 0 {
		t.Fatalf("expected empty table, got %d", n)
	}
}
