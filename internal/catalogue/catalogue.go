// Package catalogue serves the synced coin listing from memory.
package catalogue

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kjannette/launchpool-backend/internal/models"
)

// CoinStore is where the listing is persisted by the sync job.
type CoinStore interface {
	GetAll(ctx context.Context) ([]models.Coin, error)
}

type snapshot struct {
	coins    []models.Coin
	byID     map[string]models.Coin
	loadedAt time.Time
}

// Catalogue holds an immutable snapshot of the coin listing. Refresh swaps
// the snapshot atomically, so readers never block.
type Catalogue struct {
	store CoinStore
	snap  atomic.Pointer[snapshot]
}

func New(store CoinStore) *Catalogue {
	c := &Catalogue{store: store}
	c.snap.Store(&snapshot{byID: map[string]models.Coin{}})
	return c
}

func (c *Catalogue) Refresh(ctx context.Context) (int, error) {
	coins, err := c.store.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load coins: %w", err)
	}

	coins = slices.Clone(coins)
	slices.SortFunc(coins, func(a, b models.Coin) int { return strings.Compare(a.ID, b.ID) })
	byID := make(map[string]models.Coin, len(coins))
	for _, coin := range coins {
		byID[coin.ID] = coin
	}

	c.snap.Store(&snapshot{coins: coins, byID: byID, loadedAt: time.Now()})
	return len(coins), nil
}

// Coins returns the listing ordered by ID. The slice is a copy.
func (c *Catalogue) Coins() []models.Coin {
	return slices.Clone(c.snap.Load().coins)
}

func (c *Catalogue) Len() int { return len(c.snap.Load().coins) }

// LoadedAt is the zero time until the first successful Refresh.
func (c *Catalogue) LoadedAt() time.Time { return c.snap.Load().loadedAt }

func (c *Catalogue) Lookup(id string) (models.Coin, bool) {
	coin, ok := c.snap.Load().byID[id]
	return coin, ok
}

// Resolve returns the listed coin for id, or a coin carrying only the ID
// when it is not listed yet.
func (c *Catalogue) Resolve(id string) models.Coin {
	if coin, ok := c.Lookup(id); ok {
		return coin
	}
	return models.Coin{ID: id}
}
