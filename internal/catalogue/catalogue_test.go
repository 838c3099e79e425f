package catalogue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/launchpool-backend/internal/models"
)

type stubStore struct {
	coins []models.Coin
	err   error
}

func (s *stubStore) GetAll(context.Context) ([]models.Coin, error) { return s.coins, s.err }

func TestCatalogue_EmptyBeforeRefresh(t *testing.T) {
	c := New(&stubStore{})
	assert.Empty(t, c.Coins())
	assert.True(t, c.LoadedAt().IsZero())
	assert.Equal(t, models.Coin{ID: "bitcoin"}, c.Resolve("bitcoin"))
}

func TestCatalogue_RefreshSortsAndIndexes(t *testing.T) {
	store := &stubStore{coins: []models.Coin{
		{ID: "tether", Symbol: "usdt"},
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
	}}
	c := New(store)

	n, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, c.Len())
	assert.False(t, c.LoadedAt().IsZero())

	coins := c.Coins()
	assert.Equal(t, "bitcoin", coins[0].ID)
	assert.Equal(t, "tether", coins[1].ID)
	assert.Equal(t, "tether", store.coins[0].ID, "store slice must not be reordered")

	btc, ok := c.Lookup("bitcoin")
	require.True(t, ok)
	assert.Equal(t, "Bitcoin", btc.Name)
	assert.Equal(t, "Bitcoin", c.Resolve("bitcoin").Name)
}

func TestCatalogue_FailedRefreshKeepsSnapshot(t *testing.T) {
	store := &stubStore{coins: []models.Coin{{ID: "bitcoin"}}}
	c := New(store)
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	store.err = errors.New("db down")
	_, err = c.Refresh(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestCatalogue_CoinsReturnsCopy(t *testing.T) {
	c := New(&stubStore{coins: []models.Coin{{ID: "bitcoin"}}})
	_, _ = c.Refresh(context.Background())

	coins := c.Coins()
	coins[0].ID = "mutated"
	_, ok := c.Lookup("bitcoin")
	assert.True(t, ok)
	assert.Equal(t, "bitcoin", c.Coins()[0].ID)
}
