package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/launchpool-backend/internal/models"
)

type memStore struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	if m.setErr != nil {
		return redis.NewStatusResult("", m.setErr)
	}
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

type countingSource struct {
	calls   int
	samples []models.PriceSample
	err     error
}

func (s *countingSource) ReadPrices(_ context.Context, coin models.Coin, _ models.Currency, _, _ time.Time) ([]models.PriceSample, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.PriceSample, len(s.samples))
	for i, p := range s.samples {
		p.Coin = coin
		out[i] = p
	}
	return out, nil
}

var (
	btc  = models.Coin{ID: "bitcoin", Symbol: "btc"}
	from = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to   = from.Add(2 * time.Hour)
)

func TestKey(t *testing.T) {
	assert.Equal(t, "prices:usd:bitcoin:1704067200:1704074400", Key("bitcoin", models.USD, from, to))
}

func TestPriceCache_MissThenHit(t *testing.T) {
	store := newMemStore()
	src := &countingSource{samples: []models.PriceSample{
		{Price: 10000, Timestamp: from.Add(30 * time.Minute)},
		{Price: 20000, Timestamp: from.Add(90 * time.Minute)},
	}}
	c := NewPriceCache(store, src, 0)

	first, err := c.ReadPrices(context.Background(), btc, models.USD, from, to)
	require.NoError(t, err)
	second, err := c.ReadPrices(context.Background(), btc, models.USD, from, to)
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, DefaultTTL, store.ttls[Key("bitcoin", models.USD, from, to)])
}

func TestPriceCache_RedisDownFallsBack(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("connection refused")
	store.setErr = errors.New("connection refused")
	src := &countingSource{samples: []models.PriceSample{{Price: 1, Timestamp: from}}}

	samples, err := NewPriceCache(store, src, time.Minute).ReadPrices(context.Background(), btc, models.USD, from, to)
	require.NoError(t, err)
	assert.Len(t, samples, 1)
	assert.Equal(t, 1, src.calls)
}

func TestPriceCache_MalformedEntryIsRefetched(t *testing.T) {
	store := newMemStore()
	store.data[Key("bitcoin", models.USD, from, to)] = "{not json"
	src := &countingSource{samples: []models.PriceSample{{Price: 5, Timestamp: from}}}

	samples, err := NewPriceCache(store, src, time.Minute).ReadPrices(context.Background(), btc, models.USD, from, to)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 5.0, samples[0].Price)
	assert.JSONEq(t, `[{"t":1704067200000,"p":5}]`, store.data[Key("bitcoin", models.USD, from, to)])
}

func TestPriceCache_SourceErrorIsNotCached(t *testing.T) {
	store := newMemStore()
	src := &countingSource{err: errors.New("HTTP 502")}

	_, err := NewPriceCache(store, src, time.Minute).ReadPrices(context.Background(), btc, models.USD, from, to)
	assert.Error(t, err)
	assert.Empty(t, store.data)
}
