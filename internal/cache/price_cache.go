// Package cache keeps fetched price series in Redis so repeated calculations
// over the same period do not hit CoinGecko again.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/kjannette/launchpool-backend/internal/calculator"
	"github.com/kjannette/launchpool-backend/internal/logger"
	"github.com/kjannette/launchpool-backend/internal/metrics"
	"github.com/kjannette/launchpool-backend/internal/models"
)

const DefaultTTL = 10 * time.Minute

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// PriceCache is a calculator.PriceSource that serves from Redis and falls
// back to the wrapped source. Redis failures degrade to the fallback.
type PriceCache struct {
	store Store
	next  calculator.PriceSource
	ttl   time.Duration
	log   *logrus.Entry
}

var _ calculator.PriceSource = (*PriceCache)(nil)

func NewPriceCache(store Store, next calculator.PriceSource, ttl time.Duration) *PriceCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PriceCache{store: store, next: next, ttl: ttl, log: logger.WithComponent("price_cache")}
}

type cachedPoint struct {
	T int64   `json:"t"`
	P float64 `json:"p"`
}

func Key(coinID string, currency models.Currency, from, to time.Time) string {
	return fmt.Sprintf("prices:%s:%s:%d:%d", currency.Code(), coinID, from.Unix(), to.Unix())
}

func (c *PriceCache) ReadPrices(ctx context.Context, coin models.Coin, currency models.Currency, from, to time.Time) ([]models.PriceSample, error) {
	key := Key(coin.ID, currency, from, to)
	log := c.log.WithField("key", key)

	data, err := c.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var points []cachedPoint
		if err := json.Unmarshal(data, &points); err == nil {
			metrics.PriceCache.WithLabelValues("hit").Inc()
			return fromPoints(points, coin), nil
		}
		log.WithError(err).Warn("discarding malformed cache entry")
		metrics.PriceCache.WithLabelValues("miss").Inc()
	case errors.Is(err, redis.Nil):
		metrics.PriceCache.WithLabelValues("miss").Inc()
	default:
		log.WithError(err).Warn("redis get failed")
		metrics.PriceCache.WithLabelValues("error").Inc()
	}

	samples, err := c.next.ReadPrices(ctx, coin, currency, from, to)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(toPoints(samples))
	if err != nil {
		return samples, nil
	}
	if err := c.store.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		log.WithError(err).Warn("redis set failed")
	}
	return samples, nil
}

func toPoints(samples []models.PriceSample) []cachedPoint {
	points := make([]cachedPoint, len(samples))
	for i, s := range samples {
		points[i] = cachedPoint{T: s.Timestamp.UnixMilli(), P: s.Price}
	}
	return points
}

func fromPoints(points []cachedPoint, coin models.Coin) []models.PriceSample {
	samples := make([]models.PriceSample, len(points))
	for i, p := range points {
		samples[i] = models.PriceSample{Price: p.P, Timestamp: time.UnixMilli(p.T).UTC(), Coin: coin}
	}
	return samples
}
