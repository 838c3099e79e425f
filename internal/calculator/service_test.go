package calculator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/launchpool-backend/internal/models"
)

type fetchCall struct {
	coin     string
	currency models.Currency
	from, to time.Time
}

type fakePriceSource struct {
	mu      sync.Mutex
	samples map[string][]models.PriceSample
	err     error
	calls   []fetchCall
}

func (f *fakePriceSource) ReadPrices(_ context.Context, coin models.Coin, currency models.Currency, from, to time.Time) ([]models.PriceSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{coin: coin.ID, currency: currency, from: from, to: to})
	if f.err != nil {
		return nil, f.err
	}
	return f.samples[coin.ID], nil
}

func TestService_FetchesOncePerCoinWithPadding(t *testing.T) {
	src := &fakePriceSource{samples: map[string][]models.PriceSample{
		btc.ID: {sample(10000, at(30*time.Minute), btc), sample(20000, at(90*time.Minute), btc)},
	}}
	svc := NewService(New(), src)

	req := Request{
		From: t0,
		To:   at(2 * time.Hour),
		Transactions: []models.Transaction{
			deposit(at(30*time.Minute), btc, 1),
			deposit(at(40*time.Minute), btc, 1),
			withdraw(at(50*time.Minute), btc, 1),
		},
	}
	res, err := svc.AverageBalance(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 15000.0, res.Average)

	require.Len(t, src.calls, 1)
	assert.Equal(t, btc.ID, src.calls[0].coin)
	assert.Equal(t, models.USD, src.calls[0].currency)
	assert.Equal(t, at(-time.Hour), src.calls[0].from)
	assert.Equal(t, at(3*time.Hour), src.calls[0].to)
}

func TestService_InvalidPeriodSkipsFetch(t *testing.T) {
	src := &fakePriceSource{}
	svc := NewService(New(), src)

	_, err := svc.AverageBalance(context.Background(), Request{
		From:         at(time.Hour),
		To:           t0,
		Transactions: []models.Transaction{deposit(t0, btc, 1)},
	})
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	assert.Empty(t, src.calls)
}

func TestService_EmptyTransactionsDoesNotFetch(t *testing.T) {
	src := &fakePriceSource{}
	res, err := NewService(New(), src).AverageBalance(context.Background(), Request{From: t0, To: at(time.Hour)})
	require.NoError(t, err)
	assert.Zero(t, res.Average)
	assert.Empty(t, src.calls)
}

func TestService_FetchErrorIsWrapped(t *testing.T) {
	upstream := errors.New("HTTP 500")
	src := &fakePriceSource{err: upstream}

	_, err := NewService(New(), src).AverageBalance(context.Background(), Request{
		From:         t0,
		To:           at(time.Hour),
		Transactions: []models.Transaction{deposit(t0, btc, 1)},
	})
	require.ErrorIs(t, err, upstream)
	assert.Contains(t, err.Error(), "fetch prices for bitcoin")
}

func TestService_PriceNotFoundSurfaces(t *testing.T) {
	src := &fakePriceSource{samples: map[string][]models.PriceSample{}}

	_, err := NewService(New(), src).AverageBalance(context.Background(), Request{
		From:         t0,
		To:           at(time.Hour),
		Transactions: []models.Transaction{deposit(t0, btc, 1)},
	})
	assert.ErrorIs(t, err, ErrPriceNotFound)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "invalid_period", outcome(ErrInvalidPeriod))
	assert.Equal(t, "price_not_found", outcome(&PriceNotFoundError{CoinID: "x"}))
	assert.Equal(t, "error", outcome(errors.New("boom")))
}
