package calculator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kjannette/launchpool-backend/internal/metrics"
	"github.com/kjannette/launchpool-backend/internal/models"
)

// PricePadding widens every price fetch on both ends of the period.
const PricePadding = time.Hour

// PriceSource returns a coin's price samples in [from, to].
type PriceSource interface {
	ReadPrices(ctx context.Context, coin models.Coin, currency models.Currency, from, to time.Time) ([]models.PriceSample, error)
}

// Service fetches prices for a request and runs the calculator over them.
type Service struct {
	calc   *Calculator
	prices PriceSource
}

func NewService(calc *Calculator, prices PriceSource) *Service {
	return &Service{calc: calc, prices: prices}
}

func (s *Service) AverageBalance(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	res, err := s.averageBalance(ctx, req)
	metrics.CalculationDuration.Observe(time.Since(start).Seconds())
	metrics.Calculations.WithLabelValues(outcome(err)).Inc()
	return res, err
}

func (s *Service) averageBalance(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if req.Currency == "" {
		req.Currency = models.USD
	}

	from := req.From.Add(-PricePadding)
	to := req.To.Add(PricePadding)

	series := make(map[string]PriceSeries)
	for _, coin := range req.Coins() {
		samples, err := s.prices.ReadPrices(ctx, coin, req.Currency, from, to)
		if err != nil {
			return Result{}, fmt.Errorf("fetch prices for %s: %w", coin.ID, err)
		}
		series[coin.ID] = NewPriceSeries(samples)
	}

	return s.calc.Calculate(req, series)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidPeriod):
		return "invalid_period"
	case errors.Is(err, ErrPriceNotFound):
		return "price_not_found"
	default:
		return "error"
	}
}
