// Package calculator computes the time-weighted average balance of a set of
// launchpool deposits and withdrawals in the target currency.
//
// The period is split into hourly windows. Each coin's unit balance carries
// from window to window, is valued at the earliest price sample inside the
// window, and the per-window totals are averaged.
package calculator

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kjannette/launchpool-backend/internal/logger"
	"github.com/kjannette/launchpool-backend/internal/models"
)

// Request is one calculation input. A zero From or To means the bound is
// missing.
type Request struct {
	Transactions []models.Transaction
	From         time.Time
	To           time.Time
	Currency     models.Currency
}

func (r Request) Validate() error {
	if r.From.IsZero() || r.To.IsZero() || r.From.After(r.To) {
		return ErrInvalidPeriod
	}
	return nil
}

// Coins returns the distinct coins referenced by the transactions, by ID, in
// order of first appearance.
func (r Request) Coins() []models.Coin {
	seen := make(map[string]struct{})
	var coins []models.Coin
	for _, tx := range r.Transactions {
		if _, ok := seen[tx.Coin.ID]; ok {
			continue
		}
		seen[tx.Coin.ID] = struct{}{}
		coins = append(coins, tx.Coin)
	}
	return coins
}

type WindowBalance struct {
	Window Window             `json:"window"`
	USD    float64            `json:"usd"`
	Units  map[string]float64 `json:"units"`
}

type Result struct {
	Average float64         `json:"average"`
	Windows []WindowBalance `json:"windows"`
}

type Calculator struct {
	strategy WindowStrategy
}

type Option func(*Calculator)

func WithWindowStrategy(s WindowStrategy) Option {
	return func(c *Calculator) { c.strategy = s }
}

func New(opts ...Option) *Calculator {
	c := &Calculator{strategy: WindowOverrun}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Calculator) Strategy() WindowStrategy { return c.strategy }

// Calculate runs the computation over already fetched prices, keyed by coin
// ID. A coin missing from prices behaves like one with no samples.
func (c *Calculator) Calculate(req Request, prices map[string]PriceSeries) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	log := logger.WithComponent("calculator")
	coins := req.Coins()
	tracker := newBalanceTracker(req.Transactions)

	var (
		windows []WindowBalance
		sum     float64
	)
	for w := range Windows(req.From, req.To, c.strategy) {
		wb := WindowBalance{Window: w, Units: make(map[string]float64, len(coins))}
		for _, coin := range coins {
			units := tracker.advance(coin.ID, w)
			wb.Units[coin.ID] = units
			if units == 0 {
				continue
			}
			price, ok := prices[coin.ID].PriceIn(w)
			if !ok {
				return Result{}, &PriceNotFoundError{CoinID: coin.ID, Window: w}
			}
			wb.USD += units * price
		}

		log.WithFields(logrus.Fields{
			"start": w.Start.Format(time.RFC3339),
			"end":   w.End.Format(time.RFC3339),
			"usd":   wb.USD,
		}).Debug("window balance")

		sum += wb.USD
		windows = append(windows, wb)
	}

	if len(windows) == 0 {
		return Result{}, nil
	}
	return Result{Average: sum / float64(len(windows)), Windows: windows}, nil
}
