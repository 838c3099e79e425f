package calculator

import (
	"time"

	"github.com/kjannette/launchpool-backend/internal/models"
)

var (
	btc = models.Coin{ID: "bitcoin", Name: "Bitcoin", Symbol: "btc", Image: "https://example.com/btc.png"}
	eth = models.Coin{ID: "ethereum", Name: "Ethereum", Symbol: "eth"}

	t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func at(d time.Duration) time.Time { return t0.Add(d) }

func deposit(ts time.Time, coin models.Coin, amount float64) models.Transaction {
	return models.Transaction{DateTime: ts, Type: models.Deposit, Coin: coin, Amount: amount}
}

func withdraw(ts time.Time, coin models.Coin, amount float64) models.Transaction {
	return models.Transaction{DateTime: ts, Type: models.Withdraw, Coin: coin, Amount: amount}
}

func sample(p float64, ts time.Time, coin models.Coin) models.PriceSample {
	return models.PriceSample{Price: p, Timestamp: ts, Coin: coin}
}

func seriesOf(samples ...models.PriceSample) map[string]PriceSeries {
	byCoin := make(map[string][]models.PriceSample)
	for _, s := range samples {
		byCoin[s.Coin.ID] = append(byCoin[s.Coin.ID], s)
	}
	out := make(map[string]PriceSeries, len(byCoin))
	for id, list := range byCoin {
		out[id] = NewPriceSeries(list)
	}
	return out
}
