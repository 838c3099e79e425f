package calculator

import (
	"slices"

	"github.com/kjannette/launchpool-backend/internal/models"
)

// balanceTracker carries each coin's unit balance across consecutive windows.
type balanceTracker struct {
	txs      map[string][]models.Transaction
	next     map[string]int
	balances map[string]float64
}

func newBalanceTracker(txs []models.Transaction) *balanceTracker {
	byCoin := make(map[string][]models.Transaction)
	for _, tx := range txs {
		byCoin[tx.Coin.ID] = append(byCoin[tx.Coin.ID], tx)
	}
	for _, list := range byCoin {
		slices.SortStableFunc(list, func(a, b models.Transaction) int {
			return a.DateTime.Compare(b.DateTime)
		})
	}
	return &balanceTracker{
		txs:      byCoin,
		next:     make(map[string]int, len(byCoin)),
		balances: make(map[string]float64, len(byCoin)),
	}
}

// advance folds the coin's transactions inside w into its running balance
// and returns the balance at the end of w. Windows must be passed in order.
// Transactions earlier than w were outside every window so far and are skipped.
func (b *balanceTracker) advance(coinID string, w Window) float64 {
	list := b.txs[coinID]
	i := b.next[coinID]
	balance := b.balances[coinID]

	for ; i < len(list) && list[i].DateTime.Before(w.End); i++ {
		if list[i].DateTime.Before(w.Start) {
			continue
		}
		balance += list[i].Signed()
	}

	b.next[coinID] = i
	b.balances[coinID] = balance
	return balance
}
