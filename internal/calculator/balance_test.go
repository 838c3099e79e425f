package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/launchpool-backend/internal/models"
)

func TestBalanceTracker_CarriesAcrossWindows(t *testing.T) {
	tr := newBalanceTracker([]models.Transaction{
		deposit(at(10*time.Minute), btc, 2),
		withdraw(at(70*time.Minute), btc, 0.5),
	})

	assert.Equal(t, 2.0, tr.advance(btc.ID, Window{Start: t0, End: at(time.Hour)}))
	assert.Equal(t, 1.5, tr.advance(btc.ID, Window{Start: at(time.Hour), End: at(2 * time.Hour)}))
	assert.Equal(t, 1.5, tr.advance(btc.ID, Window{Start: at(2 * time.Hour), End: at(3 * time.Hour)}))
}

func TestBalanceTracker_UnknownCoinIsZero(t *testing.T) {
	tr := newBalanceTracker(nil)
	assert.Zero(t, tr.advance("dogecoin", Window{Start: t0, End: at(time.Hour)}))
}

func TestBalanceTracker_SortsStableByTimestamp(t *testing.T) {
	tr := newBalanceTracker([]models.Transaction{
		deposit(at(30*time.Minute), btc, 3),
		deposit(at(10*time.Minute), btc, 1),
		withdraw(at(10*time.Minute), btc, 2),
	})

	list := tr.txs[btc.ID]
	require.Len(t, list, 3)
	assert.Equal(t, 1.0, list[0].Amount)
	assert.Equal(t, models.Withdraw, list[1].Type)
	assert.Equal(t, 3.0, list[2].Amount)
}

func TestBalanceTracker_SkipsTransactionsBeforeFirstWindow(t *testing.T) {
	tr := newBalanceTracker([]models.Transaction{
		deposit(at(-2*time.Hour), btc, 5),
		deposit(at(10*time.Minute), btc, 1),
	})

	assert.Equal(t, 1.0, tr.advance(btc.ID, Window{Start: t0, End: at(time.Hour)}))
}

func TestBalanceTracker_AllowsNegative(t *testing.T) {
	tr := newBalanceTracker([]models.Transaction{withdraw(at(time.Minute), btc, 4)})
	assert.Equal(t, -4.0, tr.advance(btc.ID, Window{Start: t0, End: at(time.Hour)}))
}
