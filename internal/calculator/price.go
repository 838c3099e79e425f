package calculator

import (
	"slices"
	"time"

	"github.com/kjannette/launchpool-backend/internal/models"
)

// PriceSeries is a coin's price samples ordered by timestamp.
type PriceSeries []models.PriceSample

// NewPriceSeries sorts a copy of samples by timestamp. Samples sharing a
// timestamp keep their input order.
func NewPriceSeries(samples []models.PriceSample) PriceSeries {
	s := slices.Clone(samples)
	slices.SortStableFunc(s, func(a, b models.PriceSample) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return s
}

// PriceIn returns the earliest sample inside w.
func (s PriceSeries) PriceIn(w Window) (float64, bool) {
	i, _ := slices.BinarySearchFunc(s, w.Start, func(p models.PriceSample, t time.Time) int {
		return p.Timestamp.Compare(t)
	})
	if i < len(s) && s[i].Timestamp.Before(w.End) {
		return s[i].Price, true
	}
	return 0, false
}
