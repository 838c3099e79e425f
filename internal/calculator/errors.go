package calculator

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidPeriod = errors.New("invalid period is provided")
	ErrPriceNotFound = errors.New("price not found")
)

// PriceNotFoundError reports a window where a coin with a non-zero balance
// has no price sample.
type PriceNotFoundError struct {
	CoinID string
	Window Window
}

func (e *PriceNotFoundError) Error() string {
	return fmt.Sprintf("unable to find %s price for date range %s - %s",
		e.CoinID, e.Window.Start.Format(time.RFC3339), e.Window.End.Format(time.RFC3339))
}

func (e *PriceNotFoundError) Is(target error) bool {
	return target == ErrPriceNotFound
}
