package models

import "time"

// PriceSample is one observed price of a coin in the target currency.
type PriceSample struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Coin      Coin      `json:"coin"`
}
