package models

import (
	"fmt"
	"strings"
)

type Currency string

const USD Currency = "usd"

// ParseCurrency accepts the only supported target currency. An empty value
// means USD.
func ParseCurrency(s string) (Currency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(USD):
		return USD, nil
	}
	return "", fmt.Errorf("unsupported currency %q", s)
}

func (c Currency) Code() string { return string(c) }
