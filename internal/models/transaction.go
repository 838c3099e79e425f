package models

import (
	"fmt"
	"strings"
	"time"
)

type TransactionType string

const (
	Deposit  TransactionType = "DEPOSIT"
	Withdraw TransactionType = "WITHDRAW"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case Deposit:
		return Deposit, nil
	case Withdraw:
		return Withdraw, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// Transaction is a single launchpool deposit or withdrawal. Amount is the
// unit quantity of Coin and is never negative; direction comes from Type.
type Transaction struct {
	DateTime time.Time       `json:"dateTime"`
	Type     TransactionType `json:"type"`
	Coin     Coin            `json:"coin"`
	Amount   float64         `json:"amount"`
}

// Signed returns the amount with the sign of its direction.
func (t Transaction) Signed() float64 {
	if t.Type == Withdraw {
		return -t.Amount
	}
	return t.Amount
}
