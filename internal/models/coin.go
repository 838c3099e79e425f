package models

import "strings"

type Coin struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Image  string `json:"image"`
}

// SameCoin reports whether two coins share an identifier. Other fields are
// display metadata and never take part in identity.
func (c Coin) SameCoin(other Coin) bool {
	return c.ID == other.ID
}

func (c Coin) String() string {
	if c.Symbol == "" {
		return c.ID
	}
	return strings.ToUpper(c.Symbol)
}
