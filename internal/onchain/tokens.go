package onchain

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Token maps an ERC20 contract to the coin it is priced as.
type Token struct {
	Contract common.Address `yaml:"-"`
	Address  string         `yaml:"contract"`
	CoinID   string         `yaml:"coin"`
	Symbol   string         `yaml:"symbol"`
	Decimals int32          `yaml:"decimals"`
}

type tokenFile struct {
	Tokens []Token `yaml:"tokens"`
}

// LoadTokens reads a token list such as:
//
//	tokens:
//	  - contract: "0xdAC17F958D2ee523a2206206994597C13D831ec7"
//	    coin: tether
//	    symbol: usdt
//	    decimals: 6
func LoadTokens(path string) ([]Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokens: %w", err)
	}
	return ParseTokens(data)
}

func ParseTokens(data []byte) ([]Token, error) {
	var f tokenFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tokens: %w", err)
	}

	seen := make(map[common.Address]bool, len(f.Tokens))
	for i := range f.Tokens {
		t := &f.Tokens[i]
		if !common.IsHexAddress(t.Address) {
			return nil, fmt.Errorf("token %d: invalid contract address %q", i, t.Address)
		}
		if t.CoinID == "" {
			return nil, fmt.Errorf("token %s: coin is required", t.Address)
		}
		if t.Decimals < 0 || t.Decimals > 36 {
			return nil, fmt.Errorf("token %s: decimals %d out of range", t.Address, t.Decimals)
		}
		t.Contract = common.HexToAddress(t.Address)
		if seen[t.Contract] {
			return nil, fmt.Errorf("token %s listed twice", t.Address)
		}
		seen[t.Contract] = true
		t.Symbol = strings.ToLower(t.Symbol)
	}
	return f.Tokens, nil
}
