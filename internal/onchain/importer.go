// Package onchain turns ERC20 Transfer logs of a wallet into launchpool
// transactions that the calculator can consume.
package onchain

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/kjannette/launchpool-backend/internal/logger"
	"github.com/kjannette/launchpool-backend/internal/models"
)

var ErrUnknownToken = errors.New("unknown token")

// Chain is the part of an Ethereum RPC client the importer reads from.
// *ethclient.Client satisfies it.
type Chain interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

func Dial(rpcURL string) (*ethclient.Client, error) {
	c, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}
	return c, nil
}

// Transfer is one side of an ERC20 transfer as seen by the wallet.
type Transfer struct {
	models.Transaction
	TxHash   string `json:"txHash"`
	Block    uint64 `json:"block"`
	LogIndex uint   `json:"logIndex"`
}

type Importer struct {
	chain    Chain
	tokens   map[common.Address]Token
	bySymbol map[string]Token
	resolve  func(id string) models.Coin
	transfer abi.Event
	erc20ABI abi.ABI
	log      *logrus.Entry
}

// NewImporter builds an importer over the given tokens. resolve fills in coin
// metadata from the coin ID and may be nil.
func NewImporter(chain Chain, tokens []Token, resolve func(id string) models.Coin) (*Importer, error) {
	eABI, err := abi.JSON(mustERC20ABI())
	if err != nil {
		return nil, fmt.Errorf("parse ERC20 ABI: %w", err)
	}
	if resolve == nil {
		resolve = func(id string) models.Coin { return models.Coin{ID: id} }
	}

	im := &Importer{
		chain:    chain,
		tokens:   make(map[common.Address]Token, len(tokens)),
		bySymbol: make(map[string]Token, len(tokens)),
		resolve:  resolve,
		transfer: eABI.Events["Transfer"],
		erc20ABI: eABI,
		log:      logger.WithComponent("onchain"),
	}
	for _, t := range tokens {
		im.tokens[t.Contract] = t
		im.bySymbol[t.Symbol] = t
	}
	return im, nil
}

// Token finds a configured token by contract address or symbol.
func (im *Importer) Token(ref string) (Token, error) {
	if common.IsHexAddress(ref) {
		if t, ok := im.tokens[common.HexToAddress(ref)]; ok {
			return t, nil
		}
	} else if t, ok := im.bySymbol[strings.ToLower(ref)]; ok {
		return t, nil
	}
	return Token{}, fmt.Errorf("%w: %s", ErrUnknownToken, ref)
}

// Transfers returns the wallet's transfers of the given tokens between two
// blocks, ordered by block and log index. A nil toBlock means latest. With no
// tokens every configured token is queried. Incoming transfers are deposits,
// outgoing ones withdrawals; a transfer to self yields both.
func (im *Importer) Transfers(ctx context.Context, wallet common.Address, tokens []Token, fromBlock, toBlock *big.Int) ([]Transfer, error) {
	if len(tokens) == 0 {
		for _, t := range im.tokens {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	contracts := make([]common.Address, len(tokens))
	for i, t := range tokens {
		contracts[i] = t.Contract
	}
	walletTopic := common.BytesToHash(wallet.Bytes())

	outgoing, err := im.chain.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: fromBlock,
		ToBlock:   toBlock,
		Addresses: contracts,
		Topics:    [][]common.Hash{{im.transfer.ID}, {walletTopic}},
	})
	if err != nil {
		return nil, fmt.Errorf("filter outgoing: %w", err)
	}
	incoming, err := im.chain.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: fromBlock,
		ToBlock:   toBlock,
		Addresses: contracts,
		Topics:    [][]common.Hash{{im.transfer.ID}, nil, {walletTopic}},
	})
	if err != nil {
		return nil, fmt.Errorf("filter incoming: %w", err)
	}

	logs := dedupeLogs(append(outgoing, incoming...))
	times := make(map[uint64]time.Time)

	var out []Transfer
	for _, lg := range logs {
		from, to, value, err := im.decodeTransfer(lg)
		if err != nil {
			im.log.WithError(err).WithField("tx", lg.TxHash.Hex()).Warn("skipping undecodable log")
			continue
		}
		tok, ok := im.tokens[lg.Address]
		if !ok {
			continue
		}

		ts, ok := times[lg.BlockNumber]
		if !ok {
			h, err := im.chain.HeaderByNumber(ctx, new(big.Int).SetUint64(lg.BlockNumber))
			if err != nil {
				return nil, fmt.Errorf("header %d: %w", lg.BlockNumber, err)
			}
			ts = time.Unix(int64(h.Time), 0).UTC()
			times[lg.BlockNumber] = ts
		}

		base := Transfer{
			Transaction: models.Transaction{
				DateTime: ts,
				Coin:     im.coinFor(tok),
				Amount:   scaleAmount(value, tok.Decimals),
			},
			TxHash:   lg.TxHash.Hex(),
			Block:    lg.BlockNumber,
			LogIndex: lg.Index,
		}
		if to == wallet {
			t := base
			t.Type = models.Deposit
			out = append(out, t)
		}
		if from == wallet {
			t := base
			t.Type = models.Withdraw
			out = append(out, t)
		}
	}

	im.log.WithFields(logrus.Fields{
		"wallet":    wallet.Hex(),
		"tokens":    len(tokens),
		"transfers": len(out),
	}).Debug("imported transfers")
	return out, nil
}

// Transactions is Transfers without the chain references.
func (im *Importer) Transactions(ctx context.Context, wallet common.Address, tokens []Token, fromBlock, toBlock *big.Int) ([]models.Transaction, error) {
	transfers, err := im.Transfers(ctx, wallet, tokens, fromBlock, toBlock)
	if err != nil {
		return nil, err
	}
	txs := make([]models.Transaction, len(transfers))
	for i, t := range transfers {
		txs[i] = t.Transaction
	}
	return txs, nil
}

func (im *Importer) decodeTransfer(lg types.Log) (from, to common.Address, value *big.Int, err error) {
	if len(lg.Topics) != 3 || lg.Topics[0] != im.transfer.ID {
		return from, to, nil, fmt.Errorf("not an ERC20 transfer")
	}
	vals, err := im.erc20ABI.Unpack("Transfer", lg.Data)
	if err != nil {
		return from, to, nil, fmt.Errorf("unpack value: %w", err)
	}
	if len(vals) != 1 {
		return from, to, nil, fmt.Errorf("unpack value: got %d values", len(vals))
	}
	value, ok := vals[0].(*big.Int)
	if !ok {
		return from, to, nil, fmt.Errorf("unpack value: unexpected type %T", vals[0])
	}
	from = common.BytesToAddress(lg.Topics[1].Bytes())
	to = common.BytesToAddress(lg.Topics[2].Bytes())
	return from, to, value, nil
}

func (im *Importer) coinFor(t Token) models.Coin {
	c := im.resolve(t.CoinID)
	if c.Symbol == "" {
		c.Symbol = t.Symbol
	}
	return c
}

func scaleAmount(v *big.Int, decimals int32) float64 {
	return decimal.NewFromBigInt(v, -decimals).InexactFloat64()
}

// dedupeLogs drops removed logs and duplicates, then orders by position.
func dedupeLogs(logs []types.Log) []types.Log {
	type key struct {
		block uint64
		index uint
	}
	seen := make(map[key]bool, len(logs))
	out := logs[:0:0]
	for _, lg := range logs {
		k := key{lg.BlockNumber, lg.Index}
		if lg.Removed || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, lg)
	}
	slices.SortFunc(out, func(a, b types.Log) int {
		return cmp.Or(cmp.Compare(a.BlockNumber, b.BlockNumber), cmp.Compare(a.Index, b.Index))
	})
	return out
}
