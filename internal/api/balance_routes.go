package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/kjannette/launchpool-backend/internal/calculator"
	"github.com/kjannette/launchpool-backend/internal/models"
)

type transactionJSON struct {
	DateTime time.Time       `json:"dateTime"`
	Type     string          `json:"type"`
	CoinID   string          `json:"coinId"`
	Amount   decimal.Decimal `json:"amount"`
}

type averageBalanceRequest struct {
	From         time.Time         `json:"from"`
	To           time.Time         `json:"to"`
	Currency     string            `json:"currency"`
	Detailed     bool              `json:"detailed"`
	Transactions []transactionJSON `json:"transactions"`
}

type windowJSON struct {
	Start time.Time          `json:"start"`
	End   time.Time          `json:"end"`
	Value string             `json:"value"`
	Units map[string]float64 `json:"units"`
}

type averageBalanceResponse struct {
	AverageBalance string       `json:"averageBalance"`
	Value          float64      `json:"value"`
	Currency       string       `json:"currency"`
	Windows        []windowJSON `json:"windows,omitempty"`
}

type priceNotFoundResponse struct {
	Error       string    `json:"error"`
	CoinID      string    `json:"coinId"`
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`
}

func (s *Server) handleAverageBalance(w http.ResponseWriter, r *http.Request) {
	var body averageBalanceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := s.toCalculatorRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.deps.Balances.AverageBalance(r.Context(), req)
	if err != nil {
		var pnf *calculator.PriceNotFoundError
		switch {
		case errors.Is(err, calculator.ErrInvalidPeriod):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &pnf):
			writeJSON(w, http.StatusUnprocessableEntity, priceNotFoundResponse{
				Error:       err.Error(),
				CoinID:      pnf.CoinID,
				WindowStart: pnf.Window.Start,
				WindowEnd:   pnf.Window.End,
			})
		default:
			s.log.WithError(err).WithField("request_id", r.Header.Get(requestIDHeader)).Error("average balance failed")
			writeError(w, http.StatusBadGateway, "failed to fetch prices")
		}
		return
	}

	s.log.WithFields(logrus.Fields{
		"transactions": len(req.Transactions),
		"from":         req.From.Format(time.RFC3339),
		"to":           req.To.Format(time.RFC3339),
		"windows":      len(res.Windows),
	}).Debug("average balance computed")

	out := averageBalanceResponse{
		AverageBalance: formatMoney(res.Average),
		Value:          res.Average,
		Currency:       req.Currency.Code(),
	}
	if body.Detailed {
		out.Windows = make([]windowJSON, len(res.Windows))
		for i, wb := range res.Windows {
			out.Windows[i] = windowJSON{
				Start: wb.Window.Start,
				End:   wb.Window.End,
				Value: formatMoney(wb.USD),
				Units: wb.Units,
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) toCalculatorRequest(body averageBalanceRequest) (calculator.Request, error) {
	currency, err := models.ParseCurrency(body.Currency)
	if err != nil {
		return calculator.Request{}, err
	}

	txs := make([]models.Transaction, len(body.Transactions))
	for i, t := range body.Transactions {
		typ, err := models.ParseTransactionType(t.Type)
		if err != nil {
			return calculator.Request{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		if t.CoinID == "" {
			return calculator.Request{}, fmt.Errorf("transaction %d: coinId is required", i)
		}
		if t.DateTime.IsZero() {
			return calculator.Request{}, fmt.Errorf("transaction %d: dateTime is required", i)
		}
		if t.Amount.IsNegative() {
			return calculator.Request{}, fmt.Errorf("transaction %d: amount must not be negative", i)
		}
		txs[i] = models.Transaction{
			DateTime: t.DateTime,
			Type:     typ,
			Coin:     s.deps.Catalogue.Resolve(t.CoinID),
			Amount:   t.Amount.InexactFloat64(),
		}
	}

	return calculator.Request{
		Transactions: txs,
		From:         body.From,
		To:           body.To,
		Currency:     currency,
	}, nil
}

// formatMoney renders a currency value with two decimals, rounding half away
// from zero.
func formatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
