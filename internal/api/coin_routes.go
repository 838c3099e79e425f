package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kjannette/launchpool-backend/internal/models"
)

type priceJSON struct {
	T int64   `json:"t"`
	P float64 `json:"p"`
}

func (s *Server) handleCoins(w http.ResponseWriter, r *http.Request) {
	coins := s.deps.Catalogue.Coins()
	if limit := parseLimit(r, maxQueryLimit); len(coins) > limit {
		coins = coins[:limit]
	}
	if coins == nil {
		coins = []models.Coin{}
	}
	writeJSON(w, http.StatusOK, coins)
}

func (s *Server) handleCoinPrices(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	from, err := parseTimeParam(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !from.Before(to) {
		writeError(w, http.StatusBadRequest, "from must be before to")
		return
	}
	currency, err := models.ParseCurrency(r.URL.Query().Get("currency"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	samples, err := s.deps.Prices.ReadPrices(r.Context(), s.deps.Catalogue.Resolve(id), currency, from, to)
	if err != nil {
		s.log.WithError(err).WithField("coin", id).Error("fetch prices")
		writeError(w, http.StatusBadGateway, "failed to fetch prices")
		return
	}

	out := make([]priceJSON, len(samples))
	for i, p := range samples {
		out[i] = priceJSON{T: p.Timestamp.UnixMilli(), P: p.Price}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCoinSync(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sync == nil {
		writeError(w, http.StatusServiceUnavailable, "coin sync is not configured")
		return
	}
	n, err := s.deps.Sync.SyncNow(r.Context())
	if err != nil {
		s.log.WithError(err).Error("manual coin sync")
		writeError(w, http.StatusBadGateway, "coin sync failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"coins": n})
}
