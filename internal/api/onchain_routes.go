package api

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/kjannette/launchpool-backend/internal/onchain"
)

func (s *Server) handleTransfers(w http.ResponseWriter, r *http.Request) {
	wallet := chi.URLParam(r, "wallet")
	if !common.IsHexAddress(wallet) {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	var tokens []onchain.Token
	if v := r.URL.Query().Get("token"); v != "" {
		for _, ref := range strings.Split(v, ",") {
			tok, err := s.deps.OnChain.Token(strings.TrimSpace(ref))
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			tokens = append(tokens, tok)
		}
	}

	fromBlock, err := parseBlockParam(r, "fromBlock")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	toBlock, err := parseBlockParam(r, "toBlock")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fromBlock != nil && toBlock != nil && fromBlock.Cmp(toBlock) > 0 {
		writeError(w, http.StatusBadRequest, "fromBlock must not be after toBlock")
		return
	}

	transfers, err := s.deps.OnChain.Transfers(r.Context(), common.HexToAddress(wallet), tokens, fromBlock, toBlock)
	if err != nil {
		s.log.WithError(err).WithField("wallet", wallet).Error("import transfers")
		writeError(w, http.StatusBadGateway, "failed to read transfers")
		return
	}
	if transfers == nil {
		transfers = []onchain.Transfer{}
	}
	writeJSON(w, http.StatusOK, transfers)
}
