package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/kjannette/launchpool-backend/internal/calculator"
	"github.com/kjannette/launchpool-backend/internal/logger"
	"github.com/kjannette/launchpool-backend/internal/metrics"
	"github.com/kjannette/launchpool-backend/internal/models"
	"github.com/kjannette/launchpool-backend/internal/onchain"
)

const (
	maxQueryLimit = 2000
	maxBodyBytes  = 1 << 20
)

type BalanceService interface {
	AverageBalance(ctx context.Context, req calculator.Request) (calculator.Result, error)
}

type CoinCatalogue interface {
	Coins() []models.Coin
	Resolve(id string) models.Coin
	Len() int
}

type CoinSyncer interface {
	SyncNow(ctx context.Context) (int, error)
}

type TransferImporter interface {
	Token(ref string) (onchain.Token, error)
	Transfers(ctx context.Context, wallet common.Address, tokens []onchain.Token, fromBlock, toBlock *big.Int) ([]onchain.Transfer, error)
}

type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// Deps are the collaborators behind the routes. Pool, Redis, Sync and
// OnChain are optional.
type Deps struct {
	Pool      *pgxpool.Pool
	Redis     RedisPinger
	Balances  BalanceService
	Prices    calculator.PriceSource
	Catalogue CoinCatalogue
	Sync      CoinSyncer
	OnChain   TransferImporter
}

type Server struct {
	deps       Deps
	httpServer *http.Server
	apiKey     string
	log        *logrus.Entry
}

func NewServer(deps Deps, port int, apiKey, corsOrigin string) *Server {
	s := &Server{
		deps:   deps,
		apiKey: apiKey,
		log:    logger.WithComponent("api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(s.accessLogMiddleware)
	r.Use(func(next http.Handler) http.Handler { return corsMiddleware(next, corsOrigin) })
	r.Use(s.authMiddleware)

	r.Route("/v1", func(r chi.Router) {
		// Calculation
		r.Post("/average-balance", s.handleAverageBalance)

		// Coin routes
		r.Get("/coins", s.handleCoins)
		r.Get("/coins/{id}/prices", s.handleCoinPrices)
		r.Post("/coins/sync", s.handleCoinSync)

		// On-chain import
		if deps.OnChain != nil {
			r.Get("/onchain/{wallet}/transfers", s.handleTransfers)
		}
	})

	// Health check and metrics (no auth required)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	s.log.WithFields(logrus.Fields{
		"addr":   "http://localhost" + s.httpServer.Addr,
		"health": "http://localhost" + s.httpServer.Addr + "/health",
		"auth":   boolLabel(s.apiKey != "", "enabled (Bearer token)", "disabled (no API_KEY configured)"),
	}).Info("REST API server started")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- validation helpers ---

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

// parseTimeParam reads a required RFC 3339 query parameter.
func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s, expected RFC 3339", name)
	}
	return t, nil
}

// parseBlockParam reads an optional block number. Empty means nil.
func parseBlockParam(r *http.Request, name string) (*big.Int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return new(big.Int).SetUint64(n), nil
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
