package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kjannette/launchpool-backend/internal/api"
	"github.com/kjannette/launchpool-backend/internal/cache"
	"github.com/kjannette/launchpool-backend/internal/calculator"
	"github.com/kjannette/launchpool-backend/internal/catalogue"
	"github.com/kjannette/launchpool-backend/internal/config"
	"github.com/kjannette/launchpool-backend/internal/db"
	"github.com/kjannette/launchpool-backend/internal/external"
	"github.com/kjannette/launchpool-backend/internal/httputil"
	"github.com/kjannette/launchpool-backend/internal/logger"
	"github.com/kjannette/launchpool-backend/internal/notifications"
	"github.com/kjannette/launchpool-backend/internal/onchain"
	"github.com/kjannette/launchpool-backend/internal/repository"
	"github.com/kjannette/launchpool-backend/internal/scheduler"
)

const banner = `
╔══════════════════════════════════════╗
║   Launchpool Average Balance v0.1    ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LoggerOptions()); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	log := logger.WithComponent("main")

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	cfg.Print()

	// Database
	dbLog := logger.WithComponent("db")
	dbLog.Infof("connecting to %s:%d/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := db.Connect(context.Background(), cfg.DSN(), db.DefaultPoolOptions)
	if err != nil {
		dbLog.WithError(err).Fatal("connection failed")
	}
	defer func() {
		pool.Close()
		dbLog.Info("connection pool closed")
	}()

	if err := db.TestConnection(context.Background(), pool); err != nil {
		dbLog.WithError(err).Fatal("test query failed")
	}
	if err := db.Migrate(context.Background(), pool); err != nil {
		dbLog.WithError(err).Fatal("migration failed")
	}

	// Repos
	coinRepo := repository.NewCoinRepo(pool)

	// Coin catalogue, served from memory
	coins := catalogue.New(coinRepo)
	if n, err := coins.Refresh(context.Background()); err != nil {
		log.WithError(err).Warn("initial catalogue load failed")
	} else {
		log.WithField("coins", n).Info("catalogue loaded")
	}

	// Prices: CoinGecko, optionally behind the Redis cache
	coingecko := external.NewCoinGeckoClient(external.CoinGeckoOptions{
		BaseURL:           cfg.CoinGeckoURL,
		APIKey:            cfg.CoinGeckoAPIKey,
		RequestsPerMinute: cfg.CoinGeckoRequestsPerMinute,
		Pages:             cfg.CoinGeckoPages,
		Retry: &httputil.RetryConfig{
			MaxAttempts:       cfg.CoinGeckoMaxAttempts,
			BaseDelay:         2 * time.Second,
			MaxDelay:          30 * time.Second,
			RetryAfterDefault: time.Duration(cfg.CoinGeckoRetryAfterSeconds) * time.Second,
		},
	})

	var prices calculator.PriceSource = coingecko
	deps := api.Deps{Pool: pool, Catalogue: coins}
	if cfg.RedisAddr != "" {
		rdb := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rdb.Close()
		prices = cache.NewPriceCache(rdb, coingecko, cfg.PriceCacheTTL())
		deps.Redis = rdb
	}
	deps.Prices = prices
	deps.Balances = calculator.NewService(calculator.New(calculator.WithWindowStrategy(cfg.Strategy())), prices)

	// On-chain import
	if cfg.EthereumAPIEndpoint != "" {
		tokens, err := cfg.LoadTokens()
		if err != nil {
			log.WithError(err).Fatal("load tokens")
		}
		chain, err := onchain.Dial(cfg.EthereumAPIEndpoint)
		if err != nil {
			log.WithError(err).Fatal("ethereum client")
		}
		defer chain.Close()
		importer, err := onchain.NewImporter(chain, tokens, coins.Resolve)
		if err != nil {
			log.WithError(err).Fatal("on-chain importer")
		}
		deps.OnChain = importer
		log.WithField("tokens", len(tokens)).Info("on-chain import enabled")
	}

	// Notifications
	notify := notifications.NewSender(cfg.WebhookURL, cfg.AppName)

	// Coin sync scheduler
	syncSched := scheduler.NewCoinSyncScheduler(coingecko, coinRepo, scheduler.CoinSyncConfig{
		Interval: cfg.CoinSyncInterval(),
		Notifier: notify,
		OnSynced: func(int) {
			if _, err := coins.Refresh(context.Background()); err != nil {
				log.WithError(err).Error("catalogue refresh failed")
			}
		},
	})
	deps.Sync = syncSched

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. API server
	srv := api.NewServer(deps, cfg.APIPort, cfg.APIKey, cfg.CORSAllowOrigin)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithComponent("api").WithError(err).Fatal("server error")
		}
	}()

	// 2. Coin sync, first run immediately
	syncSched.Start()

	log.Info("all services started successfully")

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info("shutting down gracefully")

	syncSched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithComponent("api").WithError(err).Error("shutdown error")
	}
	logger.WithComponent("api").Info("server closed")
	log.Info("shutdown complete")
}
