package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/kjannette/launchpool-backend/internal/calculator"
	"github.com/kjannette/launchpool-backend/internal/logger"
	"github.com/kjannette/launchpool-backend/internal/onchain"
)

type Config struct {
	// Secrets (from .env)
	CoinGeckoAPIKey     string
	EthereumAPIEndpoint string
	WebhookURL          string
	AppName             string
	APIKey              string
	CORSAllowOrigin     string

	// CoinGecko
	CoinGeckoURL               string
	CoinGeckoRequestsPerMinute int
	CoinGeckoMaxAttempts       int
	CoinGeckoRetryAfterSeconds int
	CoinGeckoPages             int

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Redis price cache, disabled when RedisAddr is empty
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	PriceCacheTTLMinutes int

	// API
	APIPort int

	// Calculation
	WindowStrategy string

	// Coin sync
	CoinSyncIntervalMinutes int

	// On-chain import
	TokensFile string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Secrets
		CoinGeckoAPIKey:     envStr("COINGECKO_API_KEY", ""),
		EthereumAPIEndpoint: envStr("ETHEREUM_API_ENDPOINT", ""),
		WebhookURL:          envStr("WEBHOOK_URL", ""),
		AppName:             envStr("APP_NAME", "LaunchpoolBalance"),
		APIKey:              envStr("API_KEY", ""),
		CORSAllowOrigin:     envStr("CORS_ALLOW_ORIGIN", "*"),

		// CoinGecko
		CoinGeckoURL:               envStr("COINGECKO_API_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoRequestsPerMinute: envInt("COINGECKO_REQUESTS_PER_MINUTE", 30),
		CoinGeckoMaxAttempts:       envInt("COINGECKO_MAX_ATTEMPTS", 5),
		CoinGeckoRetryAfterSeconds: envInt("COINGECKO_RETRY_AFTER_SECONDS", 60),
		CoinGeckoPages:             envInt("COINGECKO_PAGES", 6),

		// Database
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "launchpool"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),

		// Redis
		RedisAddr:            envStr("REDIS_ADDR", ""),
		RedisPassword:        envStr("REDIS_PASSWORD", ""),
		RedisDB:              envInt("REDIS_DB", 0),
		PriceCacheTTLMinutes: envInt("PRICE_CACHE_TTL_MINUTES", 10),

		// API
		APIPort: envInt("API_PORT", 3001),

		// Calculation
		WindowStrategy: envStr("WINDOW_STRATEGY", "overrun"),

		// Coin sync
		CoinSyncIntervalMinutes: envInt("COIN_SYNC_INTERVAL_MINUTES", 10),

		// On-chain import
		TokensFile: envStr("TOKENS_FILE", ""),

		// Logging
		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogFormat: envStr("LOG_FORMAT", "text"),
		LogFile:   envStr("LOG_FILE", ""),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	log := logger.WithComponent("config")

	if _, err := calculator.ParseWindowStrategy(c.WindowStrategy); err != nil {
		errs = append(errs, "WINDOW_STRATEGY must be overrun or strict")
	}
	if c.CoinGeckoMaxAttempts < 1 {
		errs = append(errs, "COINGECKO_MAX_ATTEMPTS must be at least 1")
	}
	if c.CoinGeckoPages < 1 {
		errs = append(errs, "COINGECKO_PAGES must be at least 1")
	}
	if c.CoinSyncIntervalMinutes < 1 {
		errs = append(errs, "COIN_SYNC_INTERVAL_MINUTES must be at least 1")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, "API_PORT must be a valid port")
	}
	if c.TokensFile != "" && c.EthereumAPIEndpoint == "" {
		errs = append(errs, "TOKENS_FILE requires ETHEREUM_API_ENDPOINT")
	}

	if c.CoinGeckoAPIKey == "" {
		log.Warn("COINGECKO_API_KEY not set, using the public rate limit")
	}
	if c.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set, price cache disabled")
	}
	if c.APIKey == "" {
		log.Warn("API_KEY not set, REST API has no authentication")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	logger.WithComponent("config").WithFields(logrus.Fields{
		"coingecko_url":     c.CoinGeckoURL,
		"coingecko_api_key": boolLabel(c.CoinGeckoAPIKey != "", "configured", "not set"),
		"coingecko_rpm":     c.CoinGeckoRequestsPerMinute,
		"coingecko_pages":   c.CoinGeckoPages,
		"database":          fmt.Sprintf("%s:%d/%s", c.DBHost, c.DBPort, c.DBName),
		"price_cache":       boolLabel(c.RedisAddr != "", c.RedisAddr, "disabled"),
		"api_port":          c.APIPort,
		"window_strategy":   c.WindowStrategy,
		"coin_sync":         c.CoinSyncInterval().String(),
		"onchain":           boolLabel(c.EthereumAPIEndpoint != "", "enabled", "disabled"),
		"webhook":           boolLabel(c.WebhookURL != "", "configured", "not set"),
	}).Info("configuration")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func (c *Config) Strategy() calculator.WindowStrategy {
	s, _ := calculator.ParseWindowStrategy(c.WindowStrategy)
	return s
}

func (c *Config) CoinSyncInterval() time.Duration {
	return time.Duration(c.CoinSyncIntervalMinutes) * time.Minute
}

func (c *Config) PriceCacheTTL() time.Duration {
	return time.Duration(c.PriceCacheTTLMinutes) * time.Minute
}

func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{Level: c.LogLevel, Format: c.LogFormat, File: c.LogFile}
}

// LoadTokens reads the on-chain token list. No file means no tokens.
func (c *Config) LoadTokens() ([]onchain.Token, error) {
	if c.TokensFile == "" {
		return nil, nil
	}
	return onchain.LoadTokens(c.TokensFile)
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
