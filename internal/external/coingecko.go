package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/kjannette/launchpool-backend/internal/httputil"
	"github.com/kjannette/launchpool-backend/internal/logger"
	"github.com/kjannette/launchpool-backend/internal/metrics"
	"github.com/kjannette/launchpool-backend/internal/models"
)

const (
	DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"
	apiKeyHeader        = "x_cg_pro_api_key"
)

type CoinGeckoClient struct {
	baseURL    string
	apiKey     string
	pages      int
	perPage    int
	order      string
	httpClient *http.Client
	retry      httputil.RetryConfig
	limiter    *rate.Limiter
	log        *logrus.Entry
}

type CoinGeckoOptions struct {
	BaseURL           string
	APIKey            string
	RequestsPerMinute int // 0 disables client-side limiting
	Pages             int
	PerPage           int
	Timeout           time.Duration
	Retry             *httputil.RetryConfig
}

func NewCoinGeckoClient(opts CoinGeckoOptions) *CoinGeckoClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	pages := opts.Pages
	if pages <= 0 {
		pages = 6
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = 250
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retry := httputil.RetryConfig{
		MaxAttempts:       5,
		BaseDelay:         2 * time.Second,
		MaxDelay:          30 * time.Second,
		RetryAfterDefault: 60 * time.Second,
	}
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(opts.RequestsPerMinute) / 60)
	}

	return &CoinGeckoClient{
		baseURL:    baseURL,
		apiKey:     opts.APIKey,
		pages:      pages,
		perPage:    perPage,
		order:      "market_cap_desc",
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
		limiter:    rate.NewLimiter(limit, 1),
		log:        logger.WithComponent("coingecko"),
	}
}

// MarketCoin is one row of /coins/markets. Only the catalogue fields are kept.
type MarketCoin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Image  string `json:"image"`
}

func (m MarketCoin) Coin() models.Coin {
	return models.Coin{ID: m.ID, Name: m.Name, Symbol: m.Symbol, Image: m.Image}
}

// ChartPoint is one [timestamp_ms, value] pair of a market chart.
type ChartPoint struct {
	Time  time.Time
	Value float64
}

func (p *ChartPoint) UnmarshalJSON(b []byte) error {
	var raw []float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("chart point: want 2 values, got %d", len(raw))
	}
	p.Time = time.UnixMilli(int64(raw[0])).UTC()
	p.Value = raw[1]
	return nil
}

type MarketChart struct {
	Prices []ChartPoint `json:"prices"`
}

// CoinsMarkets fetches one page of the market listing, ordered by market cap.
func (c *CoinGeckoClient) CoinsMarkets(ctx context.Context, currency models.Currency, page int) ([]MarketCoin, error) {
	q := url.Values{}
	q.Set("vs_currency", currency.Code())
	q.Set("order", c.order)
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("page", strconv.Itoa(page))

	var out []MarketCoin
	if err := c.get(ctx, "markets", "/coins/markets", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarketChartRange fetches the price history of a coin between two instants.
func (c *CoinGeckoClient) MarketChartRange(ctx context.Context, id string, currency models.Currency, from, to time.Time) (*MarketChart, error) {
	q := url.Values{}
	q.Set("vs_currency", currency.Code())
	q.Set("from", strconv.FormatInt(from.Unix(), 10))
	q.Set("to", strconv.FormatInt(to.Unix(), 10))

	var out MarketChart
	if err := c.get(ctx, "market_chart_range", "/coins/"+url.PathEscape(id)+"/market_chart/range", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReadCoins walks every configured page of the USD market listing. A coin
// listed on several pages keeps its first occurrence.
func (c *CoinGeckoClient) ReadCoins(ctx context.Context) ([]models.Coin, error) {
	seen := make(map[string]struct{})
	var coins []models.Coin
	for page := 1; page <= c.pages; page++ {
		rows, err := c.CoinsMarkets(ctx, models.USD, page)
		if err != nil {
			return nil, fmt.Errorf("coins page %d: %w", page, err)
		}
		for _, r := range rows {
			if _, dup := seen[r.ID]; dup || r.ID == "" {
				continue
			}
			seen[r.ID] = struct{}{}
			coins = append(coins, r.Coin())
		}
		if len(rows) < c.perPage {
			break
		}
	}
	c.log.WithField("coins", len(coins)).Info("read coin listing")
	return coins, nil
}

// ReadPrices returns the coin's price samples in [from, to].
func (c *CoinGeckoClient) ReadPrices(ctx context.Context, coin models.Coin, currency models.Currency, from, to time.Time) ([]models.PriceSample, error) {
	chart, err := c.MarketChartRange(ctx, coin.ID, currency, from, to)
	if err != nil {
		return nil, err
	}
	samples := make([]models.PriceSample, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		samples = append(samples, models.PriceSample{Price: p.Value, Timestamp: p.Time, Coin: coin})
	}
	return samples, nil
}

func (c *CoinGeckoClient) get(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	u := c.baseURL + path + "?" + q.Encode()

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set(apiKeyHeader, c.apiKey)
		}
		return req, nil
	})
	if err != nil {
		metrics.CoinGeckoRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("coingecko %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	metrics.CoinGeckoRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("coingecko %s returned status %d: %s", endpoint, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}
