// Package metrics holds the Prometheus collectors shared by the service.
//
// Registered:
//
//	launchpool_calculations_total{outcome}
//	launchpool_calculation_duration_seconds
//	launchpool_coingecko_requests_total{endpoint,status}
//	launchpool_http_retries_total{reason}
//	launchpool_price_cache_total{result}
//	launchpool_coin_sync_total{outcome}
//	launchpool_coins_synced
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	Calculations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchpool_calculations_total",
			Help: "Average balance calculations by outcome",
		},
		[]string{"outcome"},
	)

	CalculationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "launchpool_calculation_duration_seconds",
			Help:    "Wall time of an average balance calculation including price fetches",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		},
	)

	CoinGeckoRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchpool_coingecko_requests_total",
			Help: "CoinGecko API requests by endpoint and final status",
		},
		[]string{"endpoint", "status"},
	)

	HTTPRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchpool_http_retries_total",
			Help: "Outbound HTTP retries by reason",
		},
		[]string{"reason"},
	)

	PriceCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchpool_price_cache_total",
			Help: "Price cache lookups by result",
		},
		[]string{"result"},
	)

	CoinSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchpool_coin_sync_total",
			Help: "Coin catalogue sync runs by outcome",
		},
		[]string{"outcome"},
	)

	CoinsSynced = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "launchpool_coins_synced",
			Help: "Number of coins stored by the last successful sync",
		},
	)
)

func init() {
	registry.MustRegister(
		Calculations,
		CalculationDuration,
		CoinGeckoRequests,
		HTTPRetries,
		PriceCache,
		CoinSyncs,
		CoinsSynced,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
