package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kjannette/launchpool-backend/internal/logger"
	"github.com/kjannette/launchpool-backend/internal/metrics"
)

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// RetryAfterDefault is the wait after a 429 that carries no usable
	// Retry-After header.
	RetryAfterDefault time.Duration
}

var DefaultRetry = RetryConfig{
	MaxAttempts:       3,
	BaseDelay:         1 * time.Second,
	MaxDelay:          10 * time.Second,
	RetryAfterDefault: 60 * time.Second,
}

// StatusError is a retryable HTTP response that was still failing when the
// attempts ran out.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRateLimited reports whether err carries a 429 response.
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests
}

// Do executes an HTTP request, retrying transport errors and 5xx responses
// with exponential backoff and 429 responses after the server's Retry-After.
// The buildReq function is called on each attempt to produce a fresh request
// (required because request bodies are consumed on each attempt).
// Any other response is returned as is.
func Do(ctx context.Context, client *http.Client, cfg RetryConfig, buildReq func() (*http.Request, error)) (*http.Response, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultRetry.MaxAttempts
	}
	if cfg.RetryAfterDefault <= 0 {
		cfg.RetryAfterDefault = DefaultRetry.RetryAfterDefault
	}

	log := logger.WithComponent("retry")
	var lastErr error
	backoff := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		req, err := buildReq()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		var (
			wait   time.Duration
			reason string
		)
		resp, err := client.Do(req)
		switch {
		case err != nil:
			lastErr, wait, reason = err, backoff, "transport"
		case resp.StatusCode == http.StatusTooManyRequests:
			se := drain(resp)
			se.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), time.Now(), cfg.RetryAfterDefault)
			lastErr, wait, reason = se, se.RetryAfter, "rate_limited"
		case resp.StatusCode >= 500:
			lastErr, wait, reason = drain(resp), backoff, "server_error"
		default:
			return resp, nil
		}

		if attempt == cfg.MaxAttempts {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		metrics.HTTPRetries.WithLabelValues(reason).Inc()
		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"max":     cfg.MaxAttempts,
			"wait":    wait.String(),
			"reason":  reason,
		}).WithError(lastErr).Warn("request failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		if reason != "rate_limited" {
			backoff *= 2
			if cfg.MaxDelay > 0 && backoff > cfg.MaxDelay {
				backoff = cfg.MaxDelay
			}
		}
	}

	return nil, fmt.Errorf("all %d attempts failed, last error: %w", cfg.MaxAttempts, lastErr)
}

func drain(resp *http.Response) *StatusError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// parseRetryAfter accepts delta-seconds or an HTTP-date. A date in the past
// means no wait.
func parseRetryAfter(v string, now time.Time, fallback time.Duration) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return fallback
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return fallback
}
