package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kjannette/launchpool-backend/internal/httputil"
	"github.com/kjannette/launchpool-backend/internal/logger"
)

const DefaultAppName = "LaunchpoolBalance"

// Sender posts operational messages to a Slack or Discord webhook. With no
// webhook configured messages only go to the log.
type Sender struct {
	webhookURL string
	appName    string
	httpClient *http.Client
	retry      httputil.RetryConfig
	log        *logrus.Entry
}

func NewSender(webhookURL, appName string) *Sender {
	if appName == "" {
		appName = DefaultAppName
	}
	return &Sender{
		webhookURL: webhookURL,
		appName:    appName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts:       3,
			BaseDelay:         1 * time.Second,
			MaxDelay:          5 * time.Second,
			RetryAfterDefault: 5 * time.Second,
		},
		log: logger.WithComponent("notifications"),
	}
}

func (s *Sender) Send(msg string) {
	s.log.WithField("app", s.appName).Info(msg)

	if s.webhookURL == "" {
		return
	}

	body, err := json.Marshal(s.formatPayload(fmt.Sprintf("[%s] %s", s.appName, msg)))
	if err != nil {
		s.log.WithError(err).Error("marshal webhook payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := httputil.Do(ctx, s.httpClient, s.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		s.log.WithError(err).Error("failed to send notification after retries")
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		s.log.WithField("status", resp.StatusCode).Error("webhook rejected notification")
	}
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.appName,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.appName,
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}
