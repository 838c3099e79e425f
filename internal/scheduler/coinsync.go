package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kjannette/launchpool-backend/internal/logger"
	"github.com/kjannette/launchpool-backend/internal/metrics"
	"github.com/kjannette/launchpool-backend/internal/models"
)

type CoinReader interface {
	ReadCoins(ctx context.Context) ([]models.Coin, error)
}

type CoinWriter interface {
	ReplaceAll(ctx context.Context, coins []models.Coin) error
}

type Notifier interface {
	Send(msg string)
}

var ErrEmptyListing = errors.New("coin listing is empty")

type CoinSyncConfig struct {
	Interval time.Duration // default 10m
	Timeout  time.Duration // per run, default 5m
	Notifier Notifier
	OnSynced func(n int)
}

// CoinSyncScheduler mirrors the upstream coin listing into the local store
// on a fixed interval, starting immediately.
type CoinSyncScheduler struct {
	reader CoinReader
	writer CoinWriter
	cfg    CoinSyncConfig
	log    *logrus.Entry

	syncMu sync.Mutex

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	failing bool
	last    SyncStatus
}

// SyncStatus describes the most recent run.
type SyncStatus struct {
	At    time.Time `json:"at"`
	Coins int       `json:"coins"`
	Error string    `json:"error,omitempty"`
}

func NewCoinSyncScheduler(reader CoinReader, writer CoinWriter, cfg CoinSyncConfig) *CoinSyncScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &CoinSyncScheduler{
		reader: reader,
		writer: writer,
		cfg:    cfg,
		log:    logger.WithComponent("coin_sync"),
	}
}

func (s *CoinSyncScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("already running")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.runOnce(ctx)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	s.log.WithField("interval", s.cfg.Interval.String()).Info("started")
}

// Stop cancels an in-flight sync and waits for the loop to exit.
func (s *CoinSyncScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("stopped")
}

func (s *CoinSyncScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *CoinSyncScheduler) LastStatus() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// SyncNow runs a sync outside the normal schedule. Runs never overlap.
func (s *CoinSyncScheduler) SyncNow(ctx context.Context) (int, error) {
	s.log.Info("manual sync triggered")
	return s.sync(ctx)
}

func (s *CoinSyncScheduler) runOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.cfg.Timeout)
	defer cancel()
	if _, err := s.sync(ctx); err != nil && parent.Err() == nil {
		s.log.WithError(err).Error("coin sync failed")
	}
}

func (s *CoinSyncScheduler) sync(ctx context.Context) (int, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	start := time.Now()
	n, err := s.replace(ctx)
	s.record(n, err)
	if err != nil {
		metrics.CoinSyncs.WithLabelValues("error").Inc()
		return 0, err
	}

	metrics.CoinSyncs.WithLabelValues("ok").Inc()
	metrics.CoinsSynced.Set(float64(n))
	s.log.WithFields(logrus.Fields{
		"coins":    n,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	}).Info("coin sync complete")

	if s.cfg.OnSynced != nil {
		s.cfg.OnSynced(n)
	}
	return n, nil
}

func (s *CoinSyncScheduler) replace(ctx context.Context) (int, error) {
	coins, err := s.reader.ReadCoins(ctx)
	if err != nil {
		return 0, fmt.Errorf("read coins: %w", err)
	}
	if len(coins) == 0 {
		return 0, ErrEmptyListing
	}
	if err := s.writer.ReplaceAll(ctx, coins); err != nil {
		return 0, fmt.Errorf("store coins: %w", err)
	}
	return len(coins), nil
}

// record keeps the last status and notifies on the first failure and on
// recovery, so a long outage sends two messages rather than one per run.
func (s *CoinSyncScheduler) record(n int, err error) {
	s.mu.Lock()
	wasFailing := s.failing
	s.failing = err != nil
	s.last = SyncStatus{At: time.Now(), Coins: n}
	if err != nil {
		s.last.Error = err.Error()
	}
	s.mu.Unlock()

	if s.cfg.Notifier == nil {
		return
	}
	switch {
	case err != nil && !wasFailing:
		s.cfg.Notifier.Send(fmt.Sprintf("coin sync failed: %v", err))
	case err == nil && wasFailing:
		s.cfg.Notifier.Send(fmt.Sprintf("coin sync recovered: %d coins", n))
	}
}
