// Package sweeper removes expired sessions on a fixed interval.
package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/staroracle/internal/observability"
)

type SessionSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

type Config struct {
	Interval time.Duration
	// per-sweep deadline
	Timeout time.Duration
}

type Sweeper struct {
	cfg    Config
	store  SessionSweeper
	logger *slog.Logger
	prom   *observability.Prom

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, store SessionSweeper, logger *slog.Logger, prom *observability.Prom) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Sweeper{
		cfg:    cfg,
		store:  store,
		logger: logger,
		prom:   prom,
	}
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.setReady(true)
	defer s.setReady(false)

	s.logger.Info("sweeper_started", "interval", s.cfg.Interval.String())
	_, _ = s.SweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper_stopped")
			return nil

		case <-ticker.C:
			_, _ = s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single sweep bounded by the configured timeout.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	n, err := s.store.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("sessions_sweep_failed", "err", err, "latency_ms", time.Since(start).Milliseconds())
		return 0, err
	}

	s.prom.ObserveSweep(n)
	if n > 0 {
		s.logger.Info("sessions_swept", "count", n, "latency_ms", time.Since(start).Milliseconds())
	}
	return n, nil
}

func (s *Sweeper) Ready() bool {
	s.readyMu.RLock()
	defer s.readyMu.RUnlock()
	return s.ready
}

func (s *Sweeper) setReady(v bool) {
	s.readyMu.Lock()
	s.ready = v
	s.readyMu.Unlock()
}
