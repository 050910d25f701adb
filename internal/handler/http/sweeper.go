package http

import (
	"context"
	"log/slog"
	"time"

	"flowtune/pkg/ratelimit"
	"flowtune/pkg/security/monitor"
)

// DefaultSweepInterval is used when the configured interval is zero.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper periodically evicts idle limiter counters and stale alert
// counters so memory stays bounded under churning key sets.
type Sweeper struct {
	registry *ratelimit.Registry
	monitor  *monitor.Monitor
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a sweeper over the registry's scopes and the monitor.
// Either may be nil; nil components are skipped during sweeps.
func NewSweeper(registry *ratelimit.Registry, mon *monitor.Monitor, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		registry: registry,
		monitor:  mon,
		interval: interval,
		logger:   logger,
	}
}

// Run loops until the context is cancelled, sweeping every interval.
// Intended to run as a background goroutine owned by the server.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started", slog.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(time.Now())
		}
	}
}

// SweepOnce evicts idle state across every registered scope and the
// monitor, using now to compute per-scope cutoffs. Counters idle for two
// full windows are safe to drop: their window has long since reset, so a
// returning key starts a fresh window either way.
func (s *Sweeper) SweepOnce(now time.Time) {
	if s.registry != nil {
		for _, scope := range s.registry.Scopes() {
			limiter, err := s.registry.Get(scope)
			if err != nil {
				continue
			}
			cutoff := now.Add(-2 * limiter.Policy().Window)
			removed := limiter.Cleanup(cutoff)
			if removed > 0 {
				s.logger.Debug("rate limit counters swept",
					slog.String("scope", scope),
					slog.Int("removed", removed),
					slog.Int("active_keys", limiter.ActiveKeys()),
				)
			}
		}
	}

	if s.monitor != nil {
		if removed := s.monitor.Sweep(); removed > 0 {
			s.logger.Debug("alert counters swept", slog.Int("removed", removed))
		}
	}
}
