// Package scheduler drives the periodic refresh and the daily digest.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler ticks the refresh interval and fires the digest once per
// day at a fixed UTC time. The callbacks own their error handling; the
// scheduler only decides when to call them.
type Scheduler struct {
	refresh         func(ctx context.Context)
	digest          func(ctx context.Context)
	refreshInterval time.Duration
	digestHour      int
	digestMinute    int
	now             func() time.Time
}

// New creates a Scheduler. refreshInterval must be positive. digest may
// be nil when delivery is not configured; the daily slot is then skipped.
func New(refresh func(ctx context.Context), digest func(ctx context.Context), refreshInterval time.Duration, digestHour, digestMinute int) *Scheduler {
	return &Scheduler{
		refresh:         refresh,
		digest:          digest,
		refreshInterval: refreshInterval,
		digestHour:      digestHour,
		digestMinute:    digestMinute,
		now:             time.Now,
	}
}

// Start runs the scheduling loop until the context is canceled. It
// blocks, so callers usually run it in a goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	refreshTicker := time.NewTicker(s.refreshInterval)
	defer refreshTicker.Stop()

	digestTimer := time.NewTimer(s.untilNextDigest())
	defer digestTimer.Stop()

	slog.Info("scheduler started",
		"refresh_interval", s.refreshInterval.String(),
		"digest_time_utc", time.Date(0, 1, 1, s.digestHour, s.digestMinute, 0, 0, time.UTC).Format("15:04"),
	)

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return

		case <-refreshTicker.C:
			s.refresh(ctx)

		case <-digestTimer.C:
			if s.digest != nil {
				s.digest(ctx)
			} else {
				slog.Info("digest skipped, delivery not configured")
			}
			digestTimer.Reset(s.untilNextDigest())
		}
	}
}

// untilNextDigest computes the wait until the next daily send time in
// UTC, always at least one minute out to avoid double-firing around the
// boundary.
func (s *Scheduler) untilNextDigest() time.Duration {
	now := s.now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.digestHour, s.digestMinute, 0, 0, time.UTC)
	if !next.After(now.Add(time.Minute)) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
