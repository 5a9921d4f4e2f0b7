// Package reaper periodically purges OTP tokens that can no longer match.
package reaper

import (
	"context"
	"log/slog"
	"time"

	"github.com/yettensyvus/InternshipFinder/internal/infrastructure/metrics"
)

type tokenPurger interface {
	DeleteReapable(ctx context.Context, now time.Time) (int, error)
}

type Reaper struct {
	tokens   tokenPurger
	interval time.Duration
	now      func() time.Time
	metrics  *metrics.Recorder
}

func New(tokens tokenPurger, interval time.Duration, rec *metrics.Recorder) *Reaper {
	if rec == nil {
		rec = metrics.Nop()
	}
	return &Reaper{tokens: tokens, interval: interval, now: time.Now, metrics: rec}
}

// Sweep deletes every consumed token and every token whose expiry has passed.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	n, err := r.tokens.DeleteReapable(ctx, r.now().UTC())
	r.metrics.ReaperRuns.WithLabelValues(metrics.Result(err)).Inc()
	r.metrics.ReaperDeleted.Add(float64(n))
	return n, err
}

// Run sweeps on every tick until ctx is cancelled. Failures are logged and
// retried on the next tick.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	slog.Info("otp reaper started", "interval", r.interval.String())
	for {
		select {
		case <-ctx.Done():
			slog.Info("otp reaper stopped")
			return
		case <-ticker.C:
			n, err := r.Sweep(ctx)
			if err != nil {
				slog.Error("otp reaper sweep failed", "deleted", n, "err", err)
				continue
			}
			if n > 0 {
				slog.Info("otp reaper sweep", "deleted", n)
			}
		}
	}
}
