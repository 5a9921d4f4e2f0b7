// Package outbox runs side effects recorded alongside committed state changes.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yettensyvus/InternshipFinder/internal/domain"
	"github.com/yettensyvus/InternshipFinder/internal/infrastructure/metrics"
)

type eventStore interface {
	Pending(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkDispatched(ctx context.Context, eventID string, at time.Time) error
	MarkFailed(ctx context.Context, eventID string, attempts int, lastErr string) error
	Park(ctx context.Context, eventID string, attempts int, lastErr string, at time.Time) error
}

type blobDeleter interface {
	Delete(ctx context.Context, key string) error
}

// userPurger removes every row a user owns in one table.
type userPurger interface {
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

type Dispatcher struct {
	events        eventStore
	blobs         blobDeleter
	notifications userPurger
	tokens        userPurger
	interval      time.Duration
	batch         int
	maxAttempts   int
	now           func() time.Time
	metrics       *metrics.Recorder
}

type DispatcherDeps struct {
	OutboxRepo       eventStore
	Blobs            blobDeleter
	NotificationRepo userPurger
	OtpRepo          userPurger
	Interval         time.Duration
	Batch            int
	MaxAttempts      int
	Metrics          *metrics.Recorder
}

func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	d := &Dispatcher{
		events:        deps.OutboxRepo,
		blobs:         deps.Blobs,
		notifications: deps.NotificationRepo,
		tokens:        deps.OtpRepo,
		interval:      deps.Interval,
		batch:         deps.Batch,
		maxAttempts:   deps.MaxAttempts,
		now:           time.Now,
		metrics:       deps.Metrics,
	}
	if d.batch <= 0 {
		d.batch = 50
	}
	if d.maxAttempts <= 0 {
		d.maxAttempts = 5
	}
	if d.interval <= 0 {
		d.interval = 30 * time.Second
	}
	if d.metrics == nil {
		d.metrics = metrics.Nop()
	}
	return d
}

// DrainOnce handles one batch of pending events, oldest first. A failed event
// stays pending with its attempt count bumped until it reaches maxAttempts,
// then it is parked so it no longer occupies the batch.
func (d *Dispatcher) DrainOnce(ctx context.Context) (int, error) {
	events, err := d.events.Pending(ctx, d.batch)
	if err != nil {
		return 0, fmt.Errorf("load pending outbox: %w", err)
	}
	var (
		dispatched int
		errs       []error
	)
	for _, ev := range events {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		herr := d.handle(ctx, ev)
		if herr != nil {
			if err := d.fail(ctx, ev, herr); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		d.metrics.OutboxDispatched.WithLabelValues(string(ev.Kind), "ok").Inc()
		if err := d.events.MarkDispatched(ctx, ev.EventID, d.now().UTC()); err != nil {
			errs = append(errs, fmt.Errorf("mark outbox %s dispatched: %w", ev.EventID, err))
			continue
		}
		dispatched++
	}
	return dispatched, errors.Join(errs...)
}

func (d *Dispatcher) fail(ctx context.Context, ev domain.OutboxEvent, cause error) error {
	attempts := ev.Attempts + 1
	if attempts >= d.maxAttempts {
		d.metrics.OutboxDispatched.WithLabelValues(string(ev.Kind), "parked").Inc()
		slog.Error("outbox event parked", "event_id", ev.EventID, "kind", ev.Kind, "attempts", attempts, "err", cause)
		if err := d.events.Park(ctx, ev.EventID, attempts, cause.Error(), d.now().UTC()); err != nil {
			return fmt.Errorf("park outbox %s: %w", ev.EventID, err)
		}
		return nil
	}
	d.metrics.OutboxDispatched.WithLabelValues(string(ev.Kind), "error").Inc()
	slog.Warn("outbox event failed", "event_id", ev.EventID, "kind", ev.Kind, "attempt", attempts, "err", cause)
	if err := d.events.MarkFailed(ctx, ev.EventID, attempts, cause.Error()); err != nil {
		return fmt.Errorf("mark outbox %s failed: %w", ev.EventID, err)
	}
	return nil
}

func (d *Dispatcher) handle(ctx context.Context, ev domain.OutboxEvent) error {
	switch ev.Kind {
	case domain.OutboxBlobDelete:
		return d.blobs.Delete(ctx, ev.Subject)
	case domain.OutboxUserPurge:
		if _, err := d.notifications.DeleteByUser(ctx, ev.Subject); err != nil {
			return fmt.Errorf("purge notifications: %w", err)
		}
		if _, err := d.tokens.DeleteByUser(ctx, ev.Subject); err != nil {
			return fmt.Errorf("purge otp tokens: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown outbox kind %q", ev.Kind)
	}
}

// Run drains on every tick until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	slog.Info("outbox dispatcher started", "interval", d.interval.String(), "batch", d.batch)
	for {
		select {
		case <-ctx.Done():
			slog.Info("outbox dispatcher stopped")
			return
		case <-ticker.C:
			n, err := d.DrainOnce(ctx)
			if err != nil {
				slog.Error("outbox drain failed", "dispatched", n, "err", err)
				continue
			}
			if n > 0 {
				slog.Info("outbox drained", "dispatched", n)
			}
		}
	}
}
