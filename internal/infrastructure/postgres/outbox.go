package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yettensyvus/InternshipFinder/internal/domain"
)

type OutboxRepo struct {
	db *sql.DB
}

func NewOutboxRepo(db *sql.DB) *OutboxRepo {
	return &OutboxRepo{db: db}
}

func insertOutbox(ctx context.Context, db DBTX, ev *domain.OutboxEvent) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO outbox (id, kind, subject, attempts, created_at) VALUES ($1, $2, $3, $4, $5)`,
		ev.EventID, string(ev.Kind), ev.Subject, ev.Attempts, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Pending returns up to limit events that are neither dispatched nor parked,
// oldest first.
func (r *OutboxRepo) Pending(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, subject, attempts, last_error, created_at
		 FROM outbox
		 WHERE dispatched_at IS NULL AND parked_at IS NULL
		 ORDER BY created_at, id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var (
			ev      domain.OutboxEvent
			kind    string
			lastErr sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &kind, &ev.Subject, &ev.Attempts, &lastErr, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ev.Kind = domain.OutboxKind(kind)
		ev.LastError = lastErr.String
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *OutboxRepo) MarkDispatched(ctx context.Context, eventID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox SET dispatched_at = $2 WHERE id = $1`, eventID, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *OutboxRepo) MarkFailed(ctx context.Context, eventID string, attempts int, lastErr string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox SET attempts = $2, last_error = $3 WHERE id = $1`, eventID, attempts, lastErr)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Park records the final failure and takes the event out of the pending set.
func (r *OutboxRepo) Park(ctx context.Context, eventID string, attempts int, lastErr string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox SET attempts = $2, last_error = $3, parked_at = $4 WHERE id = $1`, eventID, attempts, lastErr, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
