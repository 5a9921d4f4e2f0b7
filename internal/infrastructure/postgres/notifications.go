package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yettensyvus/InternshipFinder/internal/domain"
)

const notificationColumns = `id, user_id, title, message, type, actor_email, job_id, application_id, read, created_at`

type NotificationRepo struct {
	db *sql.DB
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func scanNotification(s rowScanner) (*domain.Notification, error) {
	var (
		n     domain.Notification
		typ   string
		actor sql.NullString
		job   sql.NullInt64
		app   sql.NullInt64
	)
	if err := s.Scan(&n.NotificationID, &n.UserID, &n.Title, &n.Message, &typ, &actor, &job, &app, &n.Read, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Type = domain.NotificationType(typ)
	n.ActorEmail = actor.String
	n.JobID = int64Ptr(job)
	n.ApplicationID = int64Ptr(app)
	return &n, nil
}

func insertNotification(ctx context.Context, db DBTX, n *domain.Notification) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO notifications (`+notificationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		n.NotificationID, n.UserID, n.Title, n.Message, string(n.Type), nullString(n.ActorEmail),
		nullInt64(n.JobID), nullInt64(n.ApplicationID), n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	return insertNotification(ctx, r.db, n)
}

// PutMany writes a fan-out atomically.
func (r *NotificationRepo) PutMany(ctx context.Context, ns []domain.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		for i := range ns {
			if err := insertNotification(ctx, tx, &ns[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, notificationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// ListByRecipient returns the recipient's notifications newest first,
// restricted to [from, to] when both bounds are given.
func (r *NotificationRepo) ListByRecipient(ctx context.Context, userID string, from, to *time.Time) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	args := []any{userID}
	if from != nil && to != nil {
		query += ` AND created_at BETWEEN $2 AND $3`
		args = append(args, *from, *to)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, notificationID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res, "notification")
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *NotificationRepo) DeleteByUser(ctx context.Context, userID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
