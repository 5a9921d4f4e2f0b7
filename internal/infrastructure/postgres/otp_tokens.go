package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yettensyvus/InternshipFinder/internal/domain"
)

type OtpRepo struct {
	db *sql.DB
}

func NewOtpRepo(db *sql.DB) *OtpRepo {
	return &OtpRepo{db: db}
}

func (r *OtpRepo) Insert(ctx context.Context, t *domain.OtpToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_tokens (id, user_id, purpose, code, target_email, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.TokenID, t.UserID, string(t.Purpose), t.Code, nullString(t.TargetEmail), t.CreatedAt, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListActive returns up to limit unconsumed tokens for (user, purpose),
// newest first. Expired rows are included; the caller decides.
func (r *OtpRepo) ListActive(ctx context.Context, userID string, purpose domain.OtpPurpose, limit int) ([]domain.OtpToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, purpose, code, target_email, created_at, expires_at
		 FROM otp_tokens
		 WHERE user_id = $1 AND purpose = $2 AND consumed_at IS NULL
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3`,
		userID, string(purpose), limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var tokens []domain.OtpToken
	for rows.Next() {
		var (
			t       domain.OtpToken
			purpose string
			target  sql.NullString
		)
		if err := rows.Scan(&t.TokenID, &t.UserID, &purpose, &t.Code, &target, &t.CreatedAt, &t.ExpiresAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		t.Purpose = domain.OtpPurpose(purpose)
		t.TargetEmail = target.String
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// Consume sets consumed_at only while it is still NULL and applies mut in
// the same transaction. Zero rows updated means another request won.
func (r *OtpRepo) Consume(ctx context.Context, t *domain.OtpToken, consumedAt time.Time, mut *domain.UserMutation) error {
	return WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE otp_tokens SET consumed_at = $2 WHERE id = $1 AND consumed_at IS NULL`,
			t.TokenID, consumedAt)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("consume otp: %w", domain.ErrAlreadyConsumed)
		}
		if mut == nil {
			return nil
		}
		return applyMutation(ctx, tx, mut, consumedAt)
	})
}

func (r *OtpRepo) DeleteReapable(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_tokens WHERE expires_at < $1 OR consumed_at IS NOT NULL`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *OtpRepo) DeleteByUser(ctx context.Context, userID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otp_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
