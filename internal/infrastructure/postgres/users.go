package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yettensyvus/InternshipFinder/internal/domain"
)

const userColumns = `id, username, email, password_hash, role, enabled, profile_picture_key, resume_key, created_at, updated_at`

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func scanUser(s rowScanner) (*domain.User, error) {
	var (
		u       domain.User
		role    string
		picture sql.NullString
		resume  sql.NullString
	)
	if err := s.Scan(&u.UserID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.Enabled,
		&picture, &resume, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.ProfilePictureKey = picture.String
	u.ResumeKey = resume.String
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.UserID, u.Username, u.Email, u.PasswordHash, string(u.Role), u.Enabled,
		nullString(u.ProfilePictureKey), nullString(u.ResumeKey), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user: %w", domain.ErrEmailAlreadyRegistered)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *UserRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at`, string(role))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepo) SetEnabled(ctx context.Context, userID string, enabled bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET enabled = $2, updated_at = $3 WHERE id = $1`,
		userID, enabled, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res, "user")
}

// Delete removes the user and records the follow-up outbox events in one
// transaction. Tokens and notifications cascade.
func (r *UserRepo) Delete(ctx context.Context, u *domain.User, events []domain.OutboxEvent) error {
	return WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, u.UserID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if err := requireAffected(res, "user"); err != nil {
			return err
		}
		for i := range events {
			if err := insertOutbox(ctx, tx, &events[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// applyMutation updates the credential columns named by mut inside tx.
func applyMutation(ctx context.Context, tx DBTX, mut *domain.UserMutation, now time.Time) error {
	sets := []string{"updated_at = $2"}
	args := []any{mut.UserID, now}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if mut.PasswordHash != nil {
		add("password_hash", *mut.PasswordHash)
	}
	if mut.Email != nil {
		add("email", *mut.Email)
	}
	if mut.Enabled != nil {
		add("enabled", *mut.Enabled)
	}

	res, err := tx.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update user: %w", domain.ErrEmailAlreadyRegistered)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res, "user")
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s not found: %w", what, domain.ErrNotFound)
	}
	return nil
}
