// Package app wires configuration, storage and services into a runnable
// process. Both the API server and the operator CLI build on it.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yettensyvus/InternshipFinder/internal/config"
	"github.com/yettensyvus/InternshipFinder/internal/domain"
	"github.com/yettensyvus/InternshipFinder/internal/infrastructure/dynamo"
	"github.com/yettensyvus/InternshipFinder/internal/infrastructure/postgres"
)

// UserStore is implemented by both the DynamoDB and the Postgres user repos.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	SetEnabled(ctx context.Context, userID string, enabled bool) error
	Delete(ctx context.Context, u *domain.User, events []domain.OutboxEvent) error
}

type OtpStore interface {
	Insert(ctx context.Context, t *domain.OtpToken) error
	ListActive(ctx context.Context, userID string, purpose domain.OtpPurpose, limit int) ([]domain.OtpToken, error)
	Consume(ctx context.Context, t *domain.OtpToken, consumedAt time.Time, mut *domain.UserMutation) error
	DeleteReapable(ctx context.Context, now time.Time) (int, error)
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

type NotificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	PutMany(ctx context.Context, ns []domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByRecipient(ctx context.Context, userID string, from, to *time.Time) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

type OutboxStore interface {
	Pending(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkDispatched(ctx context.Context, eventID string, at time.Time) error
	MarkFailed(ctx context.Context, eventID string, attempts int, lastErr string) error
	Park(ctx context.Context, eventID string, attempts int, lastErr string, at time.Time) error
}

// Stores groups the repositories of the selected backend.
type Stores struct {
	Users         UserStore
	Otp           OtpStore
	Notifications NotificationStore
	Outbox        OutboxStore

	db *sql.DB
}

// Close releases the backend connection, if any.
func (s *Stores) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// OpenStores selects the backend named by cfg.StoreDriver. With prepare set,
// DynamoDB tables are created and Postgres migrations applied first.
func OpenStores(ctx context.Context, cfg *config.Config, prepare bool) (*Stores, error) {
	switch cfg.StoreDriver {
	case "dynamo":
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("dynamo client: %w", err)
		}
		if prepare {
			if err := dynamo.Bootstrap(ctx, client, cfg.DynamoTables); err != nil {
				return nil, fmt.Errorf("bootstrap tables: %w", err)
			}
		}
		users := dynamo.NewUserRepo(client, cfg.DynamoTables)
		return &Stores{
			Users:         users,
			Otp:           dynamo.NewOtpRepo(client, cfg.DynamoTables.OtpTokens, users),
			Notifications: dynamo.NewNotificationRepo(client, cfg.DynamoTables.Notifications),
			Outbox:        dynamo.NewOutboxRepo(client, cfg.DynamoTables.Outbox),
		}, nil
	case "postgres":
		db, err := postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if prepare {
			if err := postgres.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return &Stores{
			Users:         postgres.NewUserRepo(db),
			Otp:           postgres.NewOtpRepo(db),
			Notifications: postgres.NewNotificationRepo(db),
			Outbox:        postgres.NewOutboxRepo(db),
			db:            db,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
