package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/yettensyvus/InternshipFinder/internal/domain"
	"github.com/yettensyvus/InternshipFinder/internal/pkg/id"
)

// Service holds the admin operations on accounts.
type Service interface {
	SetEnabled(ctx context.Context, userID string, enabled bool) error
	Delete(ctx context.Context, userID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	SetEnabled(ctx context.Context, userID string, enabled bool) error
	Delete(ctx context.Context, u *domain.User, events []domain.OutboxEvent) error
}

type service struct {
	repo userStore
	now  func() time.Time
}

type ServiceDeps struct {
	UserRepo userStore
	Now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{repo: deps.UserRepo, now: deps.Now}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SetEnabled blocks or unblocks an account.
func (s *service) SetEnabled(ctx context.Context, userID string, enabled bool) error {
	if err := s.repo.SetEnabled(ctx, userID, enabled); err != nil {
		return err
	}
	slog.Info("user enabled flag changed", "user_id", userID, "enabled", enabled)
	return nil
}

// Delete removes the account and its email claim. Notifications, OTP tokens
// and stored blobs are cleaned up by the outbox dispatcher after commit.
func (s *service) Delete(ctx context.Context, userID string) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, u, s.cleanupEvents(u)); err != nil {
		return err
	}
	slog.Info("user deleted", "user_id", userID)
	return nil
}

func (s *service) cleanupEvents(u *domain.User) []domain.OutboxEvent {
	now := s.now().UTC()
	events := []domain.OutboxEvent{{
		EventID:   id.NewAt(now),
		Kind:      domain.OutboxUserPurge,
		Subject:   u.UserID,
		CreatedAt: now,
	}}
	for _, key := range u.BlobKeys() {
		events = append(events, domain.OutboxEvent{
			EventID:   id.NewAt(now),
			Kind:      domain.OutboxBlobDelete,
			Subject:   key,
			CreatedAt: now,
		})
	}
	return events
}
