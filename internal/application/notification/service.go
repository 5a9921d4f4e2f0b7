package notification

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/yettensyvus/InternshipFinder/internal/domain"
	"github.com/yettensyvus/InternshipFinder/internal/infrastructure/metrics"
	"github.com/yettensyvus/InternshipFinder/internal/pkg/id"
)

type Service interface {
	Append(ctx context.Context, recipientID string, in domain.NewNotification) (*domain.Notification, error)
	CreateForSelf(ctx context.Context, who domain.Identity, req domain.CreateNotificationRequest) (*domain.NotificationView, error)
	FanOutToAdmins(ctx context.Context, in domain.NewNotification) ([]domain.Notification, error)
	ListFiltered(ctx context.Context, recipientID string, f domain.NotificationFilter) ([]domain.NotificationView, error)
	UnreadCount(ctx context.Context, recipientID string) (int, error)
	MarkRead(ctx context.Context, recipientID, notificationID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int, error)
	ClearAll(ctx context.Context, recipientID string) (int, error)
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	PutMany(ctx context.Context, ns []domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByRecipient(ctx context.Context, userID string, from, to *time.Time) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

type adminDirectory interface {
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

type service struct {
	repo    notificationStore
	users   adminDirectory
	now     func() time.Time
	metrics *metrics.Recorder
}

type ServiceDeps struct {
	NotificationRepo notificationStore
	UserRepo         adminDirectory
	Now              func() time.Time
	Metrics          *metrics.Recorder
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:    deps.NotificationRepo,
		users:   deps.UserRepo,
		now:     deps.Now,
		metrics: deps.Metrics,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop()
	}
	return s
}

// stamp is the creation time for new rows, cut to the microsecond precision
// PostgreSQL keeps so a returned createdAt round-trips as a filter bound.
func (s *service) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *service) build(recipientID string, in domain.NewNotification, at time.Time) domain.Notification {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = domain.DefaultNotificationTitle
	}
	var message string
	if in.Message != nil {
		message = *in.Message
	}
	typ := in.Type
	if typ == "" {
		typ = domain.NotificationGeneric
	}
	return domain.Notification{
		NotificationID: id.NewAt(at),
		UserID:         recipientID,
		Title:          title,
		Message:        message,
		Type:           typ,
		ActorEmail:     strings.TrimSpace(in.ActorEmail),
		JobID:          in.JobID,
		ApplicationID:  in.ApplicationID,
		CreatedAt:      at,
	}
}

func (s *service) Append(ctx context.Context, recipientID string, in domain.NewNotification) (*domain.Notification, error) {
	n := s.build(recipientID, in, s.stamp())
	if err := s.repo.Put(ctx, &n); err != nil {
		return nil, fmt.Errorf("append notification: %w", err)
	}
	s.metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	return &n, nil
}

func (s *service) CreateForSelf(ctx context.Context, who domain.Identity, req domain.CreateNotificationRequest) (*domain.NotificationView, error) {
	in := domain.NewNotification{
		Type:          domain.ParseNotificationType(req.Type),
		Title:         req.Title,
		ActorEmail:    req.ActorEmail,
		JobID:         req.JobID,
		ApplicationID: req.ApplicationID,
	}
	if req.Message != nil {
		msg := strings.TrimSpace(*req.Message)
		in.Message = &msg
	}
	n, err := s.Append(ctx, who.UserID, in)
	if err != nil {
		return nil, err
	}
	v := n.View()
	return &v, nil
}

// FanOutToAdmins writes one identical record per current admin.
func (s *service) FanOutToAdmins(ctx context.Context, in domain.NewNotification) ([]domain.Notification, error) {
	admins, err := s.users.ListByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	out := make([]domain.Notification, 0, len(admins))
	if len(admins) == 0 {
		return out, nil
	}
	at := s.stamp()
	for _, a := range admins {
		out = append(out, s.build(a.UserID, in, at))
	}
	if err := s.repo.PutMany(ctx, out); err != nil {
		return nil, fmt.Errorf("fan out notification: %w", err)
	}
	s.metrics.NotificationsCreated.WithLabelValues(string(out[0].Type)).Add(float64(len(out)))
	return out, nil
}

func (s *service) ListFiltered(ctx context.Context, recipientID string, f domain.NotificationFilter) ([]domain.NotificationView, error) {
	var from, to *time.Time
	if f.HasWindow() {
		from, to = f.From, f.To
	}
	ns, err := s.repo.ListByRecipient(ctx, recipientID, from, to)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(ns, func(a, b domain.Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	views := make([]domain.NotificationView, 0, len(ns))
	for i := range ns {
		n := &ns[i]
		if n.UserID != recipientID || !f.InWindow(n) || !f.Matches(n) {
			continue
		}
		views = append(views, n.View())
	}
	return views, nil
}

func (s *service) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	return s.repo.CountUnread(ctx, recipientID)
}

// MarkRead is idempotent for the owner and rejects everyone else.
func (s *service) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != recipientID {
		return domain.ErrNotAllowed
	}
	if n.Read {
		return nil
	}
	return s.repo.MarkRead(ctx, notificationID)
}

func (s *service) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	return s.repo.MarkAllRead(ctx, recipientID)
}

func (s *service) ClearAll(ctx context.Context, recipientID string) (int, error) {
	return s.repo.DeleteByUser(ctx, recipientID)
}
