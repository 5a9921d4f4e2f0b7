package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yettensyvus/InternshipFinder/internal/domain"
	"github.com/yettensyvus/InternshipFinder/internal/infrastructure/metrics"
)

// memStore keeps notifications in insertion order.
type memStore struct {
	rows []domain.Notification
}

func (m *memStore) Put(_ context.Context, n *domain.Notification) error {
	m.rows = append(m.rows, *n)
	return nil
}
func (m *memStore) PutMany(_ context.Context, ns []domain.Notification) error {
	m.rows = append(m.rows, ns...)
	return nil
}
func (m *memStore) Get(_ context.Context, id string) (*domain.Notification, error) {
	for i := range m.rows {
		if m.rows[i].NotificationID == id {
			n := m.rows[i]
			return &n, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (m *memStore) ListByRecipient(_ context.Context, userID string, from, to *time.Time) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range m.rows {
		if n.UserID != userID {
			continue
		}
		if from != nil && to != nil && (n.CreatedAt.Before(*from) || n.CreatedAt.After(*to)) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
func (m *memStore) CountUnread(_ context.Context, userID string) (int, error) {
	c := 0
	for _, n := range m.rows {
		if n.UserID == userID && !n.Read {
			c++
		}
	}
	return c, nil
}
func (m *memStore) MarkRead(_ context.Context, id string) error {
	for i := range m.rows {
		if m.rows[i].NotificationID == id {
			m.rows[i].Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}
func (m *memStore) MarkAllRead(_ context.Context, userID string) (int, error) {
	c := 0
	for i := range m.rows {
		if m.rows[i].UserID == userID && !m.rows[i].Read {
			m.rows[i].Read = true
			c++
		}
	}
	return c, nil
}
func (m *memStore) DeleteByUser(_ context.Context, userID string) (int, error) {
	kept := m.rows[:0]
	c := 0
	for _, n := range m.rows {
		if n.UserID == userID {
			c++
			continue
		}
		kept = append(kept, n)
	}
	m.rows = kept
	return c, nil
}

type mockDirectory struct{ mock.Mock }

func (m *mockDirectory) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	args := m.Called(ctx, role)
	us, _ := args.Get(0).([]domain.User)
	return us, args.Error(1)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestService() (Service, *memStore, *mockDirectory, *clock) {
	store := &memStore{}
	dir := new(mockDirectory)
	c := &clock{t: t0}
	svc := NewService(ServiceDeps{NotificationRepo: store, UserRepo: dir, Now: c.now, Metrics: metrics.Nop()})
	return svc, store, dir, c
}

func ptr[T any](v T) *T { return &v }

var ctx = context.Background()

func TestAppend_Defaults(t *testing.T) {
	svc, _, _, _ := newTestService()

	n, err := svc.Append(ctx, "u1", domain.NewNotification{Type: domain.NotificationJobPosted, Title: "  "})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultNotificationTitle, n.Title)
	assert.Equal(t, "", n.Message)
	assert.False(t, n.Read)
	assert.Equal(t, t0, n.CreatedAt)
	assert.Equal(t, "u1", n.UserID)
}

func TestAppend_CreatedAtIsMicrosecondPrecision(t *testing.T) {
	svc, _, dir, c := newTestService()
	c.t = t0.Add(1234567 * time.Nanosecond)

	n, err := svc.Append(ctx, "u1", domain.NewNotification{Title: "Reminder"})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(1234*time.Microsecond), n.CreatedAt)

	// The returned instant works as both inclusive bounds.
	got, err := svc.ListFiltered(ctx, "u1", domain.NotificationFilter{From: &n.CreatedAt, To: &n.CreatedAt})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, n.NotificationID, got[0].ID)

	dir.On("ListByRole", ctx, domain.RoleAdmin).Return([]domain.User{{UserID: "a1"}}, nil)
	out, err := svc.FanOutToAdmins(ctx, domain.NewNotification{Title: "New user"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, t0.Add(1234*time.Microsecond), out[0].CreatedAt)
}

func TestCreateForSelf_TrimsAndDefaultsType(t *testing.T) {
	svc, store, _, _ := newTestService()

	v, err := svc.CreateForSelf(ctx, domain.Identity{UserID: "u1"}, domain.CreateNotificationRequest{
		Title:   " Hello ",
		Message: ptr("  body  "),
		Type:    "something-new",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", v.Title)
	assert.Equal(t, "body", v.Message)
	assert.Equal(t, domain.NotificationGeneric, v.Type)
	require.Len(t, store.rows, 1)
	assert.Equal(t, "u1", store.rows[0].UserID)
}

func TestFanOutToAdmins_NoAdmins(t *testing.T) {
	svc, store, dir, _ := newTestService()
	dir.On("ListByRole", ctx, domain.RoleAdmin).Return([]domain.User{}, nil)

	out, err := svc.FanOutToAdmins(ctx, domain.NewNotification{Type: domain.NotificationUserRegistered, Title: "New user"})
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Empty(t, store.rows)
}

func TestFanOutToAdmins_OnePerAdmin(t *testing.T) {
	svc, store, dir, _ := newTestService()
	dir.On("ListByRole", ctx, domain.RoleAdmin).Return([]domain.User{{UserID: "a1"}, {UserID: "a2"}, {UserID: "a3"}}, nil)

	out, err := svc.FanOutToAdmins(ctx, domain.NewNotification{Type: domain.NotificationJobPosted, Title: "Job", Message: ptr("m"), JobID: ptr(int64(7))})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Len(t, store.rows, 3)

	seen := map[string]bool{}
	for _, n := range out {
		seen[n.UserID] = true
		assert.Equal(t, "Job", n.Title)
		assert.Equal(t, "m", n.Message)
		assert.Equal(t, int64(7), *n.JobID)
		assert.Equal(t, out[0].CreatedAt, n.CreatedAt)
	}
	assert.Equal(t, map[string]bool{"a1": true, "a2": true, "a3": true}, seen)
}

func TestFanOutToAdmins_DirectoryError(t *testing.T) {
	svc, store, dir, _ := newTestService()
	dir.On("ListByRole", ctx, domain.RoleAdmin).Return(nil, assert.AnError)

	_, err := svc.FanOutToAdmins(ctx, domain.NewNotification{})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, store.rows)
}

func seed(t *testing.T, svc Service, c *clock) {
	t.Helper()
	entries := []struct {
		at  time.Duration
		in  domain.NewNotification
		who string
	}{
		{0, domain.NewNotification{Type: domain.NotificationJobPosted, Title: "j1", JobID: ptr(int64(1))}, "u1"},
		{time.Minute, domain.NewNotification{Type: domain.NotificationApplicationSubmitted, Title: "a1", ActorEmail: "Stu@Uni.edu", ApplicationID: ptr(int64(9))}, "u1"},
		{2 * time.Minute, domain.NewNotification{Type: domain.NotificationJobPosted, Title: "j2", JobID: ptr(int64(2))}, "u1"},
		{3 * time.Minute, domain.NewNotification{Type: domain.NotificationJobPosted, Title: "other"}, "u2"},
	}
	for _, e := range entries {
		c.t = t0.Add(e.at)
		_, err := svc.Append(ctx, e.who, e.in)
		require.NoError(t, err)
	}
}

func titles(vs []domain.NotificationView) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Title)
	}
	return out
}

func TestListFiltered(t *testing.T) {
	svc, _, _, c := newTestService()
	seed(t, svc, c)

	tests := []struct {
		name   string
		filter domain.NotificationFilter
		want   []string
	}{
		{name: "all newest first", want: []string{"j2", "a1", "j1"}},
		{name: "by type", filter: domain.NotificationFilter{Type: ptr(domain.NotificationJobPosted)}, want: []string{"j2", "j1"}},
		{name: "actor email case-insensitive", filter: domain.NotificationFilter{ActorEmail: "stu@UNI.edu"}, want: []string{"a1"}},
		{name: "blank actor ignored", filter: domain.NotificationFilter{ActorEmail: "  "}, want: []string{"j2", "a1", "j1"}},
		{name: "job id", filter: domain.NotificationFilter{JobID: ptr(int64(2))}, want: []string{"j2"}},
		{name: "application id", filter: domain.NotificationFilter{ApplicationID: ptr(int64(9))}, want: []string{"a1"}},
		{name: "window inclusive on both ends", filter: domain.NotificationFilter{From: ptr(t0), To: ptr(t0.Add(time.Minute))}, want: []string{"a1", "j1"}},
		{name: "single bound ignored", filter: domain.NotificationFilter{From: ptr(t0.Add(90 * time.Second))}, want: []string{"j2", "a1", "j1"}},
		{name: "predicates combine", filter: domain.NotificationFilter{Type: ptr(domain.NotificationJobPosted), JobID: ptr(int64(9))}, want: []string{}},
		{name: "unread only", filter: domain.NotificationFilter{Read: ptr(false)}, want: []string{"j2", "a1", "j1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListFiltered(ctx, "u1", tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestUnreadCount_MarkRead_MarkAllRead(t *testing.T) {
	svc, store, _, c := newTestService()
	seed(t, svc, c)

	n, err := svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	first := store.rows[0].NotificationID
	require.NoError(t, svc.MarkRead(ctx, "u1", first))
	require.NoError(t, svc.MarkRead(ctx, "u1", first))
	n, _ = svc.UnreadCount(ctx, "u1")
	assert.Equal(t, 2, n)

	read, err := svc.ListFiltered(ctx, "u1", domain.NotificationFilter{Read: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, []string{"j1"}, titles(read))

	changed, err := svc.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	n, _ = svc.UnreadCount(ctx, "u1")
	assert.Equal(t, 0, n)

	other, _ := svc.UnreadCount(ctx, "u2")
	assert.Equal(t, 1, other)
}

func TestMarkRead_OwnershipAndMissing(t *testing.T) {
	svc, store, _, c := newTestService()
	seed(t, svc, c)

	err := svc.MarkRead(ctx, "u2", store.rows[0].NotificationID)
	assert.ErrorIs(t, err, domain.ErrNotAllowed)
	assert.False(t, store.rows[0].Read)

	err = svc.MarkRead(ctx, "u1", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClearAll(t *testing.T) {
	svc, store, _, c := newTestService()
	seed(t, svc, c)

	n, err := svc.ClearAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, store.rows, 1)
	assert.Equal(t, "u2", store.rows[0].UserID)
}
