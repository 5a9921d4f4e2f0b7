package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/yettensyvus/InternshipFinder/internal/domain"
	"github.com/yettensyvus/InternshipFinder/internal/transport/http/middleware"
)

// --- mocks ---

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) Register(ctx context.Context, req domain.RegisterRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
func (m *mockAuthSvc) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*domain.LoginResponse); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}
func (m *mockAuthSvc) VerifyPasswordResetOtp(ctx context.Context, email, code string) (string, error) {
	args := m.Called(ctx, email, code)
	return args.String(0), args.Error(1)
}
func (m *mockAuthSvc) ResetPassword(ctx context.Context, email, code, newPassword string) (string, error) {
	args := m.Called(ctx, email, code, newPassword)
	return args.String(0), args.Error(1)
}
func (m *mockAuthSvc) RequestPasswordChange(ctx context.Context, who domain.Identity, currentPassword string) (string, error) {
	args := m.Called(ctx, who, currentPassword)
	return args.String(0), args.Error(1)
}
func (m *mockAuthSvc) ConfirmPasswordChange(ctx context.Context, who domain.Identity, code, currentPassword, newPassword string) (string, error) {
	args := m.Called(ctx, who, code, currentPassword, newPassword)
	return args.String(0), args.Error(1)
}
func (m *mockAuthSvc) VerifyRecruiterEmail(ctx context.Context, email, code string) (string, error) {
	args := m.Called(ctx, email, code)
	return args.String(0), args.Error(1)
}
func (m *mockAuthSvc) ResendRecruiterEmailOtp(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}
func (m *mockAuthSvc) RequestEmailChange(ctx context.Context, who domain.Identity, newEmail string) (string, error) {
	args := m.Called(ctx, who, newEmail)
	return args.String(0), args.Error(1)
}
func (m *mockAuthSvc) ConfirmEmailChange(ctx context.Context, who domain.Identity, code string) (string, error) {
	args := m.Called(ctx, who, code)
	return args.String(0), args.Error(1)
}

type mockNotificationSvc struct{ mock.Mock }

func (m *mockNotificationSvc) Append(ctx context.Context, recipientID string, in domain.NewNotification) (*domain.Notification, error) {
	args := m.Called(ctx, recipientID, in)
	n, _ := args.Get(0).(*domain.Notification)
	return n, args.Error(1)
}
func (m *mockNotificationSvc) CreateForSelf(ctx context.Context, who domain.Identity, req domain.CreateNotificationRequest) (*domain.NotificationView, error) {
	args := m.Called(ctx, who, req)
	v, _ := args.Get(0).(*domain.NotificationView)
	return v, args.Error(1)
}
func (m *mockNotificationSvc) FanOutToAdmins(ctx context.Context, in domain.NewNotification) ([]domain.Notification, error) {
	args := m.Called(ctx, in)
	ns, _ := args.Get(0).([]domain.Notification)
	return ns, args.Error(1)
}
func (m *mockNotificationSvc) ListFiltered(ctx context.Context, recipientID string, f domain.NotificationFilter) ([]domain.NotificationView, error) {
	args := m.Called(ctx, recipientID, f)
	vs, _ := args.Get(0).([]domain.NotificationView)
	return vs, args.Error(1)
}
func (m *mockNotificationSvc) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	args := m.Called(ctx, recipientID)
	return args.Int(0), args.Error(1)
}
func (m *mockNotificationSvc) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	return m.Called(ctx, recipientID, notificationID).Error(0)
}
func (m *mockNotificationSvc) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	args := m.Called(ctx, recipientID)
	return args.Int(0), args.Error(1)
}
func (m *mockNotificationSvc) ClearAll(ctx context.Context, recipientID string) (int, error) {
	args := m.Called(ctx, recipientID)
	return args.Int(0), args.Error(1)
}

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) SetEnabled(ctx context.Context, userID string, enabled bool) error {
	return m.Called(ctx, userID, enabled).Error(0)
}
func (m *mockUserSvc) Delete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// --- helpers ---

func jsonReq(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// asUser attaches a caller identity the way middleware.Auth does.
func asUser(r *http.Request, who domain.Identity) *http.Request {
	return r.WithContext(middleware.WithIdentity(r.Context(), who))
}

// withChiID injects a chi URL param "id" into the request context.
func withChiID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
