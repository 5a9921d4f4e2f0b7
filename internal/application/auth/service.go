package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yettensyvus/InternshipFinder/internal/application/otp"
	"github.com/yettensyvus/InternshipFinder/internal/domain"
	"github.com/yettensyvus/InternshipFinder/internal/pkg/email"
	"github.com/yettensyvus/InternshipFinder/internal/pkg/id"
)

// Status strings returned to clients.
const (
	StatusResetOtpSent       = "OTP sent to your email."
	StatusOtpVerified        = "OTP verified"
	StatusPasswordReset      = "Password reset successfully."
	StatusOtpSent            = "OTP sent"
	StatusPasswordChanged    = "Password changed"
	StatusRecruiterOtpSent   = "RECRUITER_OTP_SENT"
	StatusRegistered         = "Registered successfully"
	StatusEmailVerified      = "Email verified"
	StatusAlreadyVerified    = "Already verified"
	StatusEmailChangeOtpSent = "OTP sent to new email"
	StatusEmailChanged       = "Email changed"
)

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (string, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	RequestPasswordReset(ctx context.Context, email string) (string, error)
	VerifyPasswordResetOtp(ctx context.Context, email, code string) (string, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) (string, error)

	RequestPasswordChange(ctx context.Context, who domain.Identity, currentPassword string) (string, error)
	ConfirmPasswordChange(ctx context.Context, who domain.Identity, code, currentPassword, newPassword string) (string, error)

	VerifyRecruiterEmail(ctx context.Context, email, code string) (string, error)
	ResendRecruiterEmailOtp(ctx context.Context, email string) (string, error)

	RequestEmailChange(ctx context.Context, who domain.Identity, newEmail string) (string, error)
	ConfirmEmailChange(ctx context.Context, who domain.Identity, code string) (string, error)
}

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type otpMailer interface {
	SendOtp(ctx context.Context, to string, purpose domain.OtpPurpose, code string) error
}

type hasher interface {
	Hash(plain string) (string, error)
	Matches(plain, hash string) bool
}

type jwtSigner interface {
	Sign(u *domain.User) (string, error)
}

type adminNotifier interface {
	FanOutToAdmins(ctx context.Context, in domain.NewNotification) ([]domain.Notification, error)
}

type service struct {
	users    userStore
	ledger   otp.Ledger
	mailer   otpMailer
	hasher   hasher
	signer   jwtSigner
	notifier adminNotifier
	now      func() time.Time
}

type ServiceDeps struct {
	UserRepo    userStore
	Ledger      otp.Ledger
	Mailer      otpMailer
	Hasher      hasher
	JWTProvider jwtSigner
	Notifier    adminNotifier
	Now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		users:    deps.UserRepo,
		ledger:   deps.Ledger,
		mailer:   deps.Mailer,
		hasher:   deps.Hasher,
		signer:   deps.JWTProvider,
		notifier: deps.Notifier,
		now:      deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (string, error) {
	role, ok := domain.ParseRole(req.Role)
	if !ok || role == domain.RoleAdmin {
		return "", domain.ErrInvalidRole
	}
	addr := email.Normalize(req.Email)
	exists, err := s.users.EmailExists(ctx, addr)
	if err != nil {
		return "", err
	}
	if exists {
		return "", domain.ErrEmailAlreadyRegistered
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	u := &domain.User{
		UserID:       id.NewAt(now),
		Username:     strings.TrimSpace(req.Username),
		Email:        addr,
		PasswordHash: hash,
		Role:         role,
		Enabled:      role != domain.RoleRecruiter,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return "", err
	}

	// Only student signups are announced to admins.
	if role == domain.RoleRecruiter {
		if err := s.issueAndSend(ctx, u, domain.PurposeRecruiterEmailVerification, u.Email, ""); err != nil {
			return "", err
		}
		return StatusRecruiterOtpSent, nil
	}
	s.announceRegistration(ctx, u)
	return StatusRegistered, nil
}

// announceRegistration is best effort; a failed fan-out does not undo the signup.
func (s *service) announceRegistration(ctx context.Context, u *domain.User) {
	if s.notifier == nil {
		return
	}
	msg := fmt.Sprintf("%s registered as %s", u.Username, strings.ToLower(string(u.Role)))
	_, err := s.notifier.FanOutToAdmins(ctx, domain.NewNotification{
		Type:       domain.NotificationUserRegistered,
		Title:      "New user registered",
		Message:    &msg,
		ActorEmail: u.Email,
	})
	if err != nil {
		slog.Warn("admin registration fan-out failed", "user_id", u.UserID, "err", err)
	}
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	u, err := s.users.GetByEmail(ctx, email.Normalize(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredential
		}
		return nil, err
	}
	if !s.hasher.Matches(req.Password, u.PasswordHash) {
		return nil, domain.ErrInvalidCredential
	}
	if !u.Enabled {
		if u.Role == domain.RoleRecruiter {
			return nil, domain.ErrEmailNotVerified
		}
		return nil, domain.ErrAccountDisabled
	}
	token, err := s.signer.Sign(u)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &domain.LoginResponse{Token: token, UserID: u.UserID, Role: u.Role, Username: u.Username}, nil
}

func (s *service) RequestPasswordReset(ctx context.Context, addr string) (string, error) {
	u, err := s.lookup(ctx, addr)
	if err != nil {
		return "", err
	}
	if u == nil {
		return StatusResetOtpSent, nil
	}
	if err := s.issueAndSend(ctx, u, domain.PurposePasswordReset, u.Email, ""); err != nil {
		return "", err
	}
	return StatusResetOtpSent, nil
}

func (s *service) VerifyPasswordResetOtp(ctx context.Context, addr, code string) (string, error) {
	u, err := s.lookupForCode(ctx, addr)
	if err != nil {
		return "", err
	}
	if _, err := s.ledger.Validate(ctx, u.UserID, domain.PurposePasswordReset, code); err != nil {
		return "", err
	}
	return StatusOtpVerified, nil
}

func (s *service) ResetPassword(ctx context.Context, addr, code, newPassword string) (string, error) {
	u, err := s.lookupForCode(ctx, addr)
	if err != nil {
		return "", err
	}
	_, err = s.ledger.Consume(ctx, u.UserID, domain.PurposePasswordReset, code, s.passwordMutation(u.UserID, newPassword))
	if err != nil {
		return "", err
	}
	return StatusPasswordReset, nil
}

func (s *service) RequestPasswordChange(ctx context.Context, who domain.Identity, currentPassword string) (string, error) {
	u, err := s.authorize(ctx, who, domain.PurposePasswordChange, currentPassword)
	if err != nil {
		return "", err
	}
	if err := s.issueAndSend(ctx, u, domain.PurposePasswordChange, u.Email, ""); err != nil {
		return "", err
	}
	return StatusOtpSent, nil
}

func (s *service) ConfirmPasswordChange(ctx context.Context, who domain.Identity, code, currentPassword, newPassword string) (string, error) {
	u, err := s.authorize(ctx, who, domain.PurposePasswordChange, currentPassword)
	if err != nil {
		return "", err
	}
	_, err = s.ledger.Consume(ctx, u.UserID, domain.PurposePasswordChange, code, s.passwordMutation(u.UserID, newPassword))
	if err != nil {
		return "", err
	}
	return StatusPasswordChanged, nil
}

func (s *service) VerifyRecruiterEmail(ctx context.Context, addr, code string) (string, error) {
	u, err := s.lookupForCode(ctx, addr)
	if err != nil {
		return "", err
	}
	if u.Role != domain.RoleRecruiter {
		return "", domain.ErrInvalidRole
	}
	if u.Enabled {
		return StatusAlreadyVerified, nil
	}
	_, err = s.ledger.Consume(ctx, u.UserID, domain.PurposeRecruiterEmailVerification, code,
		func(*domain.OtpToken) (*domain.UserMutation, error) {
			enabled := true
			return &domain.UserMutation{UserID: u.UserID, Enabled: &enabled}, nil
		})
	if err != nil {
		return "", err
	}
	return StatusEmailVerified, nil
}

func (s *service) ResendRecruiterEmailOtp(ctx context.Context, addr string) (string, error) {
	u, err := s.lookup(ctx, addr)
	if err != nil {
		return "", err
	}
	if u == nil {
		return StatusOtpSent, nil
	}
	if u.Role != domain.RoleRecruiter {
		return "", domain.ErrInvalidRole
	}
	if u.Enabled {
		return StatusAlreadyVerified, nil
	}
	if err := s.issueAndSend(ctx, u, domain.PurposeRecruiterEmailVerification, u.Email, ""); err != nil {
		return "", err
	}
	return StatusOtpSent, nil
}

func (s *service) RequestEmailChange(ctx context.Context, who domain.Identity, newEmail string) (string, error) {
	target := email.Normalize(newEmail)
	if target == "" {
		return "", fmt.Errorf("new email is required: %w", domain.ErrBadRequest)
	}
	u, err := s.authorize(ctx, who, domain.PurposeEmailChange, "")
	if err != nil {
		return "", err
	}
	if err := s.ensureEmailFree(ctx, target); err != nil {
		return "", err
	}
	if err := s.issueAndSend(ctx, u, domain.PurposeEmailChange, target, target); err != nil {
		return "", err
	}
	return StatusEmailChangeOtpSent, nil
}

// ConfirmEmailChange applies the address bound to the matched token.
func (s *service) ConfirmEmailChange(ctx context.Context, who domain.Identity, code string) (string, error) {
	u, err := s.authorize(ctx, who, domain.PurposeEmailChange, "")
	if err != nil {
		return "", err
	}
	_, err = s.ledger.Consume(ctx, u.UserID, domain.PurposeEmailChange, code,
		func(t *domain.OtpToken) (*domain.UserMutation, error) {
			target := t.TargetEmail
			if target == "" {
				return nil, fmt.Errorf("token has no target email: %w", domain.ErrBadRequest)
			}
			if err := s.ensureEmailFree(ctx, target); err != nil {
				return nil, err
			}
			return &domain.UserMutation{UserID: u.UserID, Email: &target, PreviousEmail: u.Email}, nil
		})
	if err != nil {
		return "", err
	}
	return StatusEmailChanged, nil
}

// lookup returns (nil, nil) for a blank or unknown address so callers can
// answer exactly as they would for a real account.
func (s *service) lookup(ctx context.Context, addr string) (*domain.User, error) {
	addr = email.Normalize(addr)
	if addr == "" {
		return nil, nil
	}
	u, err := s.users.GetByEmail(ctx, addr)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

// lookupForCode reports an unknown address as a missing code.
func (s *service) lookupForCode(ctx context.Context, addr string) (*domain.User, error) {
	u, err := s.lookup(ctx, addr)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrOtpNotFound
	}
	return u, nil
}

// authorize loads the caller and applies the purpose's session and
// credential preconditions.
func (s *service) authorize(ctx context.Context, who domain.Identity, purpose domain.OtpPurpose, currentPassword string) (*domain.User, error) {
	pol, ok := purpose.Policy()
	if !ok {
		return nil, fmt.Errorf("unknown otp purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	if pol.RequiresSession && who.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	u, err := s.users.Get(ctx, who.UserID)
	if err != nil {
		return nil, err
	}
	if pol.ReverifyCredential && !s.hasher.Matches(currentPassword, u.PasswordHash) {
		return nil, domain.ErrInvalidCredential
	}
	return u, nil
}

func (s *service) ensureEmailFree(ctx context.Context, addr string) error {
	exists, err := s.users.EmailExists(ctx, addr)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrEmailAlreadyRegistered
	}
	return nil
}

func (s *service) passwordMutation(userID, newPassword string) otp.MutationFunc {
	return func(*domain.OtpToken) (*domain.UserMutation, error) {
		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return nil, err
		}
		return &domain.UserMutation{UserID: userID, PasswordHash: &hash}, nil
	}
}

func (s *service) issueAndSend(ctx context.Context, u *domain.User, purpose domain.OtpPurpose, to, target string) error {
	t, err := s.ledger.Issue(ctx, u.UserID, purpose, target)
	if err != nil {
		return err
	}
	if err := s.mailer.SendOtp(ctx, to, purpose, t.Code); err != nil {
		slog.Error("otp delivery failed", "user_id", u.UserID, "purpose", purpose, "err", err)
		return err
	}
	return nil
}
