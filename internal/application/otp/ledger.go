// Package otp issues, validates and consumes purpose-scoped one-time codes.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/yettensyvus/InternshipFinder/internal/domain"
	"github.com/yettensyvus/InternshipFinder/internal/infrastructure/metrics"
	"github.com/yettensyvus/InternshipFinder/internal/pkg/id"
)

const (
	codeBase  = 100000
	codeRange = 900000
)

// Source draws a uniform integer in [0, n).
type Source interface {
	Int63n(n int64) int64
}

// CryptoSource reads from crypto/rand.
type CryptoSource struct{}

func (CryptoSource) Int63n(n int64) int64 {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("otp: crypto/rand: %v", err))
	}
	return v.Int64()
}

// Ledger is the OTP token ledger used by the account workflows.
type Ledger interface {
	Issue(ctx context.Context, userID string, purpose domain.OtpPurpose, targetEmail string) (*domain.OtpToken, error)
	Validate(ctx context.Context, userID string, purpose domain.OtpPurpose, code string) (*domain.OtpToken, error)
	Consume(ctx context.Context, userID string, purpose domain.OtpPurpose, code string, build MutationFunc) (*domain.OtpToken, error)
}

// MutationFunc derives the credential change from the matched token. It runs
// before the consume; an error leaves the token unconsumed.
type MutationFunc func(t *domain.OtpToken) (*domain.UserMutation, error)

type tokenStore interface {
	Insert(ctx context.Context, t *domain.OtpToken) error
	ListActive(ctx context.Context, userID string, purpose domain.OtpPurpose, limit int) ([]domain.OtpToken, error)
	Consume(ctx context.Context, t *domain.OtpToken, consumedAt time.Time, mut *domain.UserMutation) error
}

type ledger struct {
	tokens  tokenStore
	src     Source
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Recorder
}

type LedgerDeps struct {
	Tokens  tokenStore
	Source  Source
	TTL     time.Duration
	Now     func() time.Time
	Metrics *metrics.Recorder
}

func NewLedger(deps LedgerDeps) Ledger {
	l := &ledger{
		tokens:  deps.Tokens,
		src:     deps.Source,
		ttl:     deps.TTL,
		now:     deps.Now,
		metrics: deps.Metrics,
	}
	if l.src == nil {
		l.src = CryptoSource{}
	}
	if l.ttl <= 0 {
		l.ttl = 5 * time.Minute
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.metrics == nil {
		l.metrics = metrics.Nop()
	}
	return l
}

// Issue persists a fresh code. Earlier tokens for the same purpose stay valid
// until they expire or are consumed.
func (l *ledger) Issue(ctx context.Context, userID string, purpose domain.OtpPurpose, targetEmail string) (*domain.OtpToken, error) {
	pol, ok := purpose.Policy()
	if !ok {
		return nil, fmt.Errorf("unknown otp purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	now := l.now().UTC()
	t := &domain.OtpToken{
		TokenID:   id.NewAt(now),
		UserID:    userID,
		Purpose:   purpose,
		Code:      strconv.FormatInt(codeBase+l.src.Int63n(codeRange), 10),
		CreatedAt: now,
		ExpiresAt: now.Add(l.ttl),
	}
	if pol.BindsTargetEmail {
		t.TargetEmail = targetEmail
	}
	if err := l.tokens.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("insert otp: %w", err)
	}
	l.metrics.OtpIssued.WithLabelValues(string(purpose)).Inc()
	return t, nil
}

func (l *ledger) Validate(ctx context.Context, userID string, purpose domain.OtpPurpose, code string) (*domain.OtpToken, error) {
	return l.match(ctx, userID, purpose, code)
}

// Consume marks the matched token used and applies the mutation from build
// in one storage transaction.
func (l *ledger) Consume(ctx context.Context, userID string, purpose domain.OtpPurpose, code string, build MutationFunc) (*domain.OtpToken, error) {
	t, err := l.match(ctx, userID, purpose, code)
	if err != nil {
		l.observeConsume(purpose, err)
		return nil, err
	}
	var mut *domain.UserMutation
	if build != nil {
		if mut, err = build(t); err != nil {
			l.observeConsume(purpose, err)
			return nil, err
		}
	}
	now := l.now().UTC()
	if err := l.tokens.Consume(ctx, t, now, mut); err != nil {
		l.observeConsume(purpose, err)
		return nil, err
	}
	t.ConsumedAt = &now
	l.observeConsume(purpose, nil)
	return t, nil
}

// match selects the newest unconsumed token whose code equals code among the
// most recent ValidateWindow candidates.
func (l *ledger) match(ctx context.Context, userID string, purpose domain.OtpPurpose, code string) (*domain.OtpToken, error) {
	if !purpose.Valid() {
		return nil, fmt.Errorf("unknown otp purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	candidates, err := l.tokens.ListActive(ctx, userID, purpose, domain.ValidateWindow)
	if err != nil {
		return nil, fmt.Errorf("list otp: %w", err)
	}
	if len(candidates) == 0 {
		return nil, domain.ErrOtpNotFound
	}
	for i := range candidates {
		t := &candidates[i]
		if subtle.ConstantTimeCompare([]byte(t.Code), []byte(code)) != 1 {
			continue
		}
		if t.Expired(l.now()) {
			return nil, domain.ErrOtpExpired
		}
		return t, nil
	}
	return nil, domain.ErrInvalidOtp
}

func (l *ledger) observeConsume(purpose domain.OtpPurpose, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAlreadyConsumed):
		result = "already_consumed"
	case errors.Is(err, domain.ErrOtpNotFound):
		result = "not_found"
	case errors.Is(err, domain.ErrOtpExpired):
		result = "expired"
	case errors.Is(err, domain.ErrInvalidOtp):
		result = "invalid"
	default:
		result = "error"
	}
	l.metrics.OtpConsumed.WithLabelValues(string(purpose), result).Inc()
}
