package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// OTP ledger outcomes.
var (
	ErrInvalidOtp = errors.New("invalid otp")
	ErrOtpExpired = errors.New("otp expired")
	// ErrOtpNotFound means no unconsumed token is left for (user, purpose).
	// A code replayed after its consume lands here, so it also matches ErrInvalidOtp.
	ErrOtpNotFound = fmt.Errorf("otp not found: %w", ErrInvalidOtp)
	// ErrAlreadyConsumed is returned to the loser of a concurrent consume.
	// It matches ErrInvalidOtp so callers see a single rejection kind.
	ErrAlreadyConsumed = fmt.Errorf("otp already consumed: %w", ErrInvalidOtp)
)

// Account and ownership outcomes.
var (
	ErrInvalidCredential      = fmt.Errorf("invalid password: %w", ErrUnauthorized)
	ErrAccountDisabled        = fmt.Errorf("account blocked: %w", ErrForbidden)
	ErrEmailNotVerified       = fmt.Errorf("email not verified: %w", ErrForbidden)
	ErrNotAllowed             = fmt.Errorf("not allowed: %w", ErrForbidden)
	ErrEmailAlreadyRegistered = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrInvalidRole            = fmt.Errorf("invalid role: %w", ErrBadRequest)
	ErrDelivery               = errors.New("delivery failed")
)
