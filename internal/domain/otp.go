package domain

import "time"

type OtpPurpose string

const (
	PurposePasswordReset              OtpPurpose = "PASSWORD_RESET"
	PurposePasswordChange             OtpPurpose = "PASSWORD_CHANGE"
	PurposeRecruiterEmailVerification OtpPurpose = "RECRUITER_EMAIL_VERIFICATION"
	PurposeEmailChange                OtpPurpose = "EMAIL_CHANGE"
)

// PurposePolicy describes how a purpose is gated and how its code is mailed.
type PurposePolicy struct {
	RequiresSession    bool
	ReverifyCredential bool
	BindsTargetEmail   bool
	Subject            string
	Title              string
	Intro              string
}

var purposePolicies = map[OtpPurpose]PurposePolicy{
	PurposePasswordReset: {
		Subject: "Password Reset OTP",
		Title:   "Password reset request",
		Intro:   "We received a request to reset the password for",
	},
	PurposePasswordChange: {
		RequiresSession:    true,
		ReverifyCredential: true,
		Subject:            "Password Change OTP",
		Title:              "Confirm password change",
		Intro:              "We received a request to change the password for",
	},
	PurposeRecruiterEmailVerification: {
		Subject: "Verify Email OTP",
		Title:   "Verify your email",
		Intro:   "Thanks for registering. Please verify your email for",
	},
	PurposeEmailChange: {
		RequiresSession:  true,
		BindsTargetEmail: true,
		Subject:          "Email Change OTP",
		Title:            "Confirm your new email",
		Intro:            "We received a request to move your account to",
	},
}

// Policy returns the policy of a known purpose.
func (p OtpPurpose) Policy() (PurposePolicy, bool) {
	pol, ok := purposePolicies[p]
	return pol, ok
}

func (p OtpPurpose) Valid() bool {
	_, ok := purposePolicies[p]
	return ok
}

// OtpToken is a single-use code scoped to one user and one purpose.
type OtpToken struct {
	TokenID     string     `json:"id" dynamodbav:"token_id"`
	UserID      string     `json:"user_id" dynamodbav:"user_id"`
	Purpose     OtpPurpose `json:"purpose" dynamodbav:"purpose"`
	Code        string     `json:"-" dynamodbav:"code"`
	TargetEmail string     `json:"target_email,omitempty" dynamodbav:"target_email,omitempty"`
	CreatedAt   time.Time  `json:"created" dynamodbav:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at" dynamodbav:"expires_at"`
	ConsumedAt  *time.Time `json:"consumed_at,omitempty" dynamodbav:"consumed_at,omitempty"`
}

// Expired reports whether the token is no longer usable at now.
// A token is live only while expiresAt is strictly after now.
func (t *OtpToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// Reapable reports whether the background sweep may delete the row.
func (t *OtpToken) Reapable(now time.Time) bool {
	return t.ConsumedAt != nil || t.ExpiresAt.Before(now)
}

// ValidateWindow is how many of the newest unconsumed tokens are compared
// against a submitted code.
const ValidateWindow = 5

type RequestOtpRequest struct {
	Email string `json:"email"`
}

type VerifyOtpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp" validate:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Otp         string `json:"otp" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

type RequestPasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
}

type ConfirmPasswordChangeRequest struct {
	Otp             string `json:"otp" validate:"required"`
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

type RequestEmailChangeRequest struct {
	NewEmail string `json:"newEmail" validate:"required,email"`
}

type ConfirmEmailChangeRequest struct {
	Otp string `json:"otp" validate:"required"`
}
