package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yettensyvus/InternshipFinder/internal/application/auth"
	"github.com/yettensyvus/InternshipFinder/internal/domain"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

func TestRegister_InvalidBody(t *testing.T) {
	svc := &mockAuthSvc{}
	rr := httptest.NewRecorder()
	NewAuthHandler(svc).Register(rr, jsonReq(http.MethodPost, "/v1/auth/register", "not-json"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "BAD_REQUEST", decodeError(t, rr).Reason)
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegister_ValidationFailure(t *testing.T) {
	svc := &mockAuthSvc{}
	rr := httptest.NewRecorder()
	NewAuthHandler(svc).Register(rr, jsonReq(http.MethodPost, "/v1/auth/register", `{"username":"ana","email":"not-an-email","password":"secret123","role":"STUDENT"}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr).Error, "email")
}

func TestRegister_Created(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Register", mock.Anything, domain.RegisterRequest{Username: "rec", Email: "rec@corp.com", Password: "secret123", Role: "RECRUITER"}).
		Return(auth.StatusRecruiterOtpSent, nil)
	rr := httptest.NewRecorder()
	NewAuthHandler(svc).Register(rr, jsonReq(http.MethodPost, "/v1/auth/register", `{"username":"rec","email":"rec@corp.com","password":"secret123","role":"RECRUITER"}`))

	assert.Equal(t, http.StatusCreated, rr.Code)
	var env MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	assert.Equal(t, "RECRUITER_OTP_SENT", env.Message)
}

func TestRegister_Conflict(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Register", mock.Anything, mock.Anything).Return("", domain.ErrEmailAlreadyRegistered)
	rr := httptest.NewRecorder()
	NewAuthHandler(svc).Register(rr, jsonReq(http.MethodPost, "/v1/auth/register", `{"username":"a","email":"a@b.com","password":"secret123","role":"STUDENT"}`))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "EMAIL_ALREADY_REGISTERED", decodeError(t, rr).Reason)
}

func TestLogin(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Login", mock.Anything, domain.LoginRequest{Email: "a@b.com", Password: "pw"}).
		Return(&domain.LoginResponse{Token: "tok", UserID: "u1", Role: domain.RoleStudent, Username: "ana"}, nil)
	svc.On("Login", mock.Anything, domain.LoginRequest{Email: "r@b.com", Password: "pw"}).
		Return(nil, domain.ErrEmailNotVerified)
	h := NewAuthHandler(svc)

	rr := httptest.NewRecorder()
	h.Login(rr, jsonReq(http.MethodPost, "/v1/auth/login", `{"email":"a@b.com","password":"pw"}`))
	assert.Equal(t, http.StatusOK, rr.Code)
	var resp domain.LoginResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "tok", resp.Token)

	rr = httptest.NewRecorder()
	h.Login(rr, jsonReq(http.MethodPost, "/v1/auth/login", `{"email":"r@b.com","password":"pw"}`))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "EMAIL_NOT_VERIFIED", decodeError(t, rr).Reason)
}

func TestOtpEndpoints_StatusStrings(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("RequestPasswordReset", mock.Anything, "a@b.com").Return(auth.StatusResetOtpSent, nil)
	svc.On("VerifyPasswordResetOtp", mock.Anything, "a@b.com", "482913").Return(auth.StatusOtpVerified, nil)
	svc.On("ResetPassword", mock.Anything, "a@b.com", "482913", "brandnew1").Return(auth.StatusPasswordReset, nil)
	svc.On("VerifyRecruiterEmail", mock.Anything, "r@b.com", "123456").Return(auth.StatusEmailVerified, nil)
	svc.On("ResendRecruiterEmailOtp", mock.Anything, "r@b.com").Return(auth.StatusAlreadyVerified, nil)
	h := NewAuthHandler(svc)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		body    string
		want    string
	}{
		{"request-otp", h.RequestOtp, `{"email":"a@b.com"}`, "OTP sent to your email."},
		{"verify-otp", h.VerifyOtp, `{"email":"a@b.com","otp":"482913"}`, "OTP verified"},
		{"reset-password-otp", h.ResetPassword, `{"email":"a@b.com","otp":"482913","newPassword":"brandnew1"}`, "Password reset successfully."},
		{"verify-email-otp", h.VerifyEmailOtp, `{"email":"r@b.com","otp":"123456"}`, "Email verified"},
		{"resend-email-otp", h.ResendEmailOtp, `{"email":"r@b.com"}`, "Already verified"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.handler(rr, jsonReq(http.MethodPost, "/v1/auth/"+tt.name, tt.body))
			assert.Equal(t, http.StatusOK, rr.Code)
			var env MessageEnvelope
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
			assert.Equal(t, tt.want, env.Message)
		})
	}
}

func TestVerifyOtp_ErrorReasons(t *testing.T) {
	tests := []struct {
		err    error
		status int
		reason string
	}{
		{domain.ErrOtpNotFound, http.StatusBadRequest, "OTP_NOT_FOUND"},
		{domain.ErrInvalidOtp, http.StatusBadRequest, "INVALID_OTP"},
		{fmt.Errorf("consume otp: %w", domain.ErrAlreadyConsumed), http.StatusBadRequest, "INVALID_OTP"},
		{domain.ErrOtpExpired, http.StatusBadRequest, "OTP_EXPIRED"},
		{fmt.Errorf("smtp: %w", domain.ErrDelivery), http.StatusBadGateway, "DELIVERY_FAILED"},
		{assert.AnError, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			svc := &mockAuthSvc{}
			svc.On("VerifyPasswordResetOtp", mock.Anything, "a@b.com", "111111").Return("", tt.err)
			rr := httptest.NewRecorder()
			NewAuthHandler(svc).VerifyOtp(rr, jsonReq(http.MethodPost, "/v1/auth/verify-otp", `{"email":"a@b.com","otp":"111111"}`))

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.reason, decodeError(t, rr).Reason)
		})
	}
}

func TestVerifyOtp_MissingCode(t *testing.T) {
	svc := &mockAuthSvc{}
	rr := httptest.NewRecorder()
	NewAuthHandler(svc).VerifyOtp(rr, jsonReq(http.MethodPost, "/v1/auth/verify-otp", `{"email":"a@b.com"}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr).Error, "otp")
}
