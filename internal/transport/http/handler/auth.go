package handler

import (
	"net/http"

	"github.com/yettensyvus/InternshipFinder/internal/application/auth"
	"github.com/yettensyvus/InternshipFinder/internal/domain"
)

// AuthHandler serves the unauthenticated account endpoints.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decode(r, &req); err != nil {
		httpError(w, err)
		return
	}
	status, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageEnvelope{Message: status})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decode(r, &req); err != nil {
		httpError(w, err)
		return
	}
	resp, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) RequestOtp(w http.ResponseWriter, r *http.Request) {
	var req domain.RequestOtpRequest
	if err := decode(r, &req); err != nil {
		httpError(w, err)
		return
	}
	respond(w)(h.svc.RequestPasswordReset(r.Context(), req.Email))
}

func (h *AuthHandler) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOtpRequest
	if err := decode(r, &req); err != nil {
		httpError(w, err)
		return
	}
	respond(w)(h.svc.VerifyPasswordResetOtp(r.Context(), req.Email, req.Otp))
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if err := decode(r, &req); err != nil {
		httpError(w, err)
		return
	}
	respond(w)(h.svc.ResetPassword(r.Context(), req.Email, req.Otp, req.NewPassword))
}

func (h *AuthHandler) VerifyEmailOtp(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOtpRequest
	if err := decode(r, &req); err != nil {
		httpError(w, err)
		return
	}
	respond(w)(h.svc.VerifyRecruiterEmail(r.Context(), req.Email, req.Otp))
}

func (h *AuthHandler) ResendEmailOtp(w http.ResponseWriter, r *http.Request) {
	var req domain.RequestOtpRequest
	if err := decode(r, &req); err != nil {
		httpError(w, err)
		return
	}
	respond(w)(h.svc.ResendRecruiterEmailOtp(r.Context(), req.Email))
}

// respond writes a workflow status string or maps its error.
func respond(w http.ResponseWriter) func(status string, err error) {
	return func(status string, err error) {
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: status})
	}
}
