package handler

import (
	"net/http"

	"github.com/yettensyvus/InternshipFinder/internal/application/auth"
	"github.com/yettensyvus/InternshipFinder/internal/domain"
	"github.com/yettensyvus/InternshipFinder/internal/transport/http/middleware"
)

// SettingsHandler serves the authenticated email and password change flows.
type SettingsHandler struct {
	svc auth.Service
}

func NewSettingsHandler(svc auth.Service) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

func (h *SettingsHandler) RequestEmailChange(w http.ResponseWriter, r *http.Request) {
	who, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}
	var req domain.RequestEmailChangeRequest
	if err := decode(r, &req); err != nil {
		httpError(w, err)
		return
	}
	respond(w)(h.svc.RequestEmailChange(r.Context(), who, req.NewEmail))
}

// ConfirmEmailChange takes only the code; the new address comes from the token.
func (h *SettingsHandler) ConfirmEmailChange(w http.ResponseWriter, r *http.Request) {
	who, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}
	var req domain.ConfirmEmailChangeRequest
	if err := decode(r, &req); err != nil {
		httpError(w, err)
		return
	}
	respond(w)(h.svc.ConfirmEmailChange(r.Context(), who, req.Otp))
}

func (h *SettingsHandler) RequestPasswordChange(w http.ResponseWriter, r *http.Request) {
	who, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}
	var req domain.RequestPasswordChangeRequest
	if err := decode(r, &req); err != nil {
		httpError(w, err)
		return
	}
	respond(w)(h.svc.RequestPasswordChange(r.Context(), who, req.CurrentPassword))
}

func (h *SettingsHandler) ConfirmPasswordChange(w http.ResponseWriter, r *http.Request) {
	who, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}
	var req domain.ConfirmPasswordChangeRequest
	if err := decode(r, &req); err != nil {
		httpError(w, err)
		return
	}
	respond(w)(h.svc.ConfirmPasswordChange(r.Context(), who, req.Otp, req.CurrentPassword, req.NewPassword))
}
