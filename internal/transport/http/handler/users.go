package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yettensyvus/InternshipFinder/internal/application/user"
)

type setEnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// UserHandler serves the admin account endpoints.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	var req setEnabledRequest
	if err := decode(r, &req); err != nil {
		httpError(w, err)
		return
	}
	if err := h.svc.SetEnabled(r.Context(), chi.URLParam(r, "id"), *req.Enabled); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
