package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yettensyvus/InternshipFinder/internal/application/notification"
	"github.com/yettensyvus/InternshipFinder/internal/domain"
	"github.com/yettensyvus/InternshipFinder/internal/transport/http/middleware"
)

// NotificationHandler handles notification endpoints.
type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	who, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		httpError(w, err)
		return
	}
	views, err := h.svc.ListFiltered(r.Context(), who.UserID, f)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	who, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}
	n, err := h.svc.UnreadCount(r.Context(), who.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UnreadCountEnvelope{UnreadCount: n})
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	who, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}
	var req domain.CreateNotificationRequest
	if err := decode(r, &req); err != nil {
		httpError(w, err)
		return
	}
	v, err := h.svc.CreateForSelf(r.Context(), who, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	who, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}
	if err := h.svc.MarkRead(r.Context(), who.UserID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	who, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}
	n, err := h.svc.MarkAllRead(r.Context(), who.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AffectedEnvelope{Affected: n})
}

func (h *NotificationHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	who, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}
	n, err := h.svc.ClearAll(r.Context(), who.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AffectedEnvelope{Affected: n})
}

// parseFilter reads the optional list filters. Unknown types and malformed
// values are rejected rather than ignored.
func parseFilter(q url.Values) (domain.NotificationFilter, error) {
	var f domain.NotificationFilter
	if s := strings.TrimSpace(q.Get("type")); s != "" {
		t := domain.ParseNotificationType(s)
		if string(t) != strings.ToUpper(s) {
			return f, fmt.Errorf("unknown notification type %q: %w", s, domain.ErrBadRequest)
		}
		f.Type = &t
	}
	if s := q.Get("read"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return f, fmt.Errorf("read must be true or false: %w", domain.ErrBadRequest)
		}
		f.Read = &b
	}
	f.ActorEmail = q.Get("actorEmail")
	var err error
	if f.JobID, err = int64Param(q, "jobId"); err != nil {
		return f, err
	}
	if f.ApplicationID, err = int64Param(q, "applicationId"); err != nil {
		return f, err
	}
	if f.From, err = timeParam(q, "from"); err != nil {
		return f, err
	}
	if f.To, err = timeParam(q, "to"); err != nil {
		return f, err
	}
	return f, nil
}

func int64Param(q url.Values, key string) (*int64, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer: %w", key, domain.ErrBadRequest)
	}
	return &n, nil
}

// timeParam accepts ISO-8601 instants with an offset or "Z".
func timeParam(q url.Values, key string) (*time.Time, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, fmt.Errorf("%s must be an ISO-8601 instant: %w", key, domain.ErrBadRequest)
	}
	return &t, nil
}
