package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/yettensyvus/InternshipFinder/internal/domain"
)

type errorMapping struct {
	target error
	status int
	reason string
}

// errorTable is checked in order; more specific sentinels come before the
// ones they wrap.
var errorTable = []errorMapping{
	{domain.ErrOtpNotFound, http.StatusBadRequest, "OTP_NOT_FOUND"},
	{domain.ErrOtpExpired, http.StatusBadRequest, "OTP_EXPIRED"},
	{domain.ErrInvalidOtp, http.StatusBadRequest, "INVALID_OTP"},
	{domain.ErrInvalidCredential, http.StatusUnauthorized, "INVALID_PASSWORD"},
	{domain.ErrAccountDisabled, http.StatusForbidden, "ACCOUNT_BLOCKED"},
	{domain.ErrEmailNotVerified, http.StatusForbidden, "EMAIL_NOT_VERIFIED"},
	{domain.ErrNotAllowed, http.StatusForbidden, "NOT_ALLOWED"},
	{domain.ErrEmailAlreadyRegistered, http.StatusConflict, "EMAIL_ALREADY_REGISTERED"},
	{domain.ErrInvalidRole, http.StatusBadRequest, "INVALID_ROLE"},
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{domain.ErrBadRequest, http.StatusBadRequest, "BAD_REQUEST"},
	{domain.ErrDelivery, http.StatusBadGateway, "DELIVERY_FAILED"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{domain.ErrConflict, http.StatusConflict, "CONFLICT"},
}

// httpError maps a service error to its status and reason. Unmapped errors
// are logged and reported without detail.
func httpError(w http.ResponseWriter, err error) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			writeError(w, m.status, err.Error(), m.reason)
			return
		}
	}
	slog.Error("unhandled error", "err", err)
	writeError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}
