package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/yettensyvus/InternshipFinder/internal/domain"
	"github.com/yettensyvus/InternshipFinder/internal/pkg/validate"
)

// MessageEnvelope carries a workflow status string.
type MessageEnvelope struct {
	Message string `json:"message"`
}

// ErrorEnvelope is the body of every failed request.
type ErrorEnvelope struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

type UnreadCountEnvelope struct {
	UnreadCount int `json:"unreadCount"`
}

// AffectedEnvelope reports how many rows a bulk operation touched.
type AffectedEnvelope struct {
	Affected int `json:"affected"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, reason string) {
	writeJSON(w, status, ErrorEnvelope{Error: msg, Reason: reason})
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", domain.ErrBadRequest)
	}
	return validate.Struct(dst)
}
