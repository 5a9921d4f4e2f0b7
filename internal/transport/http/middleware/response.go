package middleware

import (
	"encoding/json"
	"net/http"
)

var statusReasons = map[int]string{
	http.StatusUnauthorized:    "UNAUTHORIZED",
	http.StatusForbidden:       "FORBIDDEN",
	http.StatusTooManyRequests: "RATE_LIMITED",
}

// writeJSONError writes the same {"error","reason"} envelope the handlers use.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "reason": statusReasons[status]})
}
