// Package email holds address normalization shared by services and stores.
package email

import "strings"

// Normalize trims surrounding whitespace and lower-cases the address.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
