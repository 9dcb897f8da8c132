package service

import "strings"

// NormalizeEmail lowercases and trims an address so lookups are
// case-insensitive. Addresses are stored in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
