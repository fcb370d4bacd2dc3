package domain

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)

const maxEmailLength = 254

// NormalizeEmail lowercases and trims an address; emails are unique case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail performs a pragmatic syntax check.
func IsValidEmail(email string) bool {
	if len(email) == 0 || len(email) > maxEmailLength {
		return false
	}
	return emailPattern.MatchString(email)
}
