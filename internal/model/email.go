// Package model defines domain entities for the application.
package model

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidEmail is returned when an address fails syntax validation.
var ErrInvalidEmail = errors.New("invalid email address")

const maxEmailLength = 254

// emailRegex accepts local@domain.tld with no whitespace and a single @.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether s looks like a deliverable email address.
// Case is preserved; callers are expected to trim input first.
func IsValidEmail(s string) bool {
	if s == "" || len(s) > maxEmailLength {
		return false
	}
	return emailRegex.MatchString(s)
}

// NormalizeEmail trims surrounding whitespace and validates the result.
func NormalizeEmail(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if !IsValidEmail(trimmed) {
		return "", ErrInvalidEmail
	}
	return trimmed, nil
}

// SplitAddresses splits free-form operator input on newlines and commas.
// Entries are trimmed and empty entries dropped. No validation is applied.
func SplitAddresses(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// RedactEmail masks the local part of an address for log output.
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}
