// Package domain contains entity without logic, just meta-data
package domain

import (
	"strings"
)

const (
	MaxUserIDLen   = 36
	MaxUsernameLen = 36
)

var (
	ErrUsernameTooLong = NewFault(KindValidation, "username too long")
	ErrUsernameEmpty   = NewFault(KindValidation, "username empty")
)

// UserID identifies an account in the report store. Player names are what rooms track.
type UserID string

type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// ValidateUsername trims the name and checks its bounds.
func ValidateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if len(username) == 0 {
		return "", ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return "", ErrUsernameTooLong
	}
	return username, nil
}

// NameKey is the case-insensitive identity of a player name.
func NameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// SameName compares player identities.
func SameName(a, b string) bool {
	return NameKey(a) == NameKey(b)
}
