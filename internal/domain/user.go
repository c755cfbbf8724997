package domain

import (
	"strings"
	"time"
)

// Role distinguishes administrative accounts from regular ones.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an account. Identifier holds the email or username, always lowercase.
// PasswordHash is empty for accounts created through a social provider only.
type User struct {
	ID           string
	Identifier   string
	Name         string
	PhotoURL     string
	PasswordHash string
	FacebookID   *string
	GoogleID     *string
	Role         Role
	CreatedAt    time.Time
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}

// NormalizeIdentifier trims and lowercases an email or username so lookups
// and uniqueness checks are case-insensitive.
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// NormalizeProviderID turns a blank social provider id into nil.
func NormalizeProviderID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
