package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/flight-agent/internal/domain"
)

// RegisterRequest payload for new accounts. identifier, user and email are
// interchangeable, as are photoUrl and urlPhoto.
type RegisterRequest struct {
	Identifier string  `json:"identifier" form:"identifier"`
	User       string  `json:"user" form:"user"`
	Email      string  `json:"email" form:"email"`
	Name       string  `json:"name" form:"name"`
	PhotoURL   string  `json:"photoUrl" form:"photoUrl"`
	URLPhoto   string  `json:"urlPhoto" form:"urlPhoto"`
	FacebookID *string `json:"facebookId" form:"facebookId"`
	GoogleID   *string `json:"googleId" form:"googleId"`
	Password   string  `json:"password" form:"password"`
}

// ResolvedIdentifier returns the first identifier alias that is set.
func (r RegisterRequest) ResolvedIdentifier() string {
	return firstNonBlank(r.Identifier, r.User, r.Email)
}

// ResolvedPhotoURL returns the first photo alias that is set.
func (r RegisterRequest) ResolvedPhotoURL() string {
	return firstNonBlank(r.PhotoURL, r.URLPhoto)
}

// LoginRequest payload for login.
type LoginRequest struct {
	Identifier string `json:"identifier" form:"identifier" query:"identifier"`
	Email      string `json:"email" form:"email" query:"email"`
	Password   string `json:"password" form:"password" query:"password"`
}

// ResolvedIdentifier returns identifier, falling back to email.
func (r LoginRequest) ResolvedIdentifier() string {
	return firstNonBlank(r.Identifier, r.Email)
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID         string      `json:"id"`
	Identifier string      `json:"identifier"`
	Name       string      `json:"name"`
	PhotoURL   string      `json:"photo_url,omitempty"`
	Role       domain.Role `json:"role"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	AuthResponse
	User UserResponse `json:"user"`
}

// NewAuthResponse converts an issued token.
func NewAuthResponse(token domain.Token) AuthResponse {
	return AuthResponse{Token: token.Value, ExpiresAt: token.ExpiresAt}
}

// NewUserResponse converts a domain user. The password hash is never exposed.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Identifier: user.Identifier,
		Name:       user.Name,
		PhotoURL:   user.PhotoURL,
		Role:       user.Role,
	}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
