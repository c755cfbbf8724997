package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/flight-agent/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserLoggedIn   EventType = "user_logged_in"
	EventLoginFailed    EventType = "login_failed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, subject string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID   string      `json:"user_id"`
	Role     domain.Role `json:"role"`
	Facebook bool        `json:"facebook"`
	Google   bool        `json:"google"`
}

// UserLoggedInPayload payload.
type UserLoggedInPayload struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}
