package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/flight-agent/internal/events"
)

// AuditService writes account events to the audit log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.handleUserRegistered)
	a.dispatcher.Subscribe(events.EventUserLoggedIn, a.handleUserLoggedIn)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleLoginFailed)
}

func (a *AuditService) handleUserRegistered(_ context.Context, event events.Event) error {
	a.logger.Info("UserRegistered", eventFields(event)...)
	return nil
}

func (a *AuditService) handleUserLoggedIn(_ context.Context, event events.Event) error {
	a.logger.Info("UserLoggedIn", eventFields(event)...)
	return nil
}

func (a *AuditService) handleLoginFailed(_ context.Context, event events.Event) error {
	a.logger.Warn("LoginFailed", eventFields(event)...)
	return nil
}

func eventFields(event events.Event) []zap.Field {
	return []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("subject", event.Subject),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload),
	}
}
