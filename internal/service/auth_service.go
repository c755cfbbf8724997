package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/flight-agent/internal/auth"
	"github.com/spec-kit/flight-agent/internal/domain"
	"github.com/spec-kit/flight-agent/internal/events"
	apperrors "github.com/spec-kit/flight-agent/pkg/util/errorutil"
)

// RegisterInput is the registration request after decoding.
type RegisterInput struct {
	Identifier string
	Name       string
	PhotoURL   string
	Password   string
	FacebookID *string
	GoogleID   *string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      *UserStore
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuthService builds the service. dispatcher may be nil.
func NewAuthService(users *UserStore, tokens *auth.TokenManager, dispatcher events.Dispatcher, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Register creates an end-user account and issues its first token. No token
// is issued when the account cannot be created.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, domain.Token, error) {
	user, err := s.users.Create(ctx, CreateUserInput{
		Identifier: in.Identifier,
		Name:       in.Name,
		PhotoURL:   in.PhotoURL,
		Password:   in.Password,
		FacebookID: in.FacebookID,
		GoogleID:   in.GoogleID,
		Role:       domain.RoleUser,
	})
	if err != nil {
		return nil, domain.Token{}, err
	}

	token, err := s.tokens.Issue(user.Identifier, user.Role)
	if err != nil {
		return nil, domain.Token{}, err
	}

	s.publish(ctx, events.New(events.EventUserRegistered, user.Identifier, events.UserRegisteredPayload{
		UserID:   user.ID,
		Role:     user.Role,
		Facebook: user.FacebookID != nil,
		Google:   user.GoogleID != nil,
	}))
	return user, token, nil
}

// Login authenticates an identifier/password pair.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*domain.User, domain.Token, error) {
	details := map[string]any{}
	if strings.TrimSpace(identifier) == "" {
		details["identifier"] = "required"
	}
	if password == "" {
		details["password"] = "required"
	}
	if len(details) > 0 {
		return nil, domain.Token{}, apperrors.NewValidationError("identifier and password are required", details)
	}

	user, err := s.users.FindByCredentials(ctx, identifier, password)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeAuthentication {
			s.publish(ctx, events.New(events.EventLoginFailed, domain.NormalizeIdentifier(identifier), events.LoginFailedPayload{
				Reason: "invalid credentials",
			}))
		}
		return nil, domain.Token{}, err
	}

	token, err := s.tokens.Issue(user.Identifier, user.Role)
	if err != nil {
		return nil, domain.Token{}, err
	}

	s.publish(ctx, events.New(events.EventUserLoggedIn, user.Identifier, events.UserLoggedInPayload{
		UserID:    user.ID,
		ExpiresAt: token.ExpiresAt,
	}))
	return user, token, nil
}

// CurrentUser loads the account a validated token was issued for.
func (s *AuthService) CurrentUser(ctx context.Context, subject string) (*domain.User, error) {
	return s.users.Get(ctx, subject)
}

// UserExists reports whether identifier is registered.
func (s *AuthService) UserExists(ctx context.Context, identifier string) (bool, error) {
	return s.users.Exists(ctx, identifier)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
