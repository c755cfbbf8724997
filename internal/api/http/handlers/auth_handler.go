package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flight-agent/internal/api/dto"
	"github.com/spec-kit/flight-agent/internal/auth"
	"github.com/spec-kit/flight-agent/internal/service"
	apperrors "github.com/spec-kit/flight-agent/pkg/util/errorutil"
)

// LoginChallenge is sent with every failed login.
const LoginChallenge = `Basic realm="login Required"`

// AuthHandler exposes registration, login and current-user endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /register. Every failure is reported as 403; the
// envelope code tells the failure kinds apart.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.WithStatus(apperrors.NewValidationError("invalid payload", nil), http.StatusForbidden)
	}

	user, token, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Identifier: req.ResolvedIdentifier(),
		Name:       req.Name,
		PhotoURL:   req.ResolvedPhotoURL(),
		Password:   req.Password,
		FacebookID: req.FacebookID,
		GoogleID:   req.GoogleID,
	})
	if err != nil {
		return apperrors.WithStatus(err, http.StatusForbidden)
	}

	return c.Status(http.StatusOK).JSON(dto.RegisterResponse{
		AuthResponse: dto.NewAuthResponse(token),
		User:         dto.NewUserResponse(user),
	})
}

// Login handles POST|GET /login. Credentials are read from the body, or from
// the query string when a GET carries no body.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	} else if err := c.QueryParser(&req); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}

	_, token, err := h.auth.Login(c.UserContext(), req.ResolvedIdentifier(), req.Password)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeAuthentication {
			c.Set(fiber.HeaderWWWAuthenticate, LoginChallenge)
		}
		return err
	}

	return c.JSON(dto.NewAuthResponse(token))
}

// Me handles GET /me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewForbidden("authentication required")
	}
	user, err := h.auth.CurrentUser(c.UserContext(), principal.Subject)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user)})
}
