package auth

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flight-agent/internal/domain"
	apperrors "github.com/spec-kit/flight-agent/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// TokenQueryParam is the query parameter protected routes read the token from.
const TokenQueryParam = "token"

// Principal represents the authenticated caller.
type Principal struct {
	Subject string
	Role    domain.Role
}

// TokenValidator validates raw bearer tokens.
type TokenValidator interface {
	Validate(raw string) (*Claims, error)
}

// AuthMiddleware validates bearer tokens before protected handlers run.
type AuthMiddleware struct {
	tokens TokenValidator
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes. Every failure is
// rejected with 403 and the next handler is not invoked.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw := tokenFromRequest(c)
	if raw == "" {
		return ErrTokenMissing
	}

	claims, err := m.tokens.Validate(raw)
	if err != nil {
		return apperrors.WithStatus(err, http.StatusForbidden)
	}

	c.Locals(principalKey, &Principal{Subject: claims.Subject, Role: claims.Role})
	return c.Next()
}

// tokenFromRequest reads ?token= first, then an Authorization header using
// either the Bearer or Token scheme.
func tokenFromRequest(c *fiber.Ctx) string {
	if token := strings.TrimSpace(c.Query(TokenQueryParam)); token != "" {
		return token
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") && !strings.EqualFold(parts[0], "Token") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
