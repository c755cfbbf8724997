package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flight-agent/internal/auth"
	apperrors "github.com/spec-kit/flight-agent/pkg/util/errorutil"
)

// ProtectedExample handles GET /protected-example. It only runs after the
// auth middleware accepted the token.
func ProtectedExample(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewForbidden("authentication required")
	}
	return c.JSON(fiber.Map{
		"ok":      true,
		"message": "The token is valid",
		"subject": principal.Subject,
	})
}
