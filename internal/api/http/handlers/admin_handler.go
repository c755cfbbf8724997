package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flight-agent/internal/api/dto"
	"github.com/spec-kit/flight-agent/internal/domain"
	"github.com/spec-kit/flight-agent/internal/service"
	apperrors "github.com/spec-kit/flight-agent/pkg/util/errorutil"
)

// AdminHandler exposes read-only account lookups for administrators.
type AdminHandler struct {
	auth *service.AuthService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService) *AdminHandler {
	return &AdminHandler{auth: authService}
}

// UserExists handles GET /admin/users/:identifier.
func (h *AdminHandler) UserExists(c *fiber.Ctx) error {
	identifier, err := url.PathUnescape(c.Params("identifier"))
	if err != nil {
		return apperrors.NewValidationError("invalid identifier", nil)
	}
	exists, err := h.auth.UserExists(c.UserContext(), identifier)
	if err != nil {
		return err
	}
	return c.JSON(dto.ExistsResponse{
		Identifier: domain.NormalizeIdentifier(identifier),
		Exists:     exists,
	})
}
