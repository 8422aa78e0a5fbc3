package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repair-report-service/internal/domain"
	apperrors "github.com/spec-kit/repair-report-service/pkg/util"
)

// RequireAdmin ensures the authenticated user holds the admin role.
// Unauthenticated requests never reach this check; an authenticated
// non-admin yields 403, never 401.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if user.Role != domain.RoleAdmin {
			return apperrors.NewForbidden("admin rights required")
		}
		return c.Next()
	}
}
