package middleware

import (
	"github.com/freelance-marketplace/backend/internal/rbac"
	"github.com/gofiber/fiber/v2"
)

// RequirePermission gates a route on the caller's role permissions.
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rbac.HasPermission(GetRole(c), permission) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden for this role"})
		}
		return c.Next()
	}
}
