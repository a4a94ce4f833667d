package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/JonasWeigert/PostPilot/internal/pkg/config"
)

// CORSAllowList restricts cross-origin access to the configured origins.
// Requests without an Origin header (curl, server-to-server) pass through.
func CORSAllowList(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}
		if !cfg.OriginAllowed(origin) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"error":   "origin not allowed",
			})
		}

		c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
		c.Set(fiber.HeaderAccessControlAllowMethods, "GET, POST, DELETE, OPTIONS")
		c.Set(fiber.HeaderAccessControlAllowHeaders, "Content-Type, Authorization, X-Admin-Secret")
		c.Set(fiber.HeaderVary, fiber.HeaderOrigin)

		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}

// RequireAdminSecret guards the privileged broker endpoints. The secret is
// compared in constant time.
func RequireAdminSecret(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		supplied := strings.TrimSpace(c.Get("X-Admin-Secret"))
		if supplied == "" ||
			subtle.ConstantTimeCompare([]byte(supplied), []byte(cfg.AdminSecret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "admin secret required",
			})
		}
		return c.Next()
	}
}
