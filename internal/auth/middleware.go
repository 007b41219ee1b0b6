package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth rejects requests without a valid Bearer token. The subject and
// email claims are stored on the request context for handlers downstream.
func (s *Service) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			return unauthorized(c)
		}
		claims, err := s.ParseToken(tokenStr)
		if err != nil {
			return unauthorized(c)
		}
		if sub, ok := claims["sub"].(string); ok {
			c.Locals("userID", sub)
		}
		if email, ok := claims["email"].(string); ok {
			c.Locals("userEmail", email)
		}
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
}
