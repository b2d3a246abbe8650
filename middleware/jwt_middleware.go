package middleware

import (
	"strings"

	"dripmail/utils"

	"github.com/gofiber/fiber/v2"
)

// Protected admits requests carrying a valid admin JWT, from the
// Authorization header or the access_token cookie.
func Protected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string

		// Get token from header or cookie
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			// Expect "Bearer <token>"
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid authorization format",
				})
			}
			token = tokenParts[1]
		} else {
			token = c.Cookies("access_token")
			if token == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Authorization required",
				})
			}
		}

		// Parse and validate token
		claims, err := utils.ParseJWTToken(secret, token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		// Store admin identity in context
		c.Locals("admin", claims.Subject)
		c.Locals("claims", claims)
		return c.Next()
	}
}
