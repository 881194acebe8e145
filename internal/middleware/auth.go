package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/skillswap/skillswap/internal/token"
)

// RequireAuth validates the bearer token and stores the subject and raw
// token in request locals. Malformed, forged, and expired tokens all read as
// unauthenticated; no distinction leaks to the client.
func RequireAuth(issuer *token.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		subject, ok := issuer.Verify(tokenStr)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		c.Locals("user_id", subject)
		c.Locals("token", tokenStr)
		return c.Next()
	}
}
