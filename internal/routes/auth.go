package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/skillswap/skillswap/internal/auth"
)

// RegisterAuthRoutes wires authentication endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, requireAuth fiber.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")

	group.Post("/signup", h.Signup)
	group.Post("/verify-email", h.VerifyEmail)
	group.Post("/verify-phone", h.VerifyPhone)
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/verify-login-otp", h.VerifyLoginOTP)
	group.Post("/oauth/login", h.OAuthLogin)
	group.Post("/resend-otp", h.ResendOTP)

	group.Post("/logout", requireAuth, h.Logout)
	group.Get("/me", requireAuth, h.Me)
}
