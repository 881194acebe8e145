package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/skillswap/skillswap/internal/token"
)

func TestRequireAuth(t *testing.T) {
	issuer := token.NewIssuer("test-secret-0123456789abcdef", 30*time.Minute)

	app := fiber.New()
	app.Get("/protected", RequireAuth(issuer), func(c *fiber.Ctx) error {
		subject, _ := c.Locals("user_id").(string)
		return c.SendString(subject)
	})

	minted, err := issuer.Mint("user-42")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + minted, fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"not bearer", "Basic abc", fiber.StatusUnauthorized},
		{"forged token", "Bearer not.a.token", fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}
}
