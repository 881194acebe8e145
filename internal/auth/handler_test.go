package auth

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/skillswap/skillswap/internal/middleware"
)

func setupTestApp(env *testEnv) *fiber.App {
	app := fiber.New()
	h := NewHandler(env.svc)

	requireAuth := middleware.RequireAuth(env.tokens)

	group := app.Group("/api/v1/auth")
	group.Post("/signup", h.Signup)
	group.Post("/verify-email", h.VerifyEmail)
	group.Post("/verify-phone", h.VerifyPhone)
	group.Post("/login", h.Login)
	group.Post("/verify-login-otp", h.VerifyLoginOTP)
	group.Post("/oauth/login", h.OAuthLogin)
	group.Post("/resend-otp", h.ResendOTP)
	group.Post("/logout", requireAuth, h.Logout)
	group.Get("/me", requireAuth, h.Me)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body, bearer string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var payload map[string]any
	if len(raw) > 0 && strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode, payload
}

func TestSignupLoginLogoutOverHTTP(t *testing.T) {
	env := newTestEnv()
	app := setupTestApp(env)

	status, body := doJSON(t, app, fiber.MethodPost, "/api/v1/auth/signup",
		`{"email":"a@x.com","password":"Abcdef12","first_name":"Ada","last_name":"Lovelace"}`, "")
	if status != fiber.StatusCreated {
		t.Fatalf("signup: expected 201, got %d (%v)", status, body)
	}
	userID, _ := body["user_id"].(string)
	if userID == "" {
		t.Fatalf("signup response missing user_id: %v", body)
	}

	// Duplicate signup conflicts.
	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/auth/signup",
		`{"email":"a@x.com","password":"Abcdef12","first_name":"Ada","last_name":"Lovelace"}`, "")
	if status != fiber.StatusConflict {
		t.Fatalf("duplicate signup: expected 409, got %d", status)
	}

	// Login before verification is rejected.
	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/auth/login",
		`{"email":"a@x.com","password":"Abcdef12"}`, "")
	if status != fiber.StatusUnauthorized {
		t.Fatalf("unverified login: expected 401, got %d", status)
	}

	code := env.email.last(t).Code
	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/auth/verify-email",
		`{"user_id":"`+userID+`","otp_code":"`+code+`"}`, "")
	if status != fiber.StatusOK {
		t.Fatalf("verify email: expected 200, got %d", status)
	}

	// Reusing the consumed code fails.
	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/auth/verify-email",
		`{"user_id":"`+userID+`","otp_code":"`+code+`"}`, "")
	if status != fiber.StatusBadRequest {
		t.Fatalf("reused otp: expected 400, got %d", status)
	}

	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/auth/login",
		`{"email":"a@x.com","password":"Abcdef12"}`, "")
	if status != fiber.StatusOK {
		t.Fatalf("login: expected 200, got %d (%v)", status, body)
	}
	if requires, _ := body["requires_otp"].(bool); requires {
		t.Fatal("first login must not require OTP")
	}
	accessToken, _ := body["access_token"].(string)
	if accessToken == "" {
		t.Fatalf("login response missing access_token: %v", body)
	}

	status, body = doJSON(t, app, fiber.MethodGet, "/api/v1/auth/me", "", accessToken)
	if status != fiber.StatusOK {
		t.Fatalf("me: expected 200, got %d", status)
	}
	if got, _ := body["email"].(string); got != "a@x.com" {
		t.Fatalf("me: expected a@x.com, got %v", body)
	}

	status, _ = doJSON(t, app, fiber.MethodGet, "/api/v1/auth/me", "", "forged-token")
	if status != fiber.StatusUnauthorized {
		t.Fatalf("me with bad token: expected 401, got %d", status)
	}

	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/auth/logout", "{}", accessToken)
	if status != fiber.StatusOK {
		t.Fatalf("logout: expected 200, got %d", status)
	}
	// Logout is idempotent.
	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/auth/logout", "{}", accessToken)
	if status != fiber.StatusOK {
		t.Fatalf("second logout: expected 200, got %d", status)
	}
}

func TestLoginChallengeOverHTTP(t *testing.T) {
	env := newTestEnv()
	app := setupTestApp(env)
	userID := env.signupVerified(t, validSignup())

	status, body := doJSON(t, app, fiber.MethodPost, "/api/v1/auth/login",
		`{"email":"a@x.com","password":"Abcdef12"}`, "")
	if status != fiber.StatusOK {
		t.Fatalf("first login: expected 200, got %d", status)
	}

	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/auth/login",
		`{"email":"a@x.com","password":"Abcdef12"}`, "")
	if status != fiber.StatusOK {
		t.Fatalf("second login: expected 200, got %d", status)
	}
	if requires, _ := body["requires_otp"].(bool); !requires {
		t.Fatalf("expected OTP challenge, got %v", body)
	}
	if tok, _ := body["access_token"].(string); tok != "" {
		t.Fatal("challenge response must not carry a token")
	}

	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/auth/verify-login-otp",
		`{"user_id":"`+userID+`","otp_code":"`+env.email.last(t).Code+`"}`, "")
	if status != fiber.StatusOK {
		t.Fatalf("verify login otp: expected 200, got %d (%v)", status, body)
	}
	if tok, _ := body["access_token"].(string); tok == "" {
		t.Fatalf("expected token after challenge, got %v", body)
	}
}

func TestLoginInvalidCredentialsOverHTTP(t *testing.T) {
	env := newTestEnv()
	app := setupTestApp(env)
	env.signupVerified(t, validSignup())

	status, body := doJSON(t, app, fiber.MethodPost, "/api/v1/auth/login",
		`{"email":"a@x.com","password":"Wrong123"}`, "")
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (%v)", status, body)
	}
}
