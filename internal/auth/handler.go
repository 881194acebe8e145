package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/skillswap/skillswap/internal/identity"
	"github.com/skillswap/skillswap/internal/oauth"
)

// Handler exposes the auth endpoints over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler builds the HTTP handler for the auth service.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type userResponse struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	PhoneNumber     string    `json:"phone_number,omitempty"`
	ProfilePhotoURL string    `json:"profile_photo_url,omitempty"`
	IsVerified      bool      `json:"is_verified"`
	AuthMethod      string    `json:"auth_method"`
	CreatedAt       time.Time `json:"created_at"`
}

func toUserResponse(u identity.User) userResponse {
	return userResponse{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		PhoneNumber:     u.PhoneNumber,
		ProfilePhotoURL: u.ProfilePhotoURL,
		IsVerified:      u.IsVerified,
		AuthMethod:      u.AuthMethod,
		CreatedAt:       u.CreatedAt,
	}
}

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

// Signup registers a new unverified account and reports which channels
// received a verification code.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.Signup(c.UserContext(), SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"user_id":               result.UserID,
		"requires_verification": result.RequiresVerification,
		"otp_sent_to":           result.OTPSentTo,
	})
}

type verifyOTPRequest struct {
	UserID  string `json:"user_id"`
	OTPCode string `json:"otp_code"`
}

// VerifyEmail consumes an email verification code.
func (h *Handler) VerifyEmail(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.VerifyEmail(c.UserContext(), req.UserID, req.OTPCode); err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"verified": true, "message": "email verified successfully"})
}

// VerifyPhone consumes a phone verification code.
func (h *Handler) VerifyPhone(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.VerifyPhone(c.UserContext(), req.UserID, req.OTPCode); err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"verified": true, "message": "phone verified successfully"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token,omitempty"`
	TokenType   string       `json:"token_type,omitempty"`
	User        userResponse `json:"user"`
	RequiresOTP bool         `json:"requires_otp"`
	OTPSentTo   []string     `json:"otp_sent_to,omitempty"`
}

// Login authenticates with email/password. When another device holds an
// active session the response carries requires_otp instead of a token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.Login(c.UserContext(), req.Email, req.Password, deviceFrom(c))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(toLoginResponse(result))
}

type verifyLoginOTPRequest struct {
	UserID  string `json:"user_id"`
	OTPCode string `json:"otp_code"`
}

// VerifyLoginOTP completes the multi-device login challenge.
func (h *Handler) VerifyLoginOTP(c *fiber.Ctx) error {
	var req verifyLoginOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.VerifyLoginOTP(c.UserContext(), req.UserID, req.OTPCode, deviceFrom(c))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(toLoginResponse(result))
}

type oauthLoginRequest struct {
	Provider    string `json:"provider"`
	AccessToken string `json:"access_token"`
}

// OAuthLogin signs in (or registers) via a Google/GitHub access token.
func (h *Handler) OAuthLogin(c *fiber.Ctx) error {
	var req oauthLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.OAuthLogin(c.UserContext(), req.Provider, req.AccessToken, deviceFrom(c))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(toLoginResponse(result))
}

// Logout deactivates the session tied to the presented bearer token.
func (h *Handler) Logout(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	tokenStr, _ := c.Locals("token").(string)
	if userID == "" || tokenStr == "" {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	if err := h.svc.Logout(c.UserContext(), userID, tokenStr); err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"status": "logged_out"})
}

type resendOTPRequest struct {
	UserID  string `json:"user_id"`
	OTPType string `json:"otp_type"`
}

// ResendOTP issues a fresh code of the requested purpose.
func (h *Handler) ResendOTP(c *fiber.Ctx) error {
	var req resendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sentTo, err := h.svc.ResendOTP(c.UserContext(), req.UserID, req.OTPType)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{
		"message":     "verification code sent to " + strings.Join(sentTo, " and "),
		"otp_sent_to": sentTo,
	})
}

// Me returns the identity behind the presented bearer token.
func (h *Handler) Me(c *fiber.Ctx) error {
	tokenStr, _ := c.Locals("token").(string)
	user, err := h.svc.CurrentUser(c.UserContext(), tokenStr)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(toUserResponse(user))
}

func toLoginResponse(result LoginResult) loginResponse {
	resp := loginResponse{
		User:        toUserResponse(result.User),
		RequiresOTP: result.RequiresOTP,
		OTPSentTo:   result.OTPSentTo,
	}
	if result.Token != "" {
		resp.AccessToken = result.Token
		resp.TokenType = "bearer"
	}
	return resp
}

func deviceFrom(c *fiber.Ctx) Device {
	ua := c.Get(fiber.HeaderUserAgent)
	if ua == "" {
		ua = "Unknown"
	}
	return Device{
		Info:      ua + " - " + c.IP(),
		IPAddress: c.IP(),
		UserAgent: ua,
	}
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrDuplicateIdentity):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrNotVerified), errors.Is(err, ErrTokenInvalid):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrInvalidOTP), errors.Is(err, oauth.ErrProviderRejected):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrIdentityNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	// Validation failures read as client errors; anything else stays generic.
	var ve ValidationError
	if errors.As(err, &ve) {
		return fiber.NewError(http.StatusBadRequest, ve.Error())
	}
	return fiber.NewError(http.StatusInternalServerError, "internal error")
}
