package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/skillswap/skillswap/internal/identity"
	"github.com/skillswap/skillswap/internal/notification"
	"github.com/skillswap/skillswap/internal/oauth"
	"github.com/skillswap/skillswap/internal/otp"
	"github.com/skillswap/skillswap/internal/session"
	"github.com/skillswap/skillswap/internal/token"
)

// OAuthResolver exchanges a provider access token for a normalized profile.
// Satisfied by oauth.Federator.
type OAuthResolver interface {
	ResolveIdentity(ctx context.Context, provider, accessToken string) (oauth.Profile, error)
}

// Device describes the client a request came from, captured at login time.
type Device struct {
	Info      string
	IPAddress string
	UserAgent string
}

// SignupResult reports the pending-verification state after a signup.
type SignupResult struct {
	UserID               string
	RequiresVerification bool
	OTPSentTo            []string
}

// LoginResult carries either a minted token or an OTP challenge descriptor.
type LoginResult struct {
	Token       string
	User        identity.User
	RequiresOTP bool
	OTPSentTo   []string
}

// Service is the authentication orchestrator. It composes the credential
// store, OTP manager, session registry, token issuer, and OAuth federator
// into the signup/login/verify/logout protocols.
type Service struct {
	identities identity.Repository
	codes      *otp.Manager
	sessions   session.Repository
	tokens     *token.Issuer
	federator  OAuthResolver
	email      notification.EmailSender
	sms        notification.SMSSender
	logger     *slog.Logger
}

// NewService wires the orchestrator from its collaborators.
func NewService(
	identities identity.Repository,
	codes *otp.Manager,
	sessions session.Repository,
	tokens *token.Issuer,
	federator OAuthResolver,
	email notification.EmailSender,
	sms notification.SMSSender,
	logger *slog.Logger,
) *Service {
	return &Service{
		identities: identities,
		codes:      codes,
		sessions:   sessions,
		tokens:     tokens,
		federator:  federator,
		email:      email,
		sms:        sms,
		logger:     logger,
	}
}

// Signup registers a new email/password user and issues verification codes
// for every supplied channel. The account starts unverified.
func (s *Service) Signup(ctx context.Context, in SignupInput) (SignupResult, error) {
	if err := in.Validate(); err != nil {
		return SignupResult{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return SignupResult{}, fmt.Errorf("hash password: %w", err)
	}

	user := identity.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsAvailable:  true,
		AuthMethod:   identity.MethodEmail,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.identities.Create(ctx, user); err != nil {
		if errors.Is(err, identity.ErrDuplicate) {
			return SignupResult{}, ErrDuplicateIdentity
		}
		return SignupResult{}, fmt.Errorf("create identity: %w", err)
	}

	// The identity is committed; a code issuance failure leaves a state
	// resend can recover from, so it surfaces as-is.
	emailCode, err := s.codes.Issue(ctx, user.ID, user.Email, "", otp.PurposeEmailVerification)
	if err != nil {
		return SignupResult{}, err
	}
	sentTo := []string{"email"}
	s.dispatchEmail(ctx, user, notification.KindAccountVerification, emailCode)

	if user.PhoneNumber != "" {
		phoneCode, err := s.codes.Issue(ctx, user.ID, "", user.PhoneNumber, otp.PurposePhoneVerification)
		if err != nil {
			return SignupResult{}, err
		}
		sentTo = append(sentTo, "phone")
		s.dispatchSMS(ctx, user, notification.KindAccountVerification, phoneCode)
	}

	return SignupResult{UserID: user.ID, RequiresVerification: true, OTPSentTo: sentTo}, nil
}

// VerifyEmail consumes an email verification code and flips the identity's
// verified flag on success.
func (s *Service) VerifyEmail(ctx context.Context, userID, code string) error {
	user, err := s.identities.FindByID(ctx, userID)
	if err != nil {
		return s.notFound(err)
	}
	ok, err := s.codes.Verify(ctx, user.Email, "", code, otp.PurposeEmailVerification)
	if err != nil {
		return fmt.Errorf("verify email otp: %w", err)
	}
	if !ok {
		return ErrInvalidOTP
	}
	return s.identities.MarkVerified(ctx, user.ID)
}

// VerifyPhone consumes a phone verification code. It does not flip the
// overall verified flag; only email verification does.
func (s *Service) VerifyPhone(ctx context.Context, userID, code string) error {
	user, err := s.identities.FindByID(ctx, userID)
	if err != nil {
		return s.notFound(err)
	}
	if user.PhoneNumber == "" {
		return ErrInvalidOTP
	}
	ok, err := s.codes.Verify(ctx, "", user.PhoneNumber, code, otp.PurposePhoneVerification)
	if err != nil {
		return fmt.Errorf("verify phone otp: %w", err)
	}
	if !ok {
		return ErrInvalidOTP
	}
	return nil
}

// Login checks credentials and either mints a token directly or, when the
// account already has active sessions, escalates to an OTP login challenge.
func (s *Service) Login(ctx context.Context, email, password string, device Device) (LoginResult, error) {
	user, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("find identity: %w", err)
	}
	if len(user.PasswordHash) == 0 {
		// Federated-only account; same message as a bad password.
		return LoginResult{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return LoginResult{}, ErrNotVerified
	}

	active, err := s.sessions.ListActive(ctx, user.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("list sessions: %w", err)
	}
	if len(active) > 0 {
		// Multi-device gate: a code goes out to every channel on file and no
		// token is minted until the challenge completes.
		code, err := s.codes.Issue(ctx, user.ID, user.Email, user.PhoneNumber, otp.PurposeLoginVerification)
		if err != nil {
			return LoginResult{}, err
		}
		sentTo := []string{"email"}
		s.dispatchEmail(ctx, user, notification.KindLoginChallenge, code)
		if user.PhoneNumber != "" {
			sentTo = append(sentTo, "phone")
			s.dispatchSMS(ctx, user, notification.KindLoginChallenge, code)
		}
		return LoginResult{User: user, RequiresOTP: true, OTPSentTo: sentTo}, nil
	}

	return s.establishSession(ctx, user, device)
}

// VerifyLoginOTP completes an OTP login challenge. On failure the challenge
// stands: the caller may retry with another code or request a resend.
func (s *Service) VerifyLoginOTP(ctx context.Context, userID, code string, device Device) (LoginResult, error) {
	user, err := s.identities.FindByID(ctx, userID)
	if err != nil {
		return LoginResult{}, s.notFound(err)
	}
	ok, err := s.codes.Verify(ctx, user.Email, user.PhoneNumber, code, otp.PurposeLoginVerification)
	if err != nil {
		return LoginResult{}, fmt.Errorf("verify login otp: %w", err)
	}
	if !ok {
		return LoginResult{}, ErrInvalidOTP
	}
	return s.establishSession(ctx, user, device)
}

// OAuthLogin resolves a federated identity and signs the owning account in,
// creating it on first contact. Federated accounts arrive pre-verified and
// skip the multi-device gate.
func (s *Service) OAuthLogin(ctx context.Context, provider, accessToken string, device Device) (LoginResult, error) {
	if provider != oauth.ProviderGoogle && provider != oauth.ProviderGithub {
		return LoginResult{}, invalidInput("unsupported oauth provider %q", provider)
	}
	profile, err := s.federator.ResolveIdentity(ctx, provider, accessToken)
	if err != nil {
		return LoginResult{}, err
	}

	account, err := s.identities.FindOAuthAccount(ctx, provider, profile.ProviderUserID)
	switch {
	case err == nil:
		user, err := s.identities.FindByID(ctx, account.UserID)
		if err != nil {
			return LoginResult{}, fmt.Errorf("load linked identity: %w", err)
		}
		return s.establishSession(ctx, user, device)
	case errors.Is(err, identity.ErrNotFound):
		// First login with this provider identity.
	default:
		return LoginResult{}, fmt.Errorf("find oauth account: %w", err)
	}

	now := time.Now().UTC()
	user := identity.User{
		ID:              uuid.New().String(),
		Email:           profile.Email,
		FirstName:       profile.FirstName,
		LastName:        profile.LastName,
		ProfilePhotoURL: profile.AvatarURL,
		IsVerified:      true,
		IsAvailable:     true,
		AuthMethod:      provider,
		CreatedAt:       now,
	}
	if err := s.identities.Create(ctx, user); err != nil {
		if errors.Is(err, identity.ErrDuplicate) {
			return LoginResult{}, ErrDuplicateIdentity
		}
		return LoginResult{}, fmt.Errorf("create identity: %w", err)
	}
	link := identity.OAuthAccount{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		Provider:       provider,
		ProviderUserID: profile.ProviderUserID,
		AccessToken:    accessToken,
		CreatedAt:      now,
	}
	if err := s.identities.CreateOAuthAccount(ctx, link); err != nil {
		return LoginResult{}, fmt.Errorf("link oauth account: %w", err)
	}

	return s.establishSession(ctx, user, device)
}

// Logout deactivates the session matching the presented token. Unknown or
// already-inactive sessions are a no-op.
func (s *Service) Logout(ctx context.Context, userID, tokenStr string) error {
	return s.sessions.Deactivate(ctx, userID, tokenStr)
}

// ResendOTP issues a fresh code of the requested purpose without
// invalidating codes already outstanding.
func (s *Service) ResendOTP(ctx context.Context, userID, purpose string) ([]string, error) {
	user, err := s.identities.FindByID(ctx, userID)
	if err != nil {
		return nil, s.notFound(err)
	}

	switch purpose {
	case otp.PurposeEmailVerification:
		code, err := s.codes.Issue(ctx, user.ID, user.Email, "", purpose)
		if err != nil {
			return nil, err
		}
		s.dispatchEmail(ctx, user, notification.KindAccountVerification, code)
		return []string{"email"}, nil

	case otp.PurposePhoneVerification:
		if user.PhoneNumber == "" {
			return nil, invalidInput("no phone number on file")
		}
		code, err := s.codes.Issue(ctx, user.ID, "", user.PhoneNumber, purpose)
		if err != nil {
			return nil, err
		}
		s.dispatchSMS(ctx, user, notification.KindAccountVerification, code)
		return []string{"phone"}, nil

	case otp.PurposeLoginVerification:
		code, err := s.codes.Issue(ctx, user.ID, user.Email, user.PhoneNumber, purpose)
		if err != nil {
			return nil, err
		}
		sentTo := []string{"email"}
		s.dispatchEmail(ctx, user, notification.KindLoginChallenge, code)
		if user.PhoneNumber != "" {
			sentTo = append(sentTo, "phone")
			s.dispatchSMS(ctx, user, notification.KindLoginChallenge, code)
		}
		return sentTo, nil

	default:
		return nil, invalidInput("unsupported otp purpose %q", purpose)
	}
}

// CurrentUser resolves a bearer token to its identity, failing closed on any
// token problem.
func (s *Service) CurrentUser(ctx context.Context, tokenStr string) (identity.User, error) {
	subject, ok := s.tokens.Verify(tokenStr)
	if !ok {
		return identity.User{}, ErrTokenInvalid
	}
	user, err := s.identities.FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return identity.User{}, ErrTokenInvalid
		}
		return identity.User{}, fmt.Errorf("find identity: %w", err)
	}
	return user, nil
}

// establishSession mints a token, records a session for it, and stamps the
// login on the identity.
func (s *Service) establishSession(ctx context.Context, user identity.User, device Device) (LoginResult, error) {
	signed, err := s.tokens.Mint(user.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("mint token: %w", err)
	}
	now := time.Now().UTC()
	err = s.sessions.Create(ctx, session.Session{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		Token:      signed,
		DeviceInfo: device.Info,
		IPAddress:  device.IPAddress,
		UserAgent:  device.UserAgent,
		Active:     true,
		CreatedAt:  now,
		LastUsedAt: now,
	})
	if err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}
	if err := s.identities.RecordLogin(ctx, user.ID, device.Info, now); err != nil {
		s.logger.Warn("record login failed", "user_id", user.ID, "error", err)
	}
	user.LastLoginAt = now
	user.LastLoginDevice = device.Info
	return LoginResult{Token: signed, User: user}, nil
}

func (s *Service) dispatchEmail(ctx context.Context, user identity.User, kind, code string) {
	if !s.email.SendEmail(ctx, user.Email, kind, code, user.DisplayName()) {
		s.logger.Warn("email dispatch failed", "user_id", user.ID, "kind", kind)
	}
}

func (s *Service) dispatchSMS(ctx context.Context, user identity.User, kind, code string) {
	if !s.sms.SendSMS(ctx, user.PhoneNumber, kind, code) {
		s.logger.Warn("sms dispatch failed", "user_id", user.ID, "kind", kind)
	}
}

func (s *Service) notFound(err error) error {
	if errors.Is(err, identity.ErrNotFound) {
		return ErrIdentityNotFound
	}
	return err
}
