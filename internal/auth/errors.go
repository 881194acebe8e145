package auth

import "errors"

// Error taxonomy surfaced to the route layer. Login failures share one
// message regardless of which check tripped, so error text cannot be used to
// enumerate accounts.
var (
	ErrDuplicateIdentity  = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("please verify your email before logging in")
	ErrInvalidOTP         = errors.New("invalid or expired verification code")
	ErrTokenInvalid       = errors.New("invalid or expired token")
	ErrIdentityNotFound   = errors.New("user not found")
)
