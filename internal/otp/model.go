package otp

import "time"

// Purposes a one-time code can be issued for.
const (
	PurposeEmailVerification = "email_verification"
	PurposePhoneVerification = "phone_verification"
	PurposeLoginVerification = "login_verification"
	PurposePasswordReset     = "password_reset"
)

// ValidPurpose reports whether the given purpose tag is known.
func ValidPurpose(p string) bool {
	switch p {
	case PurposeEmailVerification, PurposePhoneVerification, PurposeLoginVerification, PurposePasswordReset:
		return true
	default:
		return false
	}
}

// Code is a time-bounded, single-use verification code tied to a user and
// one or both delivery channels.
type Code struct {
	ID          string
	UserID      string
	Email       string // empty when not targeting the email channel
	PhoneNumber string // empty when not targeting the phone channel
	Code        string // 6 decimal digits
	Purpose     string
	Used        bool
	ExpiresAt   time.Time
	CreatedAt   time.Time
}
