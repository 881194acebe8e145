package auth

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

// ValidationError marks a client-input failure so the route layer can map it
// to a 400 without inspecting message text.
type ValidationError struct {
	msg string
}

func (e ValidationError) Error() string { return e.msg }

func invalidInput(format string, args ...any) error {
	return ValidationError{msg: fmt.Sprintf(format, args...)}
}

// SignupInput carries the raw signup request. Validate normalizes it in
// place before the orchestrator acts on it.
type SignupInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// Validate checks and normalizes the signup fields: email shape, trimmed
// names of at least two characters, phone reduced to 10-15 digits, and the
// password policy (8+ chars with upper, lower, and digit).
func (in *SignupInput) Validate() error {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return invalidInput("invalid email address")
	}

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if len(in.FirstName) < 2 || len(in.LastName) < 2 {
		return invalidInput("names must be at least 2 characters long")
	}

	if in.PhoneNumber != "" {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, in.PhoneNumber)
		if len(digits) < 10 || len(digits) > 15 {
			return invalidInput("phone number must be between 10-15 digits")
		}
		in.PhoneNumber = digits
	}

	return validatePassword(in.Password)
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return invalidInput("password must be at least 8 characters long")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return invalidInput("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return invalidInput("password must contain at least one lowercase letter")
	}
	if !hasDigit {
		return invalidInput("password must contain at least one digit")
	}
	return nil
}
