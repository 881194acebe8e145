package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const codeLength = 6

var ten = big.NewInt(10)

// Manager generates, stores, and validates time-bounded single-use codes.
type Manager struct {
	repo Repository
	ttl  time.Duration
}

// NewManager creates an OTP manager with the given code lifetime.
func NewManager(repo Repository, ttl time.Duration) *Manager {
	return &Manager{repo: repo, ttl: ttl}
}

// Issue generates a fresh code for the user on the given channel(s) and
// persists it. Outstanding codes of the same purpose stay valid; resends
// stack rather than invalidate.
func (m *Manager) Issue(ctx context.Context, userID, email, phone, purpose string) (string, error) {
	if !ValidPurpose(purpose) {
		return "", fmt.Errorf("unknown otp purpose %q", purpose)
	}
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	now := time.Now().UTC()
	record := Code{
		ID:          uuid.New().String(),
		UserID:      userID,
		Email:       email,
		PhoneNumber: phone,
		Code:        code,
		Purpose:     purpose,
		ExpiresAt:   now.Add(m.ttl),
		CreatedAt:   now,
	}
	if err := m.repo.Create(ctx, record); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify consumes the code if it matches purpose, channel, and is neither
// used nor expired. A failed attempt has no side effects; the caller may
// retry with another code or request a resend.
func (m *Manager) Verify(ctx context.Context, email, phone, code, purpose string) (bool, error) {
	return m.repo.Consume(ctx, email, phone, code, purpose, time.Now().UTC())
}

// generateCode draws each digit independently from crypto/rand so codes are
// uniform over 000000-999999.
func generateCode() (string, error) {
	digits := make([]byte, codeLength)
	for i := range digits {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
