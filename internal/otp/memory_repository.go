package otp

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.Mutex
	codes []Code
}

// NewMemoryRepository builds an in-memory OTP store for development and tests.
// Consume holds the store lock for the full check-and-mark, preserving the
// at-most-once guarantee the Postgres implementation gets from its
// conditional update.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Create(_ context.Context, code Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, code)
	return nil
}

func (r *memoryRepository) Consume(_ context.Context, email, phone, code, purpose string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.codes {
		c := &r.codes[i]
		if c.Used || c.Code != code || c.Purpose != purpose {
			continue
		}
		if !c.ExpiresAt.After(now) {
			continue
		}
		if email != "" && c.Email != email {
			continue
		}
		if phone != "" && c.PhoneNumber != phone {
			continue
		}
		c.Used = true
		return true, nil
	}
	return false, nil
}
