package session

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu       sync.RWMutex
	sessions []Session
}

// NewMemoryRepository builds an in-memory session store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Create(_ context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.Active = true
	r.sessions = append(r.sessions, s)
	return nil
}

func (r *memoryRepository) ListActive(_ context.Context, userID string) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var active []Session
	for _, s := range r.sessions {
		if s.UserID == userID && s.Active {
			active = append(active, s)
		}
	}
	return active, nil
}

func (r *memoryRepository) Deactivate(_ context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sessions {
		s := &r.sessions[i]
		if s.UserID == userID && s.Token == token && s.Active {
			s.Active = false
		}
	}
	return nil
}
