package identity

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.RWMutex
	users    map[string]User         // keyed by id
	byEmail  map[string]string       // email -> id
	accounts map[string]OAuthAccount // provider|providerUserID -> account
}

// NewMemoryRepository builds an in-memory user store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		users:    make(map[string]User),
		byEmail:  make(map[string]string),
		accounts: make(map[string]OAuthAccount),
	}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[user.Email]; exists {
		return ErrDuplicate
	}
	if user.PhoneNumber != "" {
		for _, u := range r.users {
			if u.PhoneNumber == user.PhoneNumber {
				return ErrDuplicate
			}
		}
	}
	r.users[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.users[id], nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *memoryRepository) MarkVerified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	user.IsVerified = true
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return nil
}

func (r *memoryRepository) RecordLogin(_ context.Context, id, device string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	user.LastLoginAt = at.UTC()
	user.LastLoginDevice = device
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return nil
}

func (r *memoryRepository) CreateOAuthAccount(_ context.Context, account OAuthAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := account.Provider + "|" + account.ProviderUserID
	if _, exists := r.accounts[key]; exists {
		return ErrDuplicate
	}
	r.accounts[key] = account
	return nil
}

func (r *memoryRepository) FindOAuthAccount(_ context.Context, provider, providerUserID string) (OAuthAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[provider+"|"+providerUserID]
	if !ok {
		return OAuthAccount{}, ErrNotFound
	}
	return account, nil
}
