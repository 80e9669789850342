package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Store describes persistence for users and their single active token.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByTokenDigest(ctx context.Context, digest string) (*User, error)
	// SetTokenDigest installs a new token digest, overwriting any prior
	// one; the previous token stops authorizing immediately.
	SetTokenDigest(ctx context.Context, userID int64, digest string) error
	// ClearTokenDigest transitions the user to the no-token state. It is
	// a no-op when no token is stored.
	ClearTokenDigest(ctx context.Context, userID int64) error
}

// InMemoryStore implements Store for tests and local development.
type InMemoryStore struct {
	mu    sync.RWMutex
	seq   int64
	users map[int64]*User
}

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[int64]*User)}
}

func (s *InMemoryStore) CreateUser(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	u.ID = s.seq
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) FindByTokenDigest(ctx context.Context, digest string) (*User, error) {
	if digest == "" {
		return nil, ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.TokenDigest == digest {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) SetTokenDigest(ctx context.Context, userID int64, digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.TokenDigest = digest
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryStore) ClearTokenDigest(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.TokenDigest = ""
	u.UpdatedAt = time.Now().UTC()
	return nil
}
