package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

const tokenBytes = 32

// Service owns the token lifecycle: issue on login, invalidate on logout,
// resolve on each authenticated request. A user moves between exactly two
// states: no token, or one active token.
type Service struct {
	store Store
}

// NewService constructs a Service backed by the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Login verifies the credentials and issues a fresh opaque token,
// replacing any previously issued one. The plaintext token is returned
// exactly once; only its digest is stored.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	user, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := s.store.SetTokenDigest(ctx, user.ID, DigestToken(token)); err != nil {
		return "", err
	}
	return token, nil
}

// Logout clears the user's stored token. Calling it when no token is
// stored is a no-op, not an error.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.store.ClearTokenDigest(ctx, userID)
}

// Authenticate resolves a presented bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	user, err := s.store.FindByTokenDigest(ctx, DigestToken(token))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates a user with a hashed password. Used by seeds and tests.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &User{
		Email:        strings.TrimSpace(strings.ToLower(email)),
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DigestToken returns the hex SHA-256 digest under which a token is stored.
func DigestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
