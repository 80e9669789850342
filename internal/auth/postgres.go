package auth

import (
	"context"
	"database/sql"
	"errors"
)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateUser(ctx context.Context, u *User) error {
	return s.db.QueryRowContext(ctx, `
		insert into users(email, password_hash)
		values ($1,$2)
		returning id, created_at, updated_at
	`, u.Email, u.PasswordHash).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.findBy(ctx, `where email = $1`, email)
}

func (s *PGStore) FindByTokenDigest(ctx context.Context, digest string) (*User, error) {
	if digest == "" {
		return nil, ErrNotFound
	}
	return s.findBy(ctx, `where token_digest = $1`, digest)
}

func (s *PGStore) SetTokenDigest(ctx context.Context, userID int64, digest string) error {
	return s.updateToken(ctx, userID, sql.NullString{String: digest, Valid: digest != ""})
}

func (s *PGStore) ClearTokenDigest(ctx context.Context, userID int64) error {
	return s.updateToken(ctx, userID, sql.NullString{})
}

func (s *PGStore) findBy(ctx context.Context, where string, arg any) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, email, password_hash, coalesce(token_digest, ''), created_at, updated_at from users `+where,
		arg)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.TokenDigest, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PGStore) updateToken(ctx context.Context, userID int64, digest sql.NullString) error {
	res, err := s.db.ExecContext(ctx,
		`update users set token_digest = $1, updated_at = now() where id = $2`,
		digest, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
