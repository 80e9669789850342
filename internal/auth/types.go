package auth

import "time"

// User is an authenticated principal. At most one API token is valid for a
// user at any instant: TokenDigest holds the SHA-256 digest of the current
// token, or is empty when the user is logged out.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	TokenDigest  string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
