package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrSignUpFailed       = errors.New("sign up rejected by identity provider")
)

// User is the identity resolved from a provider credential. The analytics
// core only ever consumes the ID.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Session is an issued credential pair.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Provider is the hosted identity provider capability. Credential
// verification, token issuance and session refresh all live behind it; the
// analytics core never parses a credential itself.
type Provider interface {
	SignUp(ctx context.Context, email, password, username string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*User, *Session, error)
	Verify(ctx context.Context, accessToken string) (*User, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
}
