// Package services holds the domain logic shared by the HTTP handlers: authentication,
// the autoreply side effect, comment moderation and the daily breakdown report.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cppla/autoblog/models"
	"github.com/cppla/autoblog/store"
	"github.com/cppla/autoblog/utils"
)

// Token is the login response body.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthGate resolves bearer tokens to users and issues tokens on login.
type AuthGate struct {
	users  store.UserStore
	tokens *utils.TokenManager
	hasher utils.PasswordHasher
	ttl    time.Duration
}

func NewAuthGate(users store.UserStore, tokens *utils.TokenManager, hasher utils.PasswordHasher, ttl time.Duration) *AuthGate {
	return &AuthGate{users: users, tokens: tokens, hasher: hasher, ttl: ttl}
}

// Authenticate verifies token and loads its user. It never writes.
func (g *AuthGate) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := g.tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if claims.Subject == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := g.users.GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !user.Active {
		return nil, ErrInactiveUser
	}
	return user, nil
}

// Login checks email and password and returns a fresh access token.
func (g *AuthGate) Login(ctx context.Context, email, password string) (*Token, error) {
	user, err := g.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if !g.hasher.Verify(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrInactiveUser
	}
	return g.IssueToken(user)
}

// IssueToken mints an access token whose subject is user's current username.
func (g *AuthGate) IssueToken(user *models.User) (*Token, error) {
	access, exp, err := g.tokens.Issue(user.Username, g.ttl)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Token{AccessToken: access, TokenType: "bearer", ExpiresAt: exp}, nil
}

// ExpiresAt returns the expiry recorded in a token that has already been authenticated.
func (g *AuthGate) ExpiresAt(token string) (time.Time, error) {
	claims, err := g.tokens.Parse(token)
	if err != nil {
		return time.Time{}, ErrInvalidCredentials
	}
	return claims.ExpiresAt.Time, nil
}

// CheckPassword re-verifies the password of an authenticated user.
func (g *AuthGate) CheckPassword(user *models.User, password string) error {
	if !g.hasher.Verify(user.Password, password) {
		return ErrIncorrectPassword
	}
	return nil
}

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// HashPassword hashes a new password for storage.
func (g *AuthGate) HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	return g.hasher.Hash(password)
}
