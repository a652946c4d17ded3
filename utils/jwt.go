package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL applies when a token is issued without an explicit lifetime.
const DefaultTokenTTL = 15 * time.Minute

var errEmptySecret = errors.New("jwt secret must not be empty")

// Claims defines JWT claims used in the application. The subject carries the username.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens with a shared secret.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager returns a manager signing with secret.
func NewTokenManager(secret string) (*TokenManager, error) {
	if secret == "" {
		return nil, errEmptySecret
	}
	return &TokenManager{secret: []byte(secret), now: time.Now}, nil
}

// WithClock replaces the time source used for issuing and verifying.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

// Issue signs a token for username valid for ttl (DefaultTokenTTL when ttl <= 0).
// Every token carries a fresh jti, so revoking one never affects another.
func (m *TokenManager) Issue(username string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := m.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Parse validates signature, algorithm and expiry and returns the claims.
// A token is valid strictly before its expiry.
func (m *TokenManager) Parse(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
