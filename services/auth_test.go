package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cppla/autoblog/models"
	"github.com/cppla/autoblog/store"
	"github.com/cppla/autoblog/store/storetest"
	"github.com/cppla/autoblog/utils"
)

func newGate(t *testing.T, st store.UserStore) (*AuthGate, *utils.TokenManager) {
	t.Helper()
	tokens, err := utils.NewTokenManager("test-secret")
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	return NewAuthGate(st, tokens, utils.BcryptHasher{Cost: bcrypt.MinCost}, 15*time.Minute), tokens
}

func addUser(t *testing.T, st store.UserStore, gate *AuthGate, username, password string, active bool) *models.User {
	t.Helper()
	hash, err := gate.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &models.User{Username: username, Email: username + "@example.com", Password: hash, Active: active}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestLoginAndAuthenticate(t *testing.T) {
	st := storetest.Open(t)
	gate, _ := newGate(t, st)
	ctx := context.Background()
	alice := addUser(t, st, gate, "alice", "pw-alice", true)

	if _, err := gate.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := gate.Login(ctx, "nobody@example.com", "pw-alice"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	tok, err := gate.Login(ctx, "alice@example.com", "pw-alice")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok.TokenType != "bearer" || tok.AccessToken == "" {
		t.Fatalf("unexpected token %+v", tok)
	}
	if d := time.Until(tok.ExpiresAt); d <= 14*time.Minute || d > 15*time.Minute {
		t.Fatalf("expected a 15 minute token, expires in %v", d)
	}

	user, err := gate.Authenticate(ctx, tok.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != alice.ID {
		t.Fatalf("authenticated as %d, want %d", user.ID, alice.ID)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	st := storetest.Open(t)
	gate, tokens := newGate(t, st)
	ctx := context.Background()
	bob := addUser(t, st, gate, "bob", "pw", true)
	addUser(t, st, gate, "carol", "pw", false)

	if _, err := gate.Authenticate(ctx, "garbage"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for garbage, got %v", err)
	}

	ghost, _, _ := tokens.Issue("ghost", time.Minute)
	if _, err := gate.Authenticate(ctx, ghost); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	inactive, _, _ := tokens.Issue("carol", time.Minute)
	if _, err := gate.Authenticate(ctx, inactive); !errors.Is(err, ErrInactiveUser) {
		t.Fatalf("expected ErrInactiveUser, got %v", err)
	}
	if _, err := gate.Login(ctx, "carol@example.com", "pw"); !errors.Is(err, ErrInactiveUser) {
		t.Fatalf("expected inactive login to fail, got %v", err)
	}

	past := time.Now().Add(-time.Hour)
	expiredTokens, _ := utils.NewTokenManager("test-secret")
	expiredTokens.WithClock(func() time.Time { return past })
	expired, _, _ := expiredTokens.Issue("bob", time.Minute)
	if _, err := gate.Authenticate(ctx, expired); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for expired token, got %v", err)
	}

	if err := st.DeleteUser(ctx, bob.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	valid, _, _ := tokens.Issue("bob", time.Minute)
	if _, err := gate.Authenticate(ctx, valid); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for deleted user, got %v", err)
	}
}

func TestCheckPassword(t *testing.T) {
	st := storetest.Open(t)
	gate, _ := newGate(t, st)
	u := addUser(t, st, gate, "dave", "secret", true)
	if err := gate.CheckPassword(u, "secret"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := gate.CheckPassword(u, "nope"); !errors.Is(err, ErrIncorrectPassword) {
		t.Fatalf("expected ErrIncorrectPassword, got %v", err)
	}
}

func TestHashPasswordLimit(t *testing.T) {
	st := storetest.Open(t)
	gate, _ := newGate(t, st)
	if _, err := gate.HashPassword(strings.Repeat("a", MaxPasswordBytes)); err != nil {
		t.Fatalf("72 bytes should hash, got %v", err)
	}
	if _, err := gate.HashPassword(strings.Repeat("a", MaxPasswordBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestIssueTokenNamesCurrentUsername(t *testing.T) {
	st := storetest.Open(t)
	gate, _ := newGate(t, st)
	u := addUser(t, st, gate, "erin", "pw", true)
	tok, err := gate.IssueToken(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := gate.Authenticate(context.Background(), tok.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("expected user %d, got %d", u.ID, got.ID)
	}
}
