package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tankwatch/backend/services/dashboard-service/internal/password"
)

func newAuth(t *testing.T) (*AuthService, *TokenService) {
	t.Helper()
	hasher := password.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	tokens := NewTokenService("jwt-secret", time.Hour)
	return NewAuthService("Admin@Example.com", hash, hasher, tokens, zap.NewNop()), tokens
}

func TestLoginIssuesAdminToken(t *testing.T) {
	auth, tokens := newAuth(t)

	session, err := auth.Login(context.Background(), " admin@example.COM ", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := tokens.ValidateToken(session.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Role != AdminRole || claims.Email != "admin@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth, _ := newAuth(t)
	cases := []struct{ email, password string }{
		{"admin@example.com", "wrong"},
		{"someone@example.com", "s3cret"},
		{"", "s3cret"},
		{"admin@example.com", ""},
	}
	for _, c := range cases {
		if _, err := auth.Login(context.Background(), c.email, c.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%q/%q: expected ErrInvalidCredentials, got %v", c.email, c.password, err)
		}
	}
}
