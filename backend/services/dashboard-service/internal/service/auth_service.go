package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"tankwatch/backend/services/dashboard-service/internal/password"
)

// AdminRole is the role carried by dashboard session tokens.
const AdminRole = "admin"

// ErrInvalidCredentials represents login failure.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Session is an issued admin token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService checks the configured admin account and issues session tokens.
type AuthService struct {
	adminEmail string
	adminHash  string
	hasher     password.Hasher
	tokenizer  *TokenService
	logger     *zap.Logger
}

// NewAuthService builds AuthService for a single admin account.
func NewAuthService(adminEmail, adminHash string, hasher password.Hasher, tokenizer *TokenService, logger *zap.Logger) *AuthService {
	return &AuthService{
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		adminHash:  adminHash,
		hasher:     hasher,
		tokenizer:  tokenizer,
		logger:     logger,
	}
}

// Login authenticates the admin and produces a session token.
func (s *AuthService) Login(_ context.Context, email, secret string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || secret == "" {
		return nil, ErrInvalidCredentials
	}

	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.adminEmail)) == 1
	passErr := s.hasher.Compare(s.adminHash, secret)
	if errors.Is(passErr, password.ErrMalformedHash) {
		s.logger.Error("admin password hash is unusable", zap.Error(passErr))
	}
	if !emailOK || passErr != nil {
		s.logger.Warn("admin login rejected", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}

	token, expires, err := s.tokenizer.GenerateToken(email, AdminRole)
	if err != nil {
		return nil, err
	}

	s.logger.Info("admin logged in", zap.String("email", email))
	return &Session{Token: token, ExpiresAt: expires}, nil
}
