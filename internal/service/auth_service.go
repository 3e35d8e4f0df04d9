package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sorrisoclinic/clinic-api/internal/auth"
)

var (
	// ErrInvalidCredentials indicates a failed doctor login.
	ErrInvalidCredentials = auth.ErrInvalidCredentials
	// ErrNotConfigured indicates that no doctor credential is set on the server.
	ErrNotConfigured = auth.ErrNotConfigured
	// ErrInvalidToken covers bad, expired and revoked doctor tokens.
	ErrInvalidToken = auth.ErrInvalidToken
)

// AuthService handles the doctor login and the doctor token lifecycle.
type AuthService struct {
	creds    auth.Credentials
	tokens   *auth.TokenManager
	denylist auth.Denylist
	log      zerolog.Logger
}

// NewAuthService creates the service. denylist may be nil, in which case
// tokens are trusted on signature and expiry alone.
func NewAuthService(creds auth.Credentials, tokens *auth.TokenManager, denylist auth.Denylist, logger zerolog.Logger) *AuthService {
	return &AuthService{creds: creds, tokens: tokens, denylist: denylist, log: logger}
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RevocationEnabled reports whether Logout can revoke tokens.
func (s *AuthService) RevocationEnabled() bool {
	return s.denylist != nil
}

// Login checks the configured doctor credential and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if err := s.creds.Check(email, password); err != nil {
		if errors.Is(err, auth.ErrNotConfigured) {
			s.log.Error().Msg("doctor login attempted without configured credentials")
			return nil, ErrNotConfigured
		}
		s.log.Warn().Msg("doctor login: invalid credentials")
		return nil, ErrInvalidCredentials
	}

	issued, err := s.tokens.Issue(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     issued.Token,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Role:      auth.RoleDoctor,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

// Verify returns the doctor claims of a valid, unrevoked token. When the
// denylist cannot be consulted the token is rejected.
func (s *AuthService) Verify(ctx context.Context, token string) (*auth.DoctorClaims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if s.denylist == nil {
		return claims, nil
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.log.Error().Err(err).Msg("revocation check failed")
		return nil, ErrInvalidToken
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Logout revokes token until its expiry. It reports false when no denylist
// is configured.
func (s *AuthService) Logout(ctx context.Context, token string) (bool, error) {
	claims, err := s.Verify(ctx, token)
	if err != nil {
		return false, err
	}
	if s.denylist == nil {
		return false, nil
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return false, err
	}
	s.log.Info().Str("jti", claims.ID).Msg("doctor token revoked")
	return true, nil
}
