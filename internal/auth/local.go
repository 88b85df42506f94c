package auth

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"autohub/internal/domain"
	identityModels "autohub/internal/domain/models/identity"
)

// LocalTokenService issues and verifies HS256 access tokens signed with a
// shared secret. This is the default auth mode when no JWKS endpoint is
// configured, and the only mode that can issue tokens itself.
type LocalTokenService struct {
	secret []byte
	expiry time.Duration
	logger *slog.Logger
}

// NewLocalTokenService creates a token service signing with the given secret.
// Token lifetime is expressed in minutes to match the config knob.
func NewLocalTokenService(secret string, expireMinutes int, logger *slog.Logger) *LocalTokenService {
	return &LocalTokenService{
		secret: []byte(secret),
		expiry: time.Duration(expireMinutes) * time.Minute,
		logger: logger,
	}
}

// IssueToken signs a fresh access token for the given user. Each token gets
// a unique jti so two logins in the same second still produce distinct tokens.
func (s *LocalTokenService) IssueToken(user *identityModels.User) (string, error) {
	now := time.Now()
	claims := &identityModels.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
		Email: user.Email,
		Role:  user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates an HS256 token and extracts its claims.
// Returns ErrUnauthorized for any invalid, expired, or malformed token.
func (s *LocalTokenService) VerifyToken(tokenString string) (*identityModels.AccessClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&identityModels.AccessClaims{},
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		s.logger.Debug("Token parse failed", "error", err.Error())
		return nil, domain.ErrUnauthorized
	}

	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*identityModels.AccessClaims)
	if !ok {
		s.logger.Error("Failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}

	// Validate user ID exists (sub claim)
	if claims.Subject == "" {
		s.logger.Debug("Token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close is a no-op for the local token service, kept for shutdown symmetry
// with the JWKS verifier.
func (s *LocalTokenService) Close() error {
	return nil
}
