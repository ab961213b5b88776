package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminTokenService validates bearer tokens guarding the
// administrative surface (manual callback retry). Tokens are
// HMAC-SHA256 signed JWTs issued out of band with the shared admin
// secret.
type AdminTokenService struct {
	signingKey []byte
	clockSkew  time.Duration
	timeFunc   func() time.Time // Injectable for testing
}

// NewAdminTokenService creates the service. The secret must be at
// least 32 characters.
func NewAdminTokenService(secret string) (*AdminTokenService, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("admin jwt secret must be at least 32 characters")
	}

	return &AdminTokenService{
		signingKey: []byte(secret),
		clockSkew:  2 * time.Minute,
		timeFunc:   time.Now,
	}, nil
}

// GenerateToken creates a signed token for subject, valid for the
// given lifetime. Used by operators and tests.
func (s *AdminTokenService) GenerateToken(subject string, lifetime time.Duration) (string, error) {
	now := s.timeFunc()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign admin token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a token, returning its subject.
func (s *AdminTokenService) ValidateToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingToken
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(s.timeFunc),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
