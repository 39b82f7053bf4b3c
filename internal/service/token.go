package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

// Domain errors for API tokens.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrAuthDisabled = errors.New("api authentication is disabled")
)

// TokenService issues and verifies HS256 bearer tokens for the local API.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(strings.TrimSpace(secret)), now: time.Now}
}

// Enabled reports whether a signing secret is configured.
func (s *TokenService) Enabled() bool {
	return len(s.secret) > 0
}

// GenerateToken returns a signed token for subject.
func (s *TokenService) GenerateToken(subject string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	if strings.TrimSpace(subject) == "" {
		return "", &ValidationError{Field: "subject", Msg: "must not be empty"}
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	})
	return token.SignedString(s.secret)
}

// ParseToken verifies accessToken and returns its subject.
func (s *TokenService) ParseToken(accessToken string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
