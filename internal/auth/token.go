package auth

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"quiz-web-service/internal/domain"
)

const minKeyLength = 32

// Claims is the JWT payload. Sub carries the email.
type Claims struct {
	UserID int64  `json:"uid"`
	Roles  string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens.
type TokenService struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenService derives the signing key from secret. Secrets shorter than
// 32 bytes are right-padded with '0'.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return NewTokenServiceWithClock(secret, ttl, time.Now)
}

// NewTokenServiceWithClock is used by tests that need deterministic expiry.
func NewTokenServiceWithClock(secret string, ttl time.Duration, now func() time.Time) *TokenService {
	return &TokenService{key: deriveKey(secret), ttl: ttl, now: now}
}

func deriveKey(secret string) []byte {
	if len(secret) >= minKeyLength {
		return []byte(secret)
	}
	log.Printf("jwt secret is shorter than %d bytes, padding it; configure a longer secret", minKeyLength)
	return []byte(secret + strings.Repeat("0", minKeyLength-len(secret)))
}

// TTL reports the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for p valid for the configured lifetime.
func (s *TokenService) Issue(p Principal) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: p.UserID,
		Roles:  p.Roles.Claim(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the principal carried by token. Every failure is domain.ErrInvalidToken.
func (s *TokenService) Verify(token string) (Principal, error) {
	if token == "" {
		return Principal{}, domain.ErrInvalidToken
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return Principal{}, errors.Join(domain.ErrInvalidToken, err)
	}
	// exp == now counts as expired
	if !claims.ExpiresAt.Time.After(s.now()) || claims.Subject == "" {
		return Principal{}, domain.ErrInvalidToken
	}
	return Principal{
		UserID: claims.UserID,
		Email:  claims.Subject,
		Roles:  domain.ParseRoles(claims.Roles),
	}, nil
}
