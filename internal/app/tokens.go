package app

import (
	"fmt"
	"time"

	"gameed/internal/domain"
	"github.com/golang-jwt/jwt/v4"
)

// DefaultTokenTTL is how long an issued bearer token stays valid.
const DefaultTokenTTL = 30 * 24 * time.Hour

// Identity is the caller resolved from a bearer token.
type Identity struct {
	UserID string
	Role   domain.Role
}

// Claims are the JWT claims carried by GameEd tokens.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return NewTokenIssuerWithClock(secret, ttl, time.Now)
}

// NewTokenIssuerWithClock is test-only for deterministic expiry.
func NewTokenIssuerWithClock(secret string, ttl time.Duration, now func() time.Time) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue signs a token for the user.
func (t *TokenIssuer) Issue(user domain.User) (string, error) {
	now := t.now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify decodes a token and resolves the caller. Any failure is reported as ErrInvalidToken.
func (t *TokenIssuer) Verify(raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, domain.ErrMissingToken
	}
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, domain.ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" || !claims.Role.Valid() {
		return Identity{}, domain.ErrInvalidToken
	}
	return Identity{UserID: claims.Subject, Role: claims.Role}, nil
}
