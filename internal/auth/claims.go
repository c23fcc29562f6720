package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ScopeWriteLogs allows a producer to submit log records.
const ScopeWriteLogs = "logs:write"

// defaultTTL applies when GenerateIngestToken is given a non-positive TTL.
const defaultTTL = 24 * time.Hour

// IngestClaims are the claims of a producer token.
type IngestClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// GenerateIngestToken creates a signed token for producer.
func GenerateIngestToken(producer, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrSecretEmpty
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	now := time.Now()
	claims := IngestClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   producer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Scope: ScopeWriteLogs,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing ingest token: %w", err)
	}
	return signed, nil
}

// ParseToken validates signature, expiry, subject and scope.
func ParseToken(tokenString, secret string) (*IngestClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &IngestClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*IngestClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	if claims.Scope != ScopeWriteLogs {
		return nil, fmt.Errorf("%w: scope %q", ErrTokenInvalid, claims.Scope)
	}

	return claims, nil
}
