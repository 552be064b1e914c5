/*
Package jwt issues and verifies the HS256 bearer tokens used by the HTTP API and
the realtime endpoint, and provides the policy-driven middleware that attaches the
resolved identity to a request.
*/
package jwt

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"rosterhub/internal/app/user"
)

const (
	// TokenIssuer identifies the issuer of the token.
	TokenIssuer = "RosterHub-Server"

	// DefaultTokenExpiration matches the 7 day lifetime clients expect.
	DefaultTokenExpiration = 7 * 24 * time.Hour

	bearerPrefix = "bearer "
)

// GenerateToken creates and signs a token for the given identity.
func GenerateToken(identity user.Identity, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload := &Payload{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    TokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
		ID:   identity.ID,
		Role: string(identity.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseToken parses and validates the token string, returning its claims.
// Failures are reported as *AuthError with kind Invalid or Expired.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(secretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, newAuthError(KindExpired, err)
		}
		return nil, newAuthError(KindInvalid, err)
	}

	if !token.Valid || claims.subject() == "" {
		return nil, newAuthError(KindInvalid, errors.New("token carries no subject"))
	}

	return claims, nil
}

// StripScheme removes an optional, case-insensitive "Bearer " prefix and surrounding space.
func StripScheme(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, strings.TrimSpace(bearerPrefix)) {
		return ""
	}
	if len(raw) >= len(bearerPrefix) && strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
		raw = strings.TrimSpace(raw[len(bearerPrefix):])
	}
	return raw
}

// Verifier resolves bearer tokens to user identities.
type Verifier struct {
	secretKey string
	users     user.Lookup
}

// NewVerifier builds a Verifier that checks signatures with secretKey and resolves subjects through users.
func NewVerifier(secretKey string, users user.Lookup) *Verifier {
	return &Verifier{secretKey: secretKey, users: users}
}

// Verify checks rawToken and returns the identity stored for its subject.
// The identity is read from the store at this moment and is not re-checked later.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*user.Identity, error) {
	tokenString := StripScheme(rawToken)
	if tokenString == "" {
		return nil, ErrMissing
	}

	claims, err := ParseToken(tokenString, v.secretKey)
	if err != nil {
		return nil, err
	}

	identity, err := v.users.FindUserByID(ctx, claims.subject())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, newAuthError(KindUserNotFound, err)
		}
		return nil, err
	}

	return identity, nil
}
