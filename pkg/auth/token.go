package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator validates HS256 bearer tokens and extracts the calling
// principal from the subject claim. It authenticates "who is calling" only;
// the owner check itself happens inside the gate service.
type TokenValidator struct {
	key []byte
}

// NewTokenValidator creates a validator with the given signing key.
// A nil or empty key yields a nil validator; callers treat that as
// fail-closed (all authenticated requests rejected).
func NewTokenValidator(key []byte) *TokenValidator {
	if len(key) == 0 {
		return nil
	}
	return &TokenValidator{key: key}
}

// Validate parses and validates a token string, returning the principal
// named by its subject claim.
func (v *TokenValidator) Validate(tokenStr string) (Principal, error) {
	if v == nil {
		return "", fmt.Errorf("validator uninitialized")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.key, nil
	})
	if err != nil {
		return "", fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return Principal(claims.Subject), nil
}

// Issue creates a signed token for the given principal. Used by tests and
// the local demo tooling; production deployments mint tokens externally.
func (v *TokenValidator) Issue(p Principal) (string, error) {
	if v == nil {
		return "", fmt.Errorf("validator uninitialized")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: string(p)})
	signed, err := token.SignedString(v.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
