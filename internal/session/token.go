package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry decodes the exp claim of a bearer token without
// verifying its signature. Verification is the server's job; the
// client only needs the expiry for proactive refresh.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("decode token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("decode exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("token has no exp claim")
	}

	return exp.Time, nil
}

// IsTokenExpired reports whether the token's expiry has passed.
// Anything that cannot be decoded counts as expired (fail closed).
func IsTokenExpired(token string) bool {
	exp, err := TokenExpiry(token)
	if err != nil {
		return true
	}
	return time.Now().After(exp)
}
