package credential

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiresAt reads the exp claim of a JWT without verifying its signature.
// It reports false for opaque tokens and tokens without exp.
func ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether token carries an exp claim at or before now.
// Tokens without exp never expire.
func Expired(token string, now time.Time) bool {
	exp, ok := ExpiresAt(token)
	return ok && !now.Before(exp)
}

// ttlFor returns the remaining lifetime of token, or fallback when the token
// carries no exp claim.
func ttlFor(token string, now time.Time, fallback time.Duration) time.Duration {
	if fallback > 0 {
		return fallback
	}
	exp, ok := ExpiresAt(token)
	if !ok {
		return 0
	}
	if d := exp.Sub(now); d > 0 {
		return d
	}
	return time.Millisecond
}
