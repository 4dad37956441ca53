// Package authn reads the claims of the bearer token issued by the API.
// The client never holds the signing key, so signatures are not verified;
// claims are only used to skip restoring a session that has plainly expired.
package authn

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// Claims is the payload the API puts in its tokens
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ParseUnverified decodes the token payload without checking the signature
func ParseUnverified(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Expiry returns the exp claim. ok is false when the token carries none.
func (c *Claims) Expiry() (t time.Time, ok bool) {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.RegisteredClaims.ExpiresAt.Time, true
}

// IsAdmin reports whether the role claim is admin
func (c *Claims) IsAdmin() bool {
	return c.Role == "admin"
}

// IsExpired reports whether tokenString is a JWT whose exp is at or before
// now. Opaque tokens and tokens without exp are never considered expired;
// the server stays the authority for those.
func IsExpired(tokenString string, now time.Time) bool {
	claims, err := ParseUnverified(tokenString)
	if err != nil {
		return false
	}
	exp, ok := claims.Expiry()
	if !ok {
		return false
	}
	return !now.Before(exp)
}
