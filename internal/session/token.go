// Package session tracks logged-in users between token issue and expiry.
package session

import (
	"errors"
	"fmt"
	"time"

	infrajwt "github.com/Activ8Auto/ProAutoFill/infrastructure/jwt"
)

var (
	// ErrMalformedToken is returned when a token cannot be decoded or verified.
	ErrMalformedToken = errors.New("malformed token")
	// ErrMissingSubject is returned for tokens without a sub claim.
	ErrMissingSubject = errors.New("token has no subject")
	// ErrTokenExpired is returned for tokens whose exp has passed or is absent.
	ErrTokenExpired = errors.New("token expired")
	// ErrSessionNotFound is returned for unknown or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
)

// Claims are the fields the dashboard needs from a backend token.
type Claims struct {
	UserID    string
	ExpiresAt time.Time
}

// DecodeToken reads sub and exp. An empty secret skips signature
// verification. Expiry is not checked here.
func DecodeToken(token, secret string) (Claims, error) {
	parsed, err := infrajwt.Parse(token, secret)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	if parsed.Sub == "" {
		return Claims{}, ErrMissingSubject
	}

	claims := Claims{UserID: parsed.Sub}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time
	}
	return claims, nil
}
