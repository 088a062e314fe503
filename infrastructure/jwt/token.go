// Package jwt parses the backend-issued bearer tokens.
package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the fields read from a backend token.
type Claims struct {
	Sub string `json:"sub"`
	jwt.RegisteredClaims
}

var (
	// ErrInvalidSigningMethod is returned for non-HMAC tokens when verifying.
	ErrInvalidSigningMethod = errors.New("invalid signing method")
	// ErrMissingBearer is returned when the Authorization header holds no bearer token.
	ErrMissingBearer = errors.New("missing bearer token")
)

// Parse reads the claims from tokenString. With an empty secret the
// signature is not checked and expiry is left to the caller. With a secret
// the token must be HMAC-signed with it.
func Parse(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}

	if secret == "" {
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
			return nil, fmt.Errorf("decode token: %w", err)
		}
		return claims, nil
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// Sign issues an HS256 token. Used by tests and local tooling.
func Sign(secret, subject string, expiresAt time.Time) (string, error) {
	claims := &Claims{
		Sub: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMissingBearer
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMissingBearer
	}
	return token, nil
}

// TokenFromRequest reads the bearer token from the request header, falling
// back to the access_token query parameter used by EventSource clients.
func TokenFromRequest(c *gin.Context) (string, error) {
	if token, err := BearerToken(c.GetHeader("Authorization")); err == nil {
		return token, nil
	}
	if token := c.Query("access_token"); token != "" {
		return token, nil
	}
	return "", ErrMissingBearer
}
