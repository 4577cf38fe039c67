// Package auth mints and verifies the HS256 access tokens handed out by the
// auth provider. Claims follow the GoTrue layout so tokens issued by a hosted
// provider and by the in-memory provider parse the same way.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/mentorship/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access token payload. Subject carries the account id.
type Claims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email,omitempty"`
	Role         string         `json:"role,omitempty"`
	SessionID    string         `json:"session_id,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// AccountRole returns the application role stored in user metadata, falling
// back to the top-level role claim.
func (c *Claims) AccountRole() string {
	if r, ok := c.UserMetadata["role"].(string); ok && r != "" {
		return r
	}
	return c.Role
}

func GenerateToken(claims Claims, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(validityDuration))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry of tokenString.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
