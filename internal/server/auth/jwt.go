// Package auth signs and verifies the bearer token envelope. The envelope
// only proves the token was minted by this server; whether the session is
// still alive is decided by the session registry.
package auth

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the session id in jti and the user id in sub.
type Claims struct {
	jwt.RegisteredClaims
}

func (c *Claims) SessionID() string { return c.ID }

func (c *Claims) UserID() string { return c.Subject }

// GenerateToken signs an HS256 token for the given session.
func GenerateToken(userID, sessionID string, secretKey []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       sessionID,
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// ParseToken verifies the signature and returns the claims. Every failure is
// reported as common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
