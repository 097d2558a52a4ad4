// Package token mints the opaque session credentials handed out at
// registration. A token is an HS256-signed blob carrying the username and a
// random jti, which makes every mint unique; callers treat the result as an
// opaque string. Authorization never decodes a token — it is checked by
// equality against the token stored on an account.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Minter struct {
	secret []byte
}

func NewMinter(secret string) *Minter {
	return &Minter{secret: []byte(secret)}
}

// Mint issues a fresh session token for username. Tokens carry no expiry:
// a session lasts until the next login overwrites it.
func (m *Minter) Mint(username string) (string, error) {
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to mint token: %w", err)
	}
	return signed, nil
}
