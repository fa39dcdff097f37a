// Package authtest mints backend-shaped tokens for tests.
package authtest

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var key = []byte("test_signing_key_for_pos_console")

// Token creates a signed token carrying {sub, username, role[], iat, exp}.
func Token(userID int64, username, role string, exp time.Time) string {
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(userID, 10),
		"username": username,
		"role":     []string{role},
		"iat":      exp.Add(-time.Hour).Unix(),
		"exp":      exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		panic(err)
	}
	return signed
}
