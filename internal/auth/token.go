package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-pos-console/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrMissingExpiry  = errors.New("token has no expiry claim")
)

// RoleList accepts the role claim either as an array or as a single string.
type RoleList []string

func (r *RoleList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*r = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	if one == "" {
		*r = nil
		return nil
	}
	*r = RoleList{one}
	return nil
}

// Claims defines what the backend puts inside the access token (The "ID Card")
type Claims struct {
	Roles    RoleList `json:"role"`
	Username string   `json:"username"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser()

// Decode reads the payload segment of a three-segment token.
// The signature is NOT verified: the backend checks it on every call it receives.
func Decode(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMalformedToken
	}
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if claims.ExpiresAt == nil {
		return nil, ErrMissingExpiry
	}
	return claims, nil
}

// Expiry returns the expiry claim as a time.
func (c *Claims) Expiry() time.Time {
	return c.ExpiresAt.Time
}

// Expired reports whether now is at or past the expiry claim.
func (c *Claims) Expired(now time.Time) bool {
	return !now.Before(c.Expiry())
}

// Role returns the primary role with any "ROLE_" prefix stripped.
func (c *Claims) Role() string {
	if len(c.Roles) == 0 {
		return models.RoleUser
	}
	return strings.ToUpper(strings.TrimPrefix(c.Roles[0], "ROLE_"))
}

// User builds the identity part of a user record from the claims.
func (c *Claims) User() *models.User {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	username := c.Username
	if username == "" && id == 0 {
		// some backends put the username in sub
		username = c.Subject
	}
	return &models.User{
		ID:       id,
		Username: username,
		Role:     c.Role(),
	}
}

// IsTokenExpired treats tokens that cannot be decoded as expired.
func IsTokenExpired(token string, now time.Time) bool {
	claims, err := Decode(token)
	if err != nil {
		return true
	}
	return claims.Expired(now)
}

// TimeUntilExpiry returns how long the token stays valid, never negative.
func TimeUntilExpiry(token string, now time.Time) time.Duration {
	claims, err := Decode(token)
	if err != nil {
		return 0
	}
	d := claims.Expiry().Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
