package models

import "strings"

// Role values carried in the access token's role claim.
const (
	RoleAdmin    = "ADMIN"
	RoleUser     = "USER"
	RoleCustomer = "CUSTOMER"
)

// User - The operator signed into the console. Identity fields come from the
// access token; profile fields come from the user-info endpoint.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
	Status   string `json:"status,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Birthday string `json:"birthday,omitempty"`
}

// IsAdmin reports whether the user carries the ADMIN role.
func (u *User) IsAdmin() bool {
	return u != nil && strings.EqualFold(u.Role, RoleAdmin)
}

// Profile is the payload of the current-user endpoint.
type Profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar"`
	Gender   string `json:"gender"`
	Birthday string `json:"birthday"`
	Status   string `json:"status,omitempty"`
}

// AuthTokens is returned by login, register and refresh.
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}
