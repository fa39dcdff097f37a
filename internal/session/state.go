package session

import "go-pos-console/internal/models"

type Status string

const (
	StatusLoading         Status = "loading"
	StatusUnauthenticated Status = "unauthenticated"
	StatusAuthenticated   Status = "authenticated"
)

// State is a point-in-time copy of the session.
type State struct {
	User            *models.User `json:"user"`
	AccessToken     string       `json:"-"`
	RefreshToken    string       `json:"-"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	IsLoading       bool         `json:"isLoading"`
}

func (s State) Status() Status {
	switch {
	case s.IsLoading:
		return StatusLoading
	case s.IsAuthenticated:
		return StatusAuthenticated
	default:
		return StatusUnauthenticated
	}
}

// Role returns the signed-in user's role, or "" when signed out.
func (s State) Role() string {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
