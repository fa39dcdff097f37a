package middleware

import (
	"net/http"
	"strings"

	"go-pos-console/internal/models"
	"go-pos-console/internal/session"

	"github.com/gin-gonic/gin"
)

// SessionSource is what the guards read; *session.Manager satisfies it.
type SessionSource interface {
	Snapshot() session.State
}

const LoginPath = "/login"

// HomeFor returns the landing page for a role.
func HomeFor(role string) string {
	if strings.EqualFold(role, models.RoleAdmin) {
		return "/admin"
	}
	return "/pos"
}

// RequireAuth guards protected routes. While the startup token check is
// running it answers "loading"; a signed-out caller is sent to the login
// page; a caller without one of roles is sent to their own home.
func RequireAuth(s SessionSource, roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[strings.ToUpper(r)] = true
	}
	return func(c *gin.Context) {
		state := s.Snapshot()

		// 1. Startup restore still in flight
		if state.IsLoading {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
			return
		}

		// 2. Nobody signed in
		if !state.IsAuthenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "Authentication required",
				"redirect": LoginPath,
			})
			return
		}

		// 3. Wrong role
		role := state.Role()
		if len(allowed) > 0 && !allowed[strings.ToUpper(role)] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "You do not have permission to access this resource",
				"redirect": HomeFor(role),
			})
			return
		}

		// 4. Expose the operator to handlers
		c.Set("user", state.User)
		c.Set("role", role)
		c.Next()
	}
}

// PublicOnly guards the login and register surfaces: a signed-in caller is
// sent to their home instead.
func PublicOnly(s SessionSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := s.Snapshot()
		if state.IsLoading {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
			return
		}
		if state.IsAuthenticated {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error":    "Already signed in",
				"redirect": HomeFor(state.Role()),
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the operator stored by RequireAuth.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get("user")
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
