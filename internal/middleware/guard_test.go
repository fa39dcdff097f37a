package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-pos-console/internal/models"
	"go-pos-console/internal/session"

	"github.com/gin-gonic/gin"
)

type fixedSession struct{ state session.State }

func (f fixedSession) Snapshot() session.State { return f.state }

var (
	loading   = session.State{IsLoading: true}
	signedOut = session.State{}
	cashier   = session.State{IsAuthenticated: true, User: &models.User{ID: 2, Username: "c", Role: models.RoleUser}}
	admin     = session.State{IsAuthenticated: true, User: &models.User{ID: 1, Username: "a", Role: models.RoleAdmin}}
)

func serve(t *testing.T, guard gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", guard, func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w
}

func redirectOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	s, _ := body["redirect"].(string)
	return s
}

func TestRequireAuth(t *testing.T) {
	cases := []struct {
		name     string
		state    session.State
		roles    []string
		code     int
		redirect string
	}{
		{"loading", loading, nil, http.StatusServiceUnavailable, ""},
		{"signed out", signedOut, nil, http.StatusUnauthorized, "/login"},
		{"any role", cashier, nil, http.StatusOK, ""},
		{"wrong role", cashier, []string{models.RoleAdmin}, http.StatusForbidden, "/pos"},
		{"right role", admin, []string{"admin"}, http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(t, RequireAuth(fixedSession{tc.state}, tc.roles...))
			if w.Code != tc.code {
				t.Fatalf("code = %d, want %d", w.Code, tc.code)
			}
			if got := redirectOf(t, w); got != tc.redirect {
				t.Fatalf("redirect = %q, want %q", got, tc.redirect)
			}
		})
	}
}

func TestPublicOnly(t *testing.T) {
	if w := serve(t, PublicOnly(fixedSession{loading})); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("loading code = %d", w.Code)
	}
	if w := serve(t, PublicOnly(fixedSession{signedOut})); w.Code != http.StatusOK {
		t.Fatalf("signed out code = %d", w.Code)
	}
	w := serve(t, PublicOnly(fixedSession{admin}))
	if w.Code != http.StatusConflict || redirectOf(t, w) != "/admin" {
		t.Fatalf("admin got %d %q", w.Code, redirectOf(t, w))
	}
}

func TestRateLimiterBlocksBurst(t *testing.T) {
	rl := NewRateLimiter(5, 2)
	codes := []int{}
	for i := 0; i < 3; i++ {
		codes = append(codes, serve(t, rl.Limit()).Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
}
