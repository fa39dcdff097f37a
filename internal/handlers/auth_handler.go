package handlers

import (
	"log"
	"net/http"

	"go-pos-console/internal/middleware"
	"go-pos-console/internal/models"

	"github.com/gin-gonic/gin"
)

// GetSession reports the session state (never the tokens). The login page
// polls it while the console is still restoring.
func (h *Handler) GetSession(c *gin.Context) {
	s := h.Session.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":          s.Status(),
		"user":            s.User,
		"isAuthenticated": s.IsAuthenticated,
		"isLoading":       s.IsLoading,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var input models.LoginRequest
	// 1. Validate Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// 2. Let the backend check the credentials
	user, err := h.Session.Login(c.Request.Context(), input)
	if err != nil {
		log.Printf("🔐 Login failed for %s: %v", input.Username, err)
		respondError(c, err)
		return
	}

	// 3. Success! Tell the front end where to go
	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"role":     user.Role,
		"redirect": middleware.HomeFor(user.Role),
	})
}

func (h *Handler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	user, err := h.Session.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":     user,
		"redirect": middleware.HomeFor(user.Role),
	})
}

func (h *Handler) Logout(c *gin.Context) {
	h.Session.Logout(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Signed out", "redirect": middleware.LoginPath})
}

func (h *Handler) Refresh(c *gin.Context) {
	if err := h.Session.RefreshAuth(c.Request.Context()); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired, please sign in again", "redirect": middleware.LoginPath})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": h.Session.Snapshot().User})
}

// Me re-reads the profile before answering so edits made elsewhere show up.
func (h *Handler) Me(c *gin.Context) {
	h.Session.RefreshProfile(c.Request.Context())
	c.JSON(http.StatusOK, h.Session.Snapshot().User)
}
