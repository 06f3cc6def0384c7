// internal/interfaces/http/handlers/user_profile.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/domain/user"
	"github.com/your-org/pos-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// UserProfileHandler handles the signed-in user's own account
type UserProfileHandler struct {
	userService *user.Service
	config      *config.Config
}

// NewUserProfileHandler creates a new user profile handler
func NewUserProfileHandler(db *gorm.DB, cfg *config.Config) *UserProfileHandler {
	return &UserProfileHandler{
		userService: user.NewService(db, cfg),
		config:      cfg,
	}
}

// GetProfile handles GET /profile
func (h *UserProfileHandler) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile retrieved successfully",
		"data":    profile,
	})
}

// UpdateProfile handles PUT /profile
func (h *UserProfileHandler) UpdateProfile(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	var req user.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"data":    profile,
	})
}
