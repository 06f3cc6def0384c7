// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/domain/user"
	"github.com/your-org/pos-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// UserAdminHandler handles staff account management
type UserAdminHandler struct {
	adminService *user.AdminService
	config       *config.Config
}

// NewUserAdminHandler creates a new user admin handler
func NewUserAdminHandler(db *gorm.DB, cfg *config.Config) *UserAdminHandler {
	return &UserAdminHandler{
		adminService: user.NewAdminService(db, cfg),
		config:       cfg,
	}
}

// GetUsers handles GET /admin/users
func (h *UserAdminHandler) GetUsers(c *gin.Context) {
	users, err := h.adminService.GetUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Users retrieved successfully",
		"data":    users,
	})
}

// GetUser handles GET /admin/users/:id
func (h *UserAdminHandler) GetUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}

	u, err := h.adminService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User retrieved successfully",
		"data":    u,
	})
}

// CreateUser handles POST /admin/users
func (h *UserAdminHandler) CreateUser(c *gin.Context) {
	var req user.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	created, err := h.adminService.CreateUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"data":    created,
	})
}

// UpdateUser handles PUT /admin/users/:id
func (h *UserAdminHandler) UpdateUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}

	var req user.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.adminService.UpdateUser(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"data":    updated,
	})
}

// DeleteUser handles DELETE /admin/users/:id
func (h *UserAdminHandler) DeleteUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}

	adminID, _ := middleware.GetUserIDFromContext(c)
	if err := h.adminService.DeleteUser(c.Request.Context(), userID, adminID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}
