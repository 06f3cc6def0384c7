// internal/interfaces/http/handlers/settings.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pos-backend/internal/domain/settings"
)

// SettingsHandler handles store settings
type SettingsHandler struct {
	settingsService *settings.Service
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(svc *settings.Service) *SettingsHandler {
	return &SettingsHandler{settingsService: svc}
}

// GetSettings handles GET /settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	st, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Settings retrieved successfully",
		"data":    st,
	})
}

// GetPublicSettings handles GET /settings/public. It never fails.
func (h *SettingsHandler) GetPublicSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": h.settingsService.GetPublic(c.Request.Context()),
	})
}

// AdminUpdateSettings handles PUT /admin/settings
func (h *SettingsHandler) AdminUpdateSettings(c *gin.Context) {
	var req settings.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	st, err := h.settingsService.Update(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Settings updated successfully",
		"data":    st,
	})
}
