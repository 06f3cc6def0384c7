// internal/interfaces/http/handlers/inventory.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/domain/inventory"
	"github.com/your-org/pos-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// InventoryHandler handles stock adjustments and movement history
type InventoryHandler struct {
	inventoryService *inventory.Service
	config           *config.Config
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(db *gorm.DB, cfg *config.Config, log logrus.FieldLogger) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventory.NewService(db, cfg, log),
		config:           cfg,
	}
}

// AdjustStock handles POST /admin/products/:id/stock
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	productID, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}

	var req inventory.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	movement, err := h.inventoryService.AdjustStock(c.Request.Context(), productID, &req, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock adjusted successfully",
		"data":    movement,
	})
}

// GetMovements handles GET /admin/products/:id/movements
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	productID, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}

	movements, err := h.inventoryService.GetMovements(c.Request.Context(), productID, queryInt(c, "limit", 100))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock movements retrieved successfully",
		"data":    movements,
	})
}

// GetLowStock handles GET /products/low-stock
func (h *InventoryHandler) GetLowStock(c *gin.Context) {
	threshold := queryInt(c, "threshold", h.config.Sale.LowStockThreshold)

	items, err := h.inventoryService.GetLowStock(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Low stock products retrieved successfully",
		"data":    items,
	})
}
