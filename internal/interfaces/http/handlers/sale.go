// internal/interfaces/http/handlers/sale.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pos-backend/internal/domain/sale"
	"github.com/your-org/pos-backend/internal/interfaces/http/middleware"
)

// SaleProcessor commits a checkout
type SaleProcessor interface {
	ProcessSale(ctx context.Context, actor *sale.Actor, req *sale.Request) (*sale.Sale, error)
}

// SaleReader serves the sales history
type SaleReader interface {
	ListSales(ctx context.Context, req *sale.ListRequest) ([]sale.Summary, int64, error)
	GetSale(ctx context.Context, id uint) (*sale.Detail, error)
}

// StatsInvalidator drops cached dashboard figures after a sale
type StatsInvalidator interface {
	InvalidateStats(ctx context.Context)
}

// SaleHandler handles checkout and sales history
type SaleHandler struct {
	processor SaleProcessor
	sales     SaleReader
	stats     StatsInvalidator
}

// NewSaleHandler creates a new sale handler. stats may be nil.
func NewSaleHandler(processor SaleProcessor, sales SaleReader, stats StatsInvalidator) *SaleHandler {
	return &SaleHandler{
		processor: processor,
		sales:     sales,
		stats:     stats,
	}
}

// CreateSale handles POST /sales
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req sale.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid JSON data",
		})
		return
	}

	var actor *sale.Actor
	if claims, ok := middleware.GetClaimsFromContext(c); ok {
		actor = &sale.Actor{UserID: claims.UserID, Role: claims.Role}
	}

	committed, err := h.processor.ProcessSale(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.stats != nil {
		h.stats.InvalidateStats(c.Request.Context())
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Sale completed successfully",
		"sale_id":      committed.ID,
		"total_amount": committed.TotalAmount,
		"data":         committed,
	})
}

// GetSales handles GET /sales
func (h *SaleHandler) GetSales(c *gin.Context) {
	var req sale.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	sales, total, err := h.sales.ListSales(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sales retrieved successfully",
		"data":    sales,
		"pagination": gin.H{
			"limit":  req.Limit,
			"offset": req.Offset,
			"total":  total,
		},
	})
}

// GetSale handles GET /sales/:id
func (h *SaleHandler) GetSale(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "sale")
	if !ok {
		return
	}

	detail, err := h.sales.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sale retrieved successfully",
		"data":    detail,
	})
}
